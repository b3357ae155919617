package travel

import (
	"context"
	"fmt"

	"concierge/internal/tools"
)

// SearchHotels finds hotels by location and name substring.
func (s *Store) SearchHotels(ctx context.Context, location, name string) (string, error) {
	query := "SELECT * FROM hotels WHERE 1=1"
	var params []any
	if location != "" {
		query += " AND location LIKE ?"
		params = append(params, "%"+location+"%")
	}
	if name != "" {
		query += " AND name LIKE ?"
		params = append(params, "%"+name+"%")
	}
	rows, err := s.queryRows(ctx, query, params...)
	if err != nil {
		return "", err
	}
	return marshalRows(rows)
}

// BookHotel marks a hotel as booked.
func (s *Store) BookHotel(ctx context.Context, hotelID int) (string, error) {
	n, err := s.exec(ctx, "UPDATE hotels SET booked = 1 WHERE id = ?", hotelID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return fmt.Sprintf("Hotel %d successfully booked.", hotelID), nil
	}
	return fmt.Sprintf("No hotel found with ID %d.", hotelID), nil
}

// UpdateHotel changes a hotel booking's check-in and check-out dates.
func (s *Store) UpdateHotel(ctx context.Context, hotelID int, checkinDate, checkoutDate string) (string, error) {
	var n int64
	if checkinDate != "" {
		affected, err := s.exec(ctx, "UPDATE hotels SET checkin_date = ? WHERE id = ?", checkinDate, hotelID)
		if err != nil {
			return "", err
		}
		n = affected
	}
	if checkoutDate != "" {
		affected, err := s.exec(ctx, "UPDATE hotels SET checkout_date = ? WHERE id = ?", checkoutDate, hotelID)
		if err != nil {
			return "", err
		}
		n = affected
	}
	if n > 0 {
		return fmt.Sprintf("Hotel %d successfully updated.", hotelID), nil
	}
	return fmt.Sprintf("No hotel found with ID %d.", hotelID), nil
}

// CancelHotel clears a hotel's booked flag.
func (s *Store) CancelHotel(ctx context.Context, hotelID int) (string, error) {
	n, err := s.exec(ctx, "UPDATE hotels SET booked = 0 WHERE id = ?", hotelID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return fmt.Sprintf("Hotel %d successfully cancelled.", hotelID), nil
	}
	return fmt.Sprintf("No hotel found with ID %d.", hotelID), nil
}

func hotelTools(s *Store) []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "search_hotels",
			Description: "Search for hotels based on location, name, price tier, check-in date, and check-out date.",
			Schema: tools.Schema{
				Properties: map[string]tools.Property{
					"location":      {Type: "string", Description: "Location of the hotel."},
					"name":          {Type: "string", Description: "Name of the hotel."},
					"price_tier":    {Type: "string", Description: "Price tier of the hotel."},
					"checkin_date":  {Type: "string", Description: "Check-in date."},
					"checkout_date": {Type: "string", Description: "Check-out date."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				return s.SearchHotels(ctx, stringArg(args, "location"), stringArg(args, "name"))
			},
		},
		{
			Name:        "book_hotel",
			Description: "Book a hotel by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"hotel_id"},
				Properties: map[string]tools.Property{
					"hotel_id": {Type: "integer", Description: "The ID of the hotel to book."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "hotel_id")
				if err != nil {
					return "", err
				}
				return s.BookHotel(ctx, id)
			},
		},
		{
			Name:        "update_hotel",
			Description: "Update a hotel's check-in and check-out dates by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"hotel_id"},
				Properties: map[string]tools.Property{
					"hotel_id":      {Type: "integer", Description: "The ID of the hotel to update."},
					"checkin_date":  {Type: "string", Description: "The new check-in date."},
					"checkout_date": {Type: "string", Description: "The new check-out date."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "hotel_id")
				if err != nil {
					return "", err
				}
				return s.UpdateHotel(ctx, id, stringArg(args, "checkin_date"), stringArg(args, "checkout_date"))
			},
		},
		{
			Name:        "cancel_hotel",
			Description: "Cancel a hotel by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"hotel_id"},
				Properties: map[string]tools.Property{
					"hotel_id": {Type: "integer", Description: "The ID of the hotel to cancel."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "hotel_id")
				if err != nil {
					return "", err
				}
				return s.CancelHotel(ctx, id)
			},
		},
	}
}
