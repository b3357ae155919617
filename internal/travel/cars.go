package travel

import (
	"context"
	"fmt"

	"concierge/internal/tools"
)

// SearchCarRentals finds car rentals by location and company name.
func (s *Store) SearchCarRentals(ctx context.Context, location, name string) (string, error) {
	query := "SELECT * FROM car_rentals WHERE 1=1"
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

// BookCarRental marks a car rental as booked.
func (s *Store) BookCarRental(ctx context.Context, rentalID int) (string, error) {
	n, err := s.exec(ctx, "UPDATE car_rentals SET booked = 1 WHERE id = ?", rentalID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return fmt.Sprintf("Car rental %d successfully booked.", rentalID), nil
	}
	return fmt.Sprintf("No car rental found with ID %d.", rentalID), nil
}

// UpdateCarRental changes a rental's start and end dates.
func (s *Store) UpdateCarRental(ctx context.Context, rentalID int, startDate, endDate string) (string, error) {
	var n int64
	if startDate != "" {
		affected, err := s.exec(ctx, "UPDATE car_rentals SET start_date = ? WHERE id = ?", startDate, rentalID)
		if err != nil {
			return "", err
		}
		n = affected
	}
	if endDate != "" {
		affected, err := s.exec(ctx, "UPDATE car_rentals SET end_date = ? WHERE id = ?", endDate, rentalID)
		if err != nil {
			return "", err
		}
		n = affected
	}
	if n > 0 {
		return fmt.Sprintf("Car rental %d successfully updated.", rentalID), nil
	}
	return fmt.Sprintf("No car rental found with ID %d.", rentalID), nil
}

// CancelCarRental clears a rental's booked flag.
func (s *Store) CancelCarRental(ctx context.Context, rentalID int) (string, error) {
	n, err := s.exec(ctx, "UPDATE car_rentals SET booked = 0 WHERE id = ?", rentalID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return fmt.Sprintf("Car rental %d successfully cancelled.", rentalID), nil
	}
	return fmt.Sprintf("No car rental found with ID %d.", rentalID), nil
}

func carRentalTools(s *Store) []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "search_car_rentals",
			Description: "Search for car rentals based on location, name, price tier, start date, and end date.",
			Schema: tools.Schema{
				Properties: map[string]tools.Property{
					"location":   {Type: "string", Description: "Location of the car rental."},
					"name":       {Type: "string", Description: "Name of the car rental company."},
					"price_tier": {Type: "string", Description: "Price tier of the car rental."},
					"start_date": {Type: "string", Description: "Start date of the car rental."},
					"end_date":   {Type: "string", Description: "End date of the car rental."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				return s.SearchCarRentals(ctx, stringArg(args, "location"), stringArg(args, "name"))
			},
		},
		{
			Name:        "book_car_rental",
			Description: "Book a car rental by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"rental_id"},
				Properties: map[string]tools.Property{
					"rental_id": {Type: "integer", Description: "The ID of the car rental to book."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "rental_id")
				if err != nil {
					return "", err
				}
				return s.BookCarRental(ctx, id)
			},
		},
		{
			Name:        "update_car_rental",
			Description: "Update a car rental's start and end dates by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"rental_id"},
				Properties: map[string]tools.Property{
					"rental_id":  {Type: "integer", Description: "The ID of the car rental to update."},
					"start_date": {Type: "string", Description: "The new start date."},
					"end_date":   {Type: "string", Description: "The new end date."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "rental_id")
				if err != nil {
					return "", err
				}
				return s.UpdateCarRental(ctx, id, stringArg(args, "start_date"), stringArg(args, "end_date"))
			},
		},
		{
			Name:        "cancel_car_rental",
			Description: "Cancel a car rental by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"rental_id"},
				Properties: map[string]tools.Property{
					"rental_id": {Type: "integer", Description: "The ID of the car rental to cancel."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "rental_id")
				if err != nil {
					return "", err
				}
				return s.CancelCarRental(ctx, id)
			},
		},
	}
}
