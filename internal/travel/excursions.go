package travel

import (
	"context"
	"fmt"
	"strings"

	"concierge/internal/tools"
)

// SearchTripRecommendations finds trip recommendations by location,
// name, and comma-separated keywords.
func (s *Store) SearchTripRecommendations(ctx context.Context, location, name, keywords string) (string, error) {
	query := "SELECT * FROM trip_recommendations WHERE 1=1"
	var params []any
	if location != "" {
		query += " AND location LIKE ?"
		params = append(params, "%"+location+"%")
	}
	if name != "" {
		query += " AND name LIKE ?"
		params = append(params, "%"+name+"%")
	}
	if keywords != "" {
		words := strings.Split(keywords, ",")
		conditions := make([]string, len(words))
		for i, word := range words {
			conditions[i] = "keywords LIKE ?"
			params = append(params, "%"+strings.TrimSpace(word)+"%")
		}
		query += " AND (" + strings.Join(conditions, " OR ") + ")"
	}
	rows, err := s.queryRows(ctx, query, params...)
	if err != nil {
		return "", err
	}
	return marshalRows(rows)
}

// BookExcursion marks a trip recommendation as booked.
func (s *Store) BookExcursion(ctx context.Context, recommendationID int) (string, error) {
	n, err := s.exec(ctx, "UPDATE trip_recommendations SET booked = 1 WHERE id = ?", recommendationID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return fmt.Sprintf("Trip recommendation %d successfully booked.", recommendationID), nil
	}
	return fmt.Sprintf("No trip recommendation found with ID %d.", recommendationID), nil
}

// UpdateExcursion replaces a trip recommendation's details text.
func (s *Store) UpdateExcursion(ctx context.Context, recommendationID int, details string) (string, error) {
	n, err := s.exec(ctx, "UPDATE trip_recommendations SET details = ? WHERE id = ?", details, recommendationID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return fmt.Sprintf("Trip recommendation %d successfully updated.", recommendationID), nil
	}
	return fmt.Sprintf("No trip recommendation found with ID %d.", recommendationID), nil
}

// CancelExcursion clears a trip recommendation's booked flag.
func (s *Store) CancelExcursion(ctx context.Context, recommendationID int) (string, error) {
	n, err := s.exec(ctx, "UPDATE trip_recommendations SET booked = 0 WHERE id = ?", recommendationID)
	if err != nil {
		return "", err
	}
	if n > 0 {
		return fmt.Sprintf("Trip recommendation %d successfully cancelled.", recommendationID), nil
	}
	return fmt.Sprintf("No trip recommendation found with ID %d.", recommendationID), nil
}

func excursionTools(s *Store) []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "search_trip_recommendations",
			Description: "Search for trip recommendations based on location, name, and keywords.",
			Schema: tools.Schema{
				Properties: map[string]tools.Property{
					"location": {Type: "string", Description: "Location of the trip recommendation."},
					"name":     {Type: "string", Description: "Name of the trip recommendation."},
					"keywords": {Type: "string", Description: "Comma-separated keywords associated with the trip recommendation."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				return s.SearchTripRecommendations(ctx,
					stringArg(args, "location"), stringArg(args, "name"), stringArg(args, "keywords"))
			},
		},
		{
			Name:        "book_excursion",
			Description: "Book an excursion by its recommendation ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"recommendation_id"},
				Properties: map[string]tools.Property{
					"recommendation_id": {Type: "integer", Description: "The ID of the trip recommendation to book."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "recommendation_id")
				if err != nil {
					return "", err
				}
				return s.BookExcursion(ctx, id)
			},
		},
		{
			Name:        "update_excursion",
			Description: "Update a trip recommendation's details by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"recommendation_id", "details"},
				Properties: map[string]tools.Property{
					"recommendation_id": {Type: "integer", Description: "The ID of the trip recommendation to update."},
					"details":           {Type: "string", Description: "The new details of the trip recommendation."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "recommendation_id")
				if err != nil {
					return "", err
				}
				return s.UpdateExcursion(ctx, id, stringArg(args, "details"))
			},
		},
		{
			Name:        "cancel_excursion",
			Description: "Cancel a trip recommendation by its ID.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"recommendation_id"},
				Properties: map[string]tools.Property{
					"recommendation_id": {Type: "integer", Description: "The ID of the trip recommendation to cancel."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				id, err := intArg(args, "recommendation_id")
				if err != nil {
					return "", err
				}
				return s.CancelExcursion(ctx, id)
			},
		},
	}
}
