package travel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"concierge/internal/session"
	"concierge/internal/tools"
)

// rescheduleCutoff is the minimum lead time before a flight's
// departure for a ticket change to be permitted.
const rescheduleCutoff = 3 * time.Hour

// defaultSearchLimit caps flight search results.
const defaultSearchLimit = 20

// FetchUserFlightInfo returns the signed-in passenger's tickets with
// flight and seat details, encoded as JSON. Used both as a tool and to
// preload the session's user info.
func (s *Store) FetchUserFlightInfo(ctx context.Context, passengerID string) (string, error) {
	rows, err := s.queryRows(ctx, `
		SELECT
			t.ticket_no, t.book_ref,
			f.flight_id, f.flight_no, f.departure_airport, f.arrival_airport, f.scheduled_departure, f.scheduled_arrival,
			bp.seat_no, tf.fare_conditions
		FROM
			tickets t
			JOIN ticket_flights tf ON t.ticket_no = tf.ticket_no
			JOIN flights f ON tf.flight_id = f.flight_id
			JOIN boarding_passes bp ON bp.ticket_no = t.ticket_no AND bp.flight_id = f.flight_id
		WHERE
			t.passenger_id = ?`, passengerID)
	if err != nil {
		return "", err
	}
	return marshalRows(rows)
}

// SearchFlights finds flights by route and departure window.
func (s *Store) SearchFlights(ctx context.Context, departureAirport, arrivalAirport, startTime, endTime string, limit int) (string, error) {
	query := "SELECT * FROM flights WHERE 1 = 1"
	var params []any
	if departureAirport != "" {
		query += " AND departure_airport = ?"
		params = append(params, departureAirport)
	}
	if arrivalAirport != "" {
		query += " AND arrival_airport = ?"
		params = append(params, arrivalAirport)
	}
	if startTime != "" {
		t, err := ParseTime(startTime)
		if err != nil {
			return "", fmt.Errorf("invalid start_time: %w", err)
		}
		query += " AND scheduled_departure >= ?"
		params = append(params, t.Format(TimeLayout))
	}
	if endTime != "" {
		t, err := ParseTime(endTime)
		if err != nil {
			return "", fmt.Errorf("invalid end_time: %w", err)
		}
		query += " AND scheduled_departure <= ?"
		params = append(params, t.Format(TimeLayout))
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	query += " LIMIT ?"
	params = append(params, limit)

	rows, err := s.queryRows(ctx, query, params...)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No flights found for the given criteria.", nil
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("Flight %v from %v to %v departs at %v",
			r["flight_no"], r["departure_airport"], r["arrival_airport"], r["scheduled_departure"])
	}
	return strings.Join(lines, "\n"), nil
}

// UpdateTicketToNewFlight moves the passenger's ticket onto another
// flight. Changes are refused within the reschedule cutoff and for
// tickets the passenger does not own.
func (s *Store) UpdateTicketToNewFlight(ctx context.Context, passengerID, ticketNo string, newFlightID int) (string, error) {
	rows, err := s.queryRows(ctx,
		"SELECT departure_airport, arrival_airport, scheduled_departure FROM flights WHERE flight_id = ?", newFlightID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "Invalid new flight ID provided.", nil
	}
	departureRaw, _ := rows[0]["scheduled_departure"].(string)
	departure, err := ParseTime(departureRaw)
	if err != nil {
		return "", err
	}
	if time.Until(departure) < rescheduleCutoff {
		return fmt.Sprintf("Not permitted to reschedule to a flight that is less than 3 hours from the current time. Selected flight is at %v.", departureRaw), nil
	}

	rows, err = s.queryRows(ctx,
		"SELECT flight_id FROM ticket_flights WHERE ticket_no = ?", ticketNo)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No existing ticket found for the given ticket number.", nil
	}

	rows, err = s.queryRows(ctx,
		"SELECT ticket_no FROM tickets WHERE ticket_no = ? AND passenger_id = ?", ticketNo, passengerID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Current signed-in passenger with ID %s not the owner of ticket %s", passengerID, ticketNo), nil
	}

	if _, err := s.exec(ctx,
		"UPDATE ticket_flights SET flight_id = ? WHERE ticket_no = ?", newFlightID, ticketNo); err != nil {
		return "", err
	}
	return "Ticket successfully updated to new flight.", nil
}

// CancelTicket removes the passenger's ticket from its flight.
func (s *Store) CancelTicket(ctx context.Context, passengerID, ticketNo string) (string, error) {
	rows, err := s.queryRows(ctx,
		"SELECT flight_id FROM ticket_flights WHERE ticket_no = ?", ticketNo)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "No existing ticket found for the given ticket number.", nil
	}

	rows, err = s.queryRows(ctx,
		"SELECT ticket_no FROM tickets WHERE ticket_no = ? AND passenger_id = ?", ticketNo, passengerID)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Current signed-in passenger with ID %s not the owner of ticket %s", passengerID, ticketNo), nil
	}

	if _, err := s.exec(ctx,
		"DELETE FROM ticket_flights WHERE ticket_no = ?", ticketNo); err != nil {
		return "", err
	}
	return "Ticket successfully cancelled.", nil
}

// flightTools builds the flight tool definitions against the store.
func flightTools(s *Store) []*tools.Tool {
	return []*tools.Tool{
		{
			Name:        "fetch_user_flight_information",
			Description: "Fetch all tickets for the user along with corresponding flight information and seat assignments.",
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				passengerID, err := session.RequirePassengerID(ctx)
				if err != nil {
					return "", err
				}
				return s.FetchUserFlightInfo(ctx, passengerID)
			},
		},
		{
			Name:        "search_flights",
			Description: "Search for flights based on departure airport, arrival airport, and departure time range.",
			Schema: tools.Schema{
				Properties: map[string]tools.Property{
					"departure_airport": {Type: "string", Description: "Departure airport code."},
					"arrival_airport":   {Type: "string", Description: "Arrival airport code."},
					"start_time":        {Type: "string", Description: "Start of departure time window."},
					"end_time":          {Type: "string", Description: "End of departure time window."},
					"limit":             {Type: "integer", Description: "Max number of results."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				return s.SearchFlights(ctx,
					stringArg(args, "departure_airport"),
					stringArg(args, "arrival_airport"),
					stringArg(args, "start_time"),
					stringArg(args, "end_time"),
					intArgDefault(args, "limit", defaultSearchLimit))
			},
		},
		{
			Name:        "update_ticket_to_new_flight",
			Description: "Update the user's ticket to a new valid flight.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"ticket_no", "new_flight_id"},
				Properties: map[string]tools.Property{
					"ticket_no":     {Type: "string", Description: "Ticket number to update."},
					"new_flight_id": {Type: "integer", Description: "New flight ID to assign."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				passengerID, err := session.RequirePassengerID(ctx)
				if err != nil {
					return "", err
				}
				flightID, err := intArg(args, "new_flight_id")
				if err != nil {
					return "", err
				}
				return s.UpdateTicketToNewFlight(ctx, passengerID, stringArg(args, "ticket_no"), flightID)
			},
		},
		{
			Name:        "cancel_ticket",
			Description: "Cancel the user's ticket and remove it from the database.",
			Sensitive:   true,
			Schema: tools.Schema{
				Required: []string{"ticket_no"},
				Properties: map[string]tools.Property{
					"ticket_no": {Type: "string", Description: "Ticket number to cancel."},
				},
			},
			Execute: func(ctx context.Context, args map[string]any) (string, error) {
				passengerID, err := session.RequirePassengerID(ctx)
				if err != nil {
					return "", err
				}
				return s.CancelTicket(ctx, passengerID, stringArg(args, "ticket_no"))
			},
		},
	}
}
