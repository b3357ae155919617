package travel

import (
	"concierge/internal/retrieval"
	"concierge/internal/tools"
)

// Per-assistant tool name lists. The dispatcher gets read-only tools;
// each specialist gets its domain's search plus booking mutations.
var (
	DispatcherToolNames = []string{
		"lookup_policy",
		"search_flights",
		"fetch_user_flight_information",
	}
	FlightToolNames = []string{
		"search_flights",
		"fetch_user_flight_information",
		"update_ticket_to_new_flight",
		"cancel_ticket",
	}
	CarRentalToolNames = []string{
		"search_car_rentals",
		"book_car_rental",
		"update_car_rental",
		"cancel_car_rental",
	}
	HotelToolNames = []string{
		"search_hotels",
		"book_hotel",
		"update_hotel",
		"cancel_hotel",
	}
	ExcursionToolNames = []string{
		"search_trip_recommendations",
		"book_excursion",
		"update_excursion",
		"cancel_excursion",
	}
)

// RegisterAll registers every travel tool plus the policy lookup into
// the registry.
func RegisterAll(reg *tools.Registry, store *Store, policies *retrieval.Index) error {
	all := [][]*tools.Tool{
		flightTools(store),
		carRentalTools(store),
		hotelTools(store),
		excursionTools(store),
		{policyTool(policies)},
	}
	for _, group := range all {
		for _, tool := range group {
			if err := reg.Register(tool); err != nil {
				return err
			}
		}
	}
	return nil
}
