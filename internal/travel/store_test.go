package travel

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"concierge/internal/session"
	"concierge/internal/tools"
)

const testPassenger = "3442 587242"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "travel.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Init(context.Background()))
	return store
}

func sessionCtx() context.Context {
	return session.WithConfig(context.Background(), session.Config{
		PassengerID: testPassenger,
		ThreadID:    "test-thread",
	})
}

func TestInitIsRepeatable(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Init(context.Background()))
}

func TestFetchUserFlightInfo(t *testing.T) {
	store := newTestStore(t)

	out, err := store.FetchUserFlightInfo(context.Background(), testPassenger)
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "7240005432906569", rows[0]["ticket_no"])
	require.Equal(t, "LX0112", rows[0]["flight_no"])
	require.Equal(t, "18B", rows[0]["seat_no"])
}

func TestFetchUserFlightInfoUnknownPassenger(t *testing.T) {
	store := newTestStore(t)

	out, err := store.FetchUserFlightInfo(context.Background(), "0000 000000")
	require.NoError(t, err)
	require.Equal(t, "[]", out)
}

func TestSearchFlights(t *testing.T) {
	store := newTestStore(t)

	out, err := store.SearchFlights(context.Background(), "CDG", "BSL", "", "", 0)
	require.NoError(t, err)
	require.Contains(t, out, "Flight LX0112 from CDG to BSL departs at")

	out, err = store.SearchFlights(context.Background(), "XXX", "", "", "", 0)
	require.NoError(t, err)
	require.Equal(t, "No flights found for the given criteria.", out)
}

func TestSearchFlightsTimeWindow(t *testing.T) {
	store := newTestStore(t)

	start := time.Now().Add(40 * time.Hour).Format(TimeLayout)
	end := time.Now().Add(60 * time.Hour).Format(TimeLayout)
	out, err := store.SearchFlights(context.Background(), "", "", start, end, 0)
	require.NoError(t, err)
	require.Contains(t, out, "LX0113")
	require.NotContains(t, out, "LX0112")
}

func TestUpdateTicketToNewFlight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out, err := store.UpdateTicketToNewFlight(ctx, testPassenger, "7240005432906569", 2)
	require.NoError(t, err)
	require.Equal(t, "Ticket successfully updated to new flight.", out)

	info, err := store.FetchUserFlightInfo(ctx, testPassenger)
	require.NoError(t, err)
	require.NotContains(t, info, "LX0112")
}

func TestUpdateTicketRejectsImminentFlight(t *testing.T) {
	store := newTestStore(t)

	// Flight 5 departs in under three hours.
	out, err := store.UpdateTicketToNewFlight(context.Background(), testPassenger, "7240005432906569", 5)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Not permitted to reschedule to a flight that is less than 3 hours"), out)
}

func TestUpdateTicketInvalidFlight(t *testing.T) {
	store := newTestStore(t)

	out, err := store.UpdateTicketToNewFlight(context.Background(), testPassenger, "7240005432906569", 999)
	require.NoError(t, err)
	require.Equal(t, "Invalid new flight ID provided.", out)
}

func TestUpdateTicketUnknownTicket(t *testing.T) {
	store := newTestStore(t)

	out, err := store.UpdateTicketToNewFlight(context.Background(), testPassenger, "0000000000000000", 2)
	require.NoError(t, err)
	require.Equal(t, "No existing ticket found for the given ticket number.", out)
}

func TestUpdateTicketRejectsNonOwner(t *testing.T) {
	store := newTestStore(t)

	out, err := store.UpdateTicketToNewFlight(context.Background(), testPassenger, "7240005432906570", 2)
	require.NoError(t, err)
	require.Equal(t,
		"Current signed-in passenger with ID 3442 587242 not the owner of ticket 7240005432906570", out)
}

func TestCancelTicket(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out, err := store.CancelTicket(ctx, testPassenger, "7240005432906569")
	require.NoError(t, err)
	require.Equal(t, "Ticket successfully cancelled.", out)

	out, err = store.CancelTicket(ctx, testPassenger, "7240005432906569")
	require.NoError(t, err)
	require.Equal(t, "No existing ticket found for the given ticket number.", out)
}

func TestCancelTicketRejectsNonOwner(t *testing.T) {
	store := newTestStore(t)

	out, err := store.CancelTicket(context.Background(), testPassenger, "7240005432906570")
	require.NoError(t, err)
	require.Contains(t, out, "not the owner of ticket")
}

func TestHotelLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out, err := store.SearchHotels(ctx, "Basel", "")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	out, err = store.BookHotel(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Hotel 1 successfully booked.", out)

	out, err = store.UpdateHotel(ctx, 1, "2026-09-10", "2026-09-14")
	require.NoError(t, err)
	require.Equal(t, "Hotel 1 successfully updated.", out)

	out, err = store.CancelHotel(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Hotel 1 successfully cancelled.", out)

	out, err = store.BookHotel(ctx, 99)
	require.NoError(t, err)
	require.Equal(t, "No hotel found with ID 99.", out)
}

func TestCarRentalLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out, err := store.SearchCarRentals(ctx, "Basel", "")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	out, err = store.BookCarRental(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Car rental 1 successfully booked.", out)

	out, err = store.CancelCarRental(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Car rental 1 successfully cancelled.", out)

	out, err = store.UpdateCarRental(ctx, 99, "2026-09-10", "")
	require.NoError(t, err)
	require.Equal(t, "No car rental found with ID 99.", out)
}

func TestTripRecommendationKeywordSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out, err := store.SearchTripRecommendations(ctx, "", "", "hiking, boat")
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	out, err = store.SearchTripRecommendations(ctx, "Basel", "", "")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)

	out, err = store.SearchTripRecommendations(ctx, "Oslo", "", "")
	require.NoError(t, err)
	require.Equal(t, "[]", out)
}

func TestExcursionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out, err := store.BookExcursion(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Trip recommendation 1 successfully booked.", out)

	out, err = store.UpdateExcursion(ctx, 1, "Private evening tour.")
	require.NoError(t, err)
	require.Equal(t, "Trip recommendation 1 successfully updated.", out)

	out, err = store.CancelExcursion(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Trip recommendation 1 successfully cancelled.", out)

	out, err = store.CancelExcursion(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "No trip recommendation found with ID 42.", out)
}

func TestShiftDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Rewind every flight by 30 days to simulate a stale dataset.
	rows, err := store.queryRows(ctx, "SELECT flight_id, scheduled_departure FROM flights")
	require.NoError(t, err)
	for _, row := range rows {
		dep, err := ParseTime(row["scheduled_departure"].(string))
		require.NoError(t, err)
		_, err = store.exec(ctx,
			"UPDATE flights SET scheduled_departure = ? WHERE flight_id = ?",
			dep.Add(-30*24*time.Hour).Format(TimeLayout), row["flight_id"])
		require.NoError(t, err)
	}

	require.NoError(t, store.ShiftDates(ctx))

	rows, err = store.queryRows(ctx, "SELECT MAX(scheduled_departure) AS latest FROM flights")
	require.NoError(t, err)
	latest, err := ParseTime(rows[0]["latest"].(string))
	require.NoError(t, err)
	require.InDelta(t, 0, time.Since(latest).Minutes(), 5)
}

func TestFlightToolsRequireIdentity(t *testing.T) {
	store := newTestStore(t)
	reg := tools.NewRegistry()
	for _, tool := range flightTools(store) {
		reg.MustRegister(tool)
	}

	_, err := reg.Execute(context.Background(), "cancel_ticket",
		map[string]any{"ticket_no": "7240005432906569"})
	require.Error(t, err)

	result, err := reg.Execute(sessionCtx(), "cancel_ticket",
		map[string]any{"ticket_no": "7240005432906569"})
	require.NoError(t, err)
	require.Equal(t, "Ticket successfully cancelled.", result.Output)
}

func TestRegisterAllPartitionsSensitiveTools(t *testing.T) {
	store := newTestStore(t)
	reg := tools.NewRegistry()
	require.NoError(t, RegisterAll(reg, store, emptyPolicyIndex(t)))

	require.Equal(t, 17, reg.Count())

	sensitive := []string{
		"update_ticket_to_new_flight", "cancel_ticket",
		"book_car_rental", "update_car_rental", "cancel_car_rental",
		"book_hotel", "update_hotel", "cancel_hotel",
		"book_excursion", "update_excursion", "cancel_excursion",
	}
	for _, name := range sensitive {
		require.True(t, reg.IsSensitive(name), name)
	}
	safe := []string{
		"lookup_policy", "fetch_user_flight_information", "search_flights",
		"search_car_rentals", "search_hotels", "search_trip_recommendations",
	}
	for _, name := range safe {
		require.True(t, reg.Has(name), name)
		require.False(t, reg.IsSensitive(name), name)
	}
}
