// Package travel implements the booking database and the CRUD tools
// the assistants call against it: flights and tickets, car rentals,
// hotels, and trip recommendations.
package travel

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"concierge/internal/logging"
)

// TimeLayout is the canonical timestamp format stored in the database.
const TimeLayout = "2006-01-02 15:04:05.000000-07:00"

// parseLayouts are accepted when reading timestamps back. Older dumps
// carry second precision or no offset.
var parseLayouts = []string{
	TimeLayout,
	"2006-01-02 15:04:05.000000-0700",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a stored timestamp, trying each accepted layout.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Store wraps the travel SQLite database.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open opens (or creates) the database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous: %v", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Init creates the schema and loads the sample dataset. Existing
// tables are dropped first so init is repeatable.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := logging.StartTimer(logging.CategoryStore, "Init")
	defer timer.Stop()

	drops := []string{
		"DROP TABLE IF EXISTS boarding_passes",
		"DROP TABLE IF EXISTS ticket_flights",
		"DROP TABLE IF EXISTS tickets",
		"DROP TABLE IF EXISTS flights",
		"DROP TABLE IF EXISTS car_rentals",
		"DROP TABLE IF EXISTS hotels",
		"DROP TABLE IF EXISTS trip_recommendations",
	}
	for _, stmt := range drops {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}

	schema := []string{
		`CREATE TABLE flights (
			flight_id INTEGER PRIMARY KEY,
			flight_no TEXT NOT NULL,
			departure_airport TEXT NOT NULL,
			arrival_airport TEXT NOT NULL,
			scheduled_departure TEXT NOT NULL,
			scheduled_arrival TEXT NOT NULL,
			actual_departure TEXT,
			actual_arrival TEXT
		)`,
		`CREATE TABLE tickets (
			ticket_no TEXT PRIMARY KEY,
			book_ref TEXT NOT NULL,
			passenger_id TEXT NOT NULL
		)`,
		`CREATE TABLE ticket_flights (
			ticket_no TEXT NOT NULL,
			flight_id INTEGER NOT NULL,
			fare_conditions TEXT NOT NULL,
			PRIMARY KEY (ticket_no, flight_id)
		)`,
		`CREATE TABLE boarding_passes (
			ticket_no TEXT NOT NULL,
			flight_id INTEGER NOT NULL,
			seat_no TEXT NOT NULL,
			PRIMARY KEY (ticket_no, flight_id)
		)`,
		`CREATE TABLE car_rentals (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT NOT NULL,
			price_tier TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			booked INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE hotels (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT NOT NULL,
			price_tier TEXT NOT NULL,
			checkin_date TEXT NOT NULL,
			checkout_date TEXT NOT NULL,
			booked INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE trip_recommendations (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT NOT NULL,
			keywords TEXT NOT NULL,
			details TEXT NOT NULL,
			booked INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX idx_tickets_passenger ON tickets(passenger_id)`,
		`CREATE INDEX idx_flights_route ON flights(departure_airport, arrival_airport)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if err := s.seed(ctx); err != nil {
		return err
	}

	logging.Store("Initialized travel database at %s", s.path)
	return nil
}

// seed loads the sample dataset. Flight times are relative to now so
// the data is immediately usable.
func (s *Store) seed(ctx context.Context) error {
	now := time.Now()
	at := func(d time.Duration) string { return now.Add(d).Format(TimeLayout) }

	type flight struct {
		id                 int
		no, from, to       string
		departure, arrival string
	}
	flights := []flight{
		{1, "LX0112", "CDG", "BSL", at(26 * time.Hour), at(27 * time.Hour)},
		{2, "LX0113", "BSL", "CDG", at(50 * time.Hour), at(51 * time.Hour)},
		{3, "LX0038", "ZRH", "JFK", at(74 * time.Hour), at(83 * time.Hour)},
		{4, "LX0039", "JFK", "ZRH", at(170 * time.Hour), at(178 * time.Hour)},
		{5, "LX0451", "ZRH", "BSL", at(2 * time.Hour), at(3 * time.Hour)},
		{6, "LX1611", "GVA", "ZRH", at(98 * time.Hour), at(99 * time.Hour)},
	}
	for _, f := range flights {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO flights (flight_id, flight_no, departure_airport, arrival_airport, scheduled_departure, scheduled_arrival)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			f.id, f.no, f.from, f.to, f.departure, f.arrival); err != nil {
			return fmt.Errorf("failed to seed flights: %w", err)
		}
	}

	seedRows := []struct {
		stmt string
		rows [][]any
	}{
		{
			`INSERT INTO tickets (ticket_no, book_ref, passenger_id) VALUES (?, ?, ?)`,
			[][]any{
				{"7240005432906569", "C46E9F", "3442 587242"},
				{"7240005432906570", "A1B2C3", "8149 604011"},
			},
		},
		{
			`INSERT INTO ticket_flights (ticket_no, flight_id, fare_conditions) VALUES (?, ?, ?)`,
			[][]any{
				{"7240005432906569", 1, "Economy"},
				{"7240005432906570", 3, "Business"},
			},
		},
		{
			`INSERT INTO boarding_passes (ticket_no, flight_id, seat_no) VALUES (?, ?, ?)`,
			[][]any{
				{"7240005432906569", 1, "18B"},
				{"7240005432906570", 3, "3A"},
			},
		},
		{
			`INSERT INTO car_rentals (id, name, location, price_tier, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?)`,
			[][]any{
				{1, "Europcar", "Basel", "Economy", at(24 * time.Hour), at(96 * time.Hour)},
				{2, "Avis", "Basel", "Luxury", at(24 * time.Hour), at(96 * time.Hour)},
				{3, "Hertz", "Zurich", "Midsize", at(48 * time.Hour), at(120 * time.Hour)},
				{4, "Sixt", "Geneva", "Economy", at(72 * time.Hour), at(144 * time.Hour)},
			},
		},
		{
			`INSERT INTO hotels (id, name, location, price_tier, checkin_date, checkout_date) VALUES (?, ?, ?, ?, ?, ?)`,
			[][]any{
				{1, "Hilton Basel", "Basel", "Luxury", at(24 * time.Hour), at(96 * time.Hour)},
				{2, "Marriott Zurich", "Zurich", "Upscale", at(48 * time.Hour), at(120 * time.Hour)},
				{3, "Hyatt Regency Basel", "Basel", "Upper Upscale", at(24 * time.Hour), at(96 * time.Hour)},
				{4, "Radisson Blu Lucerne", "Lucerne", "Midscale", at(72 * time.Hour), at(144 * time.Hour)},
				{5, "Best Western Bern", "Bern", "Upper Midscale", at(96 * time.Hour), at(168 * time.Hour)},
			},
		},
		{
			`INSERT INTO trip_recommendations (id, name, location, keywords, details) VALUES (?, ?, ?, ?, ?)`,
			[][]any{
				{1, "Basel Minster Tour", "Basel", "sightseeing, history, architecture", "Guided tour of the Basel Minster and old town."},
				{2, "Rhine River Cruise", "Basel", "boat, river, scenic", "Scenic cruise along the Rhine with dinner options."},
				{3, "Lake Zurich Promenade", "Zurich", "walking, lake, scenic", "Lakeside walk with mountain views."},
				{4, "Uetliberg Hike", "Zurich", "hiking, nature, views", "Half-day hike up Zurich's local mountain."},
				{5, "Old Town Food Tour", "Geneva", "food, culture, walking", "Tasting tour through Geneva's old town."},
			},
		},
	}
	for _, group := range seedRows {
		for _, row := range group.rows {
			if _, err := s.db.ExecContext(ctx, group.stmt, row...); err != nil {
				return fmt.Errorf("failed to seed data: %w", err)
			}
		}
	}
	return nil
}

// dateColumns lists, per table, the columns holding timestamps that
// ShiftDates rewrites.
var dateColumns = map[string][]string{
	"flights":     {"scheduled_departure", "scheduled_arrival", "actual_departure", "actual_arrival"},
	"car_rentals": {"start_date", "end_date"},
	"hotels":      {"checkin_date", "checkout_date"},
}

// ShiftDates moves every timestamp in the database forward so the
// latest scheduled departure aligns with the current time. Stale
// sample data becomes current again without changing its shape.
func (s *Store) ShiftDates(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(scheduled_departure) FROM flights").Scan(&latest)
	if err != nil {
		return fmt.Errorf("failed to read latest departure: %w", err)
	}
	if !latest.Valid || latest.String == "" {
		return nil
	}
	anchor, err := ParseTime(latest.String)
	if err != nil {
		return err
	}
	diff := time.Since(anchor)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for table, cols := range dateColumns {
		for _, col := range cols {
			if err := shiftColumn(ctx, tx, table, col, diff); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit date shift: %w", err)
	}
	logging.Store("Shifted dates forward by %v", diff.Round(time.Second))
	return nil
}

func shiftColumn(ctx context.Context, tx *sql.Tx, table, col string, diff time.Duration) error {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf("SELECT rowid, %s FROM %s WHERE %s IS NOT NULL", col, table, col))
	if err != nil {
		return fmt.Errorf("failed to read %s.%s: %w", table, col, err)
	}
	type update struct {
		rowid int64
		value string
	}
	var updates []update
	for rows.Next() {
		var rowid int64
		var value string
		if err := rows.Scan(&rowid, &value); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan %s.%s: %w", table, col, err)
		}
		t, err := ParseTime(value)
		if err != nil {
			// Non-timestamp values pass through untouched.
			continue
		}
		updates = append(updates, update{rowid, t.Add(diff).Format(TimeLayout)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate %s.%s: %w", table, col, err)
	}
	rows.Close()

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET %s = ? WHERE rowid = ?", table, col),
			u.value, u.rowid); err != nil {
			return fmt.Errorf("failed to update %s.%s: %w", table, col, err)
		}
	}
	return nil
}

// queryRows runs a query and returns each row as a column-keyed map,
// mirroring how the search tools present results.
func (s *Store) queryRows(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// exec runs a statement and returns the number of affected rows.
func (s *Store) exec(ctx context.Context, query string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec failed: %w", err)
	}
	return res.RowsAffected()
}
