package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sakura-ramen/voice-agent/internal/domain"
	"github.com/sakura-ramen/voice-agent/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS reservations (
		phone_number TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		reservation_date TEXT NOT NULL,
		reservation_time TEXT NOT NULL,
		party_size INTEGER NOT NULL,
		other_info TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(reservation_date, reservation_time);
	CREATE INDEX IF NOT EXISTS idx_reservations_name ON reservations(name);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetReservation retrieves a reservation by phone number.
func (s *SQLiteStore) GetReservation(ctx context.Context, phone string) (*domain.Reservation, error) {
	query := `
		SELECT phone_number, name, reservation_date, reservation_time,
		       party_size, other_info, created_at, updated_at
		FROM reservations WHERE phone_number = ?`

	row := s.db.QueryRowContext(ctx, query, phone)

	res, err := scanReservation(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan reservation row: %w", err)
	}
	return res, nil
}

// CreateReservation persists a new reservation.
func (s *SQLiteStore) CreateReservation(ctx context.Context, res *domain.Reservation) error {
	otherInfo, err := marshalOtherInfo(res.OtherInfo)
	if err != nil {
		return err
	}

	now := time.Now()
	query := `
		INSERT INTO reservations (phone_number, name, reservation_date,
			reservation_time, party_size, other_info, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		res.PhoneNumber, res.Name, res.ReservationDate, res.ReservationTime,
		res.PartySize, otherInfo, now.Unix(), now.Unix(),
	)
	if err != nil {
		if shared.IsSQLiteConstraintError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert reservation: %w", err)
	}

	res.CreatedAt = now
	res.UpdatedAt = now
	return nil
}

// UpdateReservation applies a partial update in a single UPDATE statement.
// Only the provided fields are written; the row's atomicity is the only
// locking needed since each mutation targets one phone-number row.
func (s *SQLiteStore) UpdateReservation(ctx context.Context, phone string, upd *domain.ReservationUpdate) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	if upd.ReservationDate != nil {
		sets = append(sets, "reservation_date = ?")
		args = append(args, *upd.ReservationDate)
	}
	if upd.ReservationTime != nil {
		sets = append(sets, "reservation_time = ?")
		args = append(args, *upd.ReservationTime)
	}
	if upd.PartySize != nil {
		sets = append(sets, "party_size = ?")
		args = append(args, *upd.PartySize)
	}
	if upd.OtherInfo != nil {
		otherInfo, err := marshalOtherInfo(upd.OtherInfo)
		if err != nil {
			return err
		}
		sets = append(sets, "other_info = ?")
		args = append(args, otherInfo)
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), phone)

	query := "UPDATE reservations SET " + strings.Join(sets, ", ") + " WHERE phone_number = ?"
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReservation removes the reservation keyed by phone.
func (s *SQLiteStore) DeleteReservation(ctx context.Context, phone string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE phone_number = ?`, phone)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListReservations returns all reservations ordered by date and time.
func (s *SQLiteStore) ListReservations(ctx context.Context) ([]*domain.Reservation, error) {
	query := `
		SELECT phone_number, name, reservation_date, reservation_time,
		       party_size, other_info, created_at, updated_at
		FROM reservations ORDER BY reservation_date, reservation_time`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close reservation rows", "error", closeErr)
		}
	}()

	var reservations []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return reservations, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func scanReservation(scan func(dest ...any) error) (*domain.Reservation, error) {
	var res domain.Reservation
	var otherInfo sql.NullString
	var createdAt, updatedAt int64

	err := scan(
		&res.PhoneNumber, &res.Name, &res.ReservationDate, &res.ReservationTime,
		&res.PartySize, &otherInfo, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if otherInfo.Valid && otherInfo.String != "" {
		if err := json.Unmarshal([]byte(otherInfo.String), &res.OtherInfo); err != nil {
			return nil, fmt.Errorf("decode other_info: %w", err)
		}
	}
	res.CreatedAt = time.Unix(createdAt, 0)
	res.UpdatedAt = time.Unix(updatedAt, 0)
	return &res, nil
}

func marshalOtherInfo(info map[string]any) (any, error) {
	if info == nil {
		return nil, nil
	}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encode other_info: %w", err)
	}
	return string(data), nil
}
