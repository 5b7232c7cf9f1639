// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/sakura-ramen/voice-agent/internal/domain"
)

// ErrAlreadyExists is returned when creating a reservation for a phone
// number that already has one.
var ErrAlreadyExists = errors.New("reservation already exists for this phone number")

// ErrNotFound is returned when no reservation exists for a phone number.
var ErrNotFound = errors.New("reservation not found")

// Repository defines the interface for persisting reservations.
// It is the only resource shared across voice sessions; every mutation
// targets a single phone-number row, so no cross-row transactions exist.
type Repository interface {
	// GetReservation retrieves a reservation by phone number.
	// Returns nil, nil if no reservation exists.
	GetReservation(ctx context.Context, phone string) (*domain.Reservation, error)

	// CreateReservation persists a new reservation.
	// Returns ErrAlreadyExists if the phone number is already booked.
	CreateReservation(ctx context.Context, res *domain.Reservation) error

	// UpdateReservation applies a partial update to the reservation keyed
	// by phone. Only non-nil fields of upd are written, in a single UPDATE.
	// Returns ErrNotFound if no reservation exists.
	UpdateReservation(ctx context.Context, phone string, upd *domain.ReservationUpdate) error

	// DeleteReservation removes the reservation keyed by phone.
	// Returns ErrNotFound if no reservation exists.
	DeleteReservation(ctx context.Context, phone string) error

	// ListReservations returns all reservations ordered by date and time.
	ListReservations(ctx context.Context) ([]*domain.Reservation, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
