// Package domain defines the core data types shared across the service.
package domain

import (
	"time"
)

// Reservation is a single table booking. The phone number is the primary
// key: one active reservation per caller, and it doubles as the
// confirmation reference read back to the guest.
type Reservation struct {
	PhoneNumber     string         `json:"phone_number"`
	Name            string         `json:"name"`
	ReservationDate string         `json:"reservation_date"` // YYYY-MM-DD
	ReservationTime string         `json:"reservation_time"` // HH:MM
	PartySize       int            `json:"party_size"`
	OtherInfo       map[string]any `json:"other_info,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// SpecialRequests returns the special_requests entry from OtherInfo, if any.
func (r *Reservation) SpecialRequests() string {
	if r.OtherInfo == nil {
		return ""
	}
	if s, ok := r.OtherInfo["special_requests"].(string); ok {
		return s
	}
	return ""
}

// SetSpecialRequests stores a special_requests entry in OtherInfo.
func (r *Reservation) SetSpecialRequests(s string) {
	if r.OtherInfo == nil {
		r.OtherInfo = make(map[string]any)
	}
	r.OtherInfo["special_requests"] = s
}

// ReservationUpdate carries a partial update. Nil fields are left untouched.
type ReservationUpdate struct {
	ReservationDate *string        `json:"reservation_date,omitempty"`
	ReservationTime *string        `json:"reservation_time,omitempty"`
	PartySize       *int           `json:"party_size,omitempty"`
	OtherInfo       map[string]any `json:"other_info,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u *ReservationUpdate) Empty() bool {
	return u.ReservationDate == nil && u.ReservationTime == nil &&
		u.PartySize == nil && u.OtherInfo == nil
}

// MinPartySize and MaxPartySize bound what the store will accept.
const (
	MinPartySize = 1
	MaxPartySize = 20
)
