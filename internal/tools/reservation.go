package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakura-ramen/voice-agent/internal/domain"
	"github.com/sakura-ramen/voice-agent/internal/matching"
	"github.com/sakura-ramen/voice-agent/internal/store"
)

// notFoundMessage is deliberately identical for "no such phone number"
// and "name does not match": a caller probing for reservations must not
// be able to tell which factor failed.
const notFoundMessage = "I couldn't find a reservation with those details. Please check your name and phone number."

// Toolset binds the reservation tools to a repository and restaurant
// identity. One Toolset serves all sessions; it holds no per-call state.
type Toolset struct {
	repo        store.Repository
	info        RestaurantInfo
	maxSeated   int
	maxDistance int
	log         *slog.Logger
	now         func() time.Time
}

// RestaurantInfo is the static identity read back by the info tools.
type RestaurantInfo struct {
	Name    string
	Phone   string
	Address string
}

// New builds a Toolset. maxSeated is the largest party the restaurant
// seats without a phone call to the manager.
func New(repo store.Repository, info RestaurantInfo, maxSeated int, log *slog.Logger) *Toolset {
	if log == nil {
		log = slog.Default()
	}
	return &Toolset{
		repo:        repo,
		info:        info,
		maxSeated:   maxSeated,
		maxDistance: matching.DefaultMaxDistance,
		log:         log,
		now:         time.Now,
	}
}

// verify loads the reservation for phone and checks the provided name
// against the stored one with fuzzy matching. Returns nil when either
// factor fails; the caller reports the generic not-found message.
func (t *Toolset) verify(ctx context.Context, phone, name string) *domain.Reservation {
	res, err := t.repo.GetReservation(ctx, FormatPhoneNumber(phone))
	if err != nil {
		t.log.Error("reservation lookup failed", "error", err)
		return nil
	}
	if res == nil {
		return nil
	}
	if !matching.SplitAndMatchNames(name, res.Name, t.maxDistance) {
		t.log.Info("name verification failed", "phone", res.PhoneNumber)
		return nil
	}
	return res
}

// CheckAvailability reports whether a party can be seated. There is no
// table inventory; any party within the seating cap is accepted and
// larger groups are referred to the restaurant's phone line.
func (t *Toolset) CheckAvailability() Tool {
	return Tool{
		Name:        "check_availability",
		Description: "Check if the restaurant can seat a party on a given date and time.",
		Parameters: objectSchema([]string{"reservation_date", "reservation_time", "party_size"}, map[string]any{
			"reservation_date": stringParam("Requested date in YYYY-MM-DD format."),
			"reservation_time": stringParam("Requested time in HH:MM format."),
			"party_size":       intParam("Number of guests."),
		}),
		Run: func(ctx context.Context, args Args) string {
			date := args.String("reservation_date")
			timeOfDay := args.String("reservation_time")
			size, ok := args.Int("party_size")
			if !ok || size < domain.MinPartySize {
				return "I need to know how many guests will be joining before I can check availability."
			}
			if size > t.maxSeated {
				return fmt.Sprintf("For parties larger than %d, please call us directly at %s so we can arrange seating.", t.maxSeated, t.info.Phone)
			}
			return fmt.Sprintf("Good news! We have availability for %d guests on %s at %s. Would you like me to make the reservation?", size, date, timeOfDay)
		},
	}
}

// MakeReservation creates a booking keyed by the formatted phone number.
func (t *Toolset) MakeReservation() Tool {
	return Tool{
		Name:        "make_reservation",
		Description: "Create a new reservation. Requires the guest's name, phone number, date, time and party size.",
		Parameters: objectSchema([]string{"name", "phone_number", "reservation_date", "reservation_time", "party_size"}, map[string]any{
			"name":             stringParam("Guest name for the reservation."),
			"phone_number":     stringParam("Guest phone number, used as the confirmation reference."),
			"reservation_date": stringParam("Date in YYYY-MM-DD format."),
			"reservation_time": stringParam("Time in HH:MM format."),
			"party_size":       intParam("Number of guests."),
			"special_requests": stringParam("Optional dietary needs or seating preferences."),
		}),
		Run: func(ctx context.Context, args Args) string {
			name := strings.TrimSpace(args.String("name"))
			phone := FormatPhoneNumber(args.String("phone_number"))
			date := args.String("reservation_date")
			timeOfDay := args.String("reservation_time")
			size, ok := args.Int("party_size")

			if name == "" || phone == "" || date == "" || timeOfDay == "" || !ok {
				return "I'm missing some details. I need a name, phone number, date, time and party size to make the reservation."
			}
			if size < domain.MinPartySize || size > domain.MaxPartySize {
				return fmt.Sprintf("I can only book parties of %d to %d guests. For larger groups, please call us at %s.", domain.MinPartySize, domain.MaxPartySize, t.info.Phone)
			}

			res := &domain.Reservation{
				PhoneNumber:     phone,
				Name:            name,
				ReservationDate: date,
				ReservationTime: timeOfDay,
				PartySize:       size,
			}
			if sr := args.String("special_requests"); sr != "" {
				res.SetSpecialRequests(sr)
			}

			if err := t.repo.CreateReservation(ctx, res); err != nil {
				if err == store.ErrAlreadyExists {
					return fmt.Sprintf("There is already a reservation under %s. Would you like to modify or cancel it instead?", phone)
				}
				t.log.Error("create reservation failed", "error", err)
				return "I'm sorry, I'm having trouble making the reservation right now. Please try again in a moment."
			}

			msg := fmt.Sprintf("Your reservation is confirmed! %s, party of %d on %s at %s. Your confirmation reference is your phone number: %s.",
				name, size, date, timeOfDay, phone)
			if sr := res.SpecialRequests(); sr != "" {
				msg += " We've noted: " + sr + "."
			}
			return msg
		},
	}
}

// LookupReservation retrieves a booking by phone number alone. Reading
// back details is single-factor; changing them requires the name too.
func (t *Toolset) LookupReservation() Tool {
	return Tool{
		Name:        "lookup_reservation",
		Description: "Look up an existing reservation by phone number.",
		Parameters: objectSchema([]string{"phone_number"}, map[string]any{
			"phone_number": stringParam("Phone number the reservation was made under."),
		}),
		Run: func(ctx context.Context, args Args) string {
			phone := FormatPhoneNumber(args.String("phone_number"))
			res, err := t.repo.GetReservation(ctx, phone)
			if err != nil {
				t.log.Error("reservation lookup failed", "error", err)
				return "I'm sorry, I'm having trouble looking that up right now. Please try again in a moment."
			}
			if res == nil {
				return fmt.Sprintf("I couldn't find a reservation under %s. Would you like to make one?", phone)
			}

			msg := fmt.Sprintf("I found your reservation: %s, party of %d on %s at %s.",
				res.Name, res.PartySize, res.ReservationDate, res.ReservationTime)
			if sr := res.SpecialRequests(); sr != "" {
				msg += " Special requests: " + sr + "."
			}
			return msg
		},
	}
}

// ModifyReservation changes an existing booking after two-factor
// verification (phone number plus fuzzy name match).
func (t *Toolset) ModifyReservation() Tool {
	return Tool{
		Name:        "modify_reservation",
		Description: "Change the date, time, party size or special requests of an existing reservation. Requires the guest's name and phone number for verification.",
		Parameters: objectSchema([]string{"phone_number", "name"}, map[string]any{
			"phone_number":         stringParam("Phone number the reservation was made under."),
			"name":                 stringParam("Guest name, for verification."),
			"new_date":             stringParam("New date in YYYY-MM-DD format, if changing."),
			"new_time":             stringParam("New time in HH:MM format, if changing."),
			"new_party_size":       intParam("New number of guests, if changing."),
			"new_special_requests": stringParam("New special requests, if changing."),
		}),
		Run: func(ctx context.Context, args Args) string {
			res := t.verify(ctx, args.String("phone_number"), args.String("name"))
			if res == nil {
				return notFoundMessage
			}

			upd := &domain.ReservationUpdate{}
			if d := args.String("new_date"); d != "" {
				upd.ReservationDate = &d
			}
			if tm := args.String("new_time"); tm != "" {
				upd.ReservationTime = &tm
			}
			if size, ok := args.Int("new_party_size"); ok {
				if size < domain.MinPartySize || size > domain.MaxPartySize {
					return fmt.Sprintf("I can only book parties of %d to %d guests. For larger groups, please call us at %s.", domain.MinPartySize, domain.MaxPartySize, t.info.Phone)
				}
				upd.PartySize = &size
			}
			if sr := args.String("new_special_requests"); sr != "" {
				other := res.OtherInfo
				if other == nil {
					other = make(map[string]any)
				}
				other["special_requests"] = sr
				upd.OtherInfo = other
			}

			if upd.Empty() {
				return "No changes were specified. Your reservation remains as is."
			}

			if err := t.repo.UpdateReservation(ctx, res.PhoneNumber, upd); err != nil {
				if err == store.ErrNotFound {
					return notFoundMessage
				}
				t.log.Error("update reservation failed", "error", err)
				return "I'm sorry, I'm having trouble updating the reservation right now. Please try again in a moment."
			}

			updated, err := t.repo.GetReservation(ctx, res.PhoneNumber)
			if err != nil || updated == nil {
				return "Your reservation has been updated."
			}
			return fmt.Sprintf("Your reservation has been updated: %s, party of %d on %s at %s.",
				updated.Name, updated.PartySize, updated.ReservationDate, updated.ReservationTime)
		},
	}
}

// DeleteReservation cancels a booking after two-factor verification.
// Cancelling is idempotent from the guest's point of view: a second
// attempt gets the same generic not-found message.
func (t *Toolset) DeleteReservation() Tool {
	return Tool{
		Name:        "delete_reservation",
		Description: "Cancel an existing reservation. Requires the guest's name and phone number for verification.",
		Parameters: objectSchema([]string{"phone_number", "name"}, map[string]any{
			"phone_number": stringParam("Phone number the reservation was made under."),
			"name":         stringParam("Guest name, for verification."),
		}),
		Run: func(ctx context.Context, args Args) string {
			res := t.verify(ctx, args.String("phone_number"), args.String("name"))
			if res == nil {
				return notFoundMessage
			}

			if err := t.repo.DeleteReservation(ctx, res.PhoneNumber); err != nil {
				if err == store.ErrNotFound {
					return notFoundMessage
				}
				t.log.Error("delete reservation failed", "error", err)
				return "I'm sorry, I'm having trouble cancelling the reservation right now. Please try again in a moment."
			}

			return fmt.Sprintf("Your reservation for %s on %s at %s has been cancelled. We hope to see you another time!",
				res.Name, res.ReservationDate, res.ReservationTime)
		},
	}
}
