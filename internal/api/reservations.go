package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakura-ramen/voice-agent/internal/domain"
	"github.com/sakura-ramen/voice-agent/internal/matching"
	"github.com/sakura-ramen/voice-agent/internal/store"
	"github.com/sakura-ramen/voice-agent/internal/tools"
)

// notFoundError is the body for both "no such reservation" and "name
// mismatch". Mutating endpoints must not reveal which factor failed.
const notFoundError = "reservation not found"

type createReservationRequest struct {
	Name            string         `json:"name"`
	PhoneNumber     string         `json:"phone_number"`
	ReservationDate string         `json:"reservation_date"`
	ReservationTime string         `json:"reservation_time"`
	PartySize       int            `json:"party_size"`
	OtherInfo       map[string]any `json:"other_info,omitempty"`
}

type updateReservationRequest struct {
	Name            string         `json:"name"` // verification factor, not a change
	ReservationDate *string        `json:"reservation_date,omitempty"`
	ReservationTime *string        `json:"reservation_time,omitempty"`
	PartySize       *int           `json:"party_size,omitempty"`
	OtherInfo       map[string]any `json:"other_info,omitempty"`
}

// ListReservations handles GET /api/reservations.
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.repo.ListReservations(r.Context())
	if err != nil {
		slog.Error("list reservations failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	JSON(w, http.StatusOK, map[string]any{
		"reservations": reservations,
		"count":        len(reservations),
	})
}

// CreateReservation handles POST /api/reservations.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PhoneNumber == "" || req.ReservationDate == "" || req.ReservationTime == "" {
		Error(w, http.StatusBadRequest, "name, phone_number, reservation_date and reservation_time are required")
		return
	}
	if req.PartySize < domain.MinPartySize || req.PartySize > domain.MaxPartySize {
		Error(w, http.StatusBadRequest, "party_size out of range")
		return
	}

	res := &domain.Reservation{
		PhoneNumber:     tools.FormatPhoneNumber(req.PhoneNumber),
		Name:            req.Name,
		ReservationDate: req.ReservationDate,
		ReservationTime: req.ReservationTime,
		PartySize:       req.PartySize,
		OtherInfo:       req.OtherInfo,
	}

	if err := h.repo.CreateReservation(r.Context(), res); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			Error(w, http.StatusConflict, "a reservation already exists for this phone number")
			return
		}
		slog.Error("create reservation failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create reservation")
		return
	}

	JSON(w, http.StatusCreated, res)
}

// GetReservation handles GET /api/reservations/{phone}. Reads are
// single-factor, matching the voice lookup tool.
func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	phone := tools.FormatPhoneNumber(chi.URLParam(r, "phone"))

	res, err := h.repo.GetReservation(r.Context(), phone)
	if err != nil {
		slog.Error("get reservation failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get reservation")
		return
	}
	if res == nil {
		Error(w, http.StatusNotFound, notFoundError)
		return
	}
	JSON(w, http.StatusOK, res)
}

// UpdateReservation handles PUT /api/reservations/{phone}. The body
// must carry the guest's name; it is verified fuzzily against the
// stored one before anything changes.
func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	phone := tools.FormatPhoneNumber(chi.URLParam(r, "phone"))

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required for verification")
		return
	}
	if req.PartySize != nil && (*req.PartySize < domain.MinPartySize || *req.PartySize > domain.MaxPartySize) {
		Error(w, http.StatusBadRequest, "party_size out of range")
		return
	}

	res := h.verifiedReservation(w, r, phone, req.Name)
	if res == nil {
		return
	}

	upd := &domain.ReservationUpdate{
		ReservationDate: req.ReservationDate,
		ReservationTime: req.ReservationTime,
		PartySize:       req.PartySize,
		OtherInfo:       req.OtherInfo,
	}
	if upd.Empty() {
		Error(w, http.StatusBadRequest, "no changes specified")
		return
	}

	if err := h.repo.UpdateReservation(r.Context(), phone, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, notFoundError)
			return
		}
		slog.Error("update reservation failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to update reservation")
		return
	}

	updated, err := h.repo.GetReservation(r.Context(), phone)
	if err != nil || updated == nil {
		slog.Error("reload after update failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to load updated reservation")
		return
	}
	JSON(w, http.StatusOK, updated)
}

// DeleteReservation handles DELETE /api/reservations/{phone}?name=...
// with the same two-factor verification as the voice cancel tool.
func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	phone := tools.FormatPhoneNumber(chi.URLParam(r, "phone"))
	name := r.URL.Query().Get("name")
	if name == "" {
		Error(w, http.StatusBadRequest, "name query parameter is required for verification")
		return
	}

	res := h.verifiedReservation(w, r, phone, name)
	if res == nil {
		return
	}

	if err := h.repo.DeleteReservation(r.Context(), phone); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			Error(w, http.StatusNotFound, notFoundError)
			return
		}
		slog.Error("delete reservation failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete reservation")
		return
	}

	JSON(w, http.StatusOK, map[string]string{"status": "cancelled", "phone_number": phone})
}

// verifiedReservation loads the reservation and checks the provided
// name. On any failure it writes the generic 404 and returns nil.
func (h *Handler) verifiedReservation(w http.ResponseWriter, r *http.Request, phone, name string) *domain.Reservation {
	res, err := h.repo.GetReservation(r.Context(), phone)
	if err != nil {
		slog.Error("get reservation failed", "error", err)
		Error(w, http.StatusInternalServerError, "failed to get reservation")
		return nil
	}
	if res == nil || !matching.SplitAndMatchNames(name, res.Name, matching.DefaultMaxDistance) {
		Error(w, http.StatusNotFound, notFoundError)
		return nil
	}
	return res
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	overall := "ok"
	dbStatus := "up"
	status := http.StatusOK
	if err := h.repo.Ping(ctx); err != nil {
		slog.Warn("health check database ping failed", "error", err)
		overall = "degraded"
		dbStatus = "down"
		status = http.StatusServiceUnavailable
	}

	JSON(w, status, map[string]any{
		"status":          overall,
		"database":        dbStatus,
		"active_sessions": h.manager.Count(),
	})
}
