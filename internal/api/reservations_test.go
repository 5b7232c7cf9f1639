package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sakura-ramen/voice-agent/internal/domain"
	"github.com/sakura-ramen/voice-agent/internal/session"
	"github.com/sakura-ramen/voice-agent/internal/store"
)

type memRepo struct {
	reservations map[string]*domain.Reservation
	pingErr      error
}

func newMemRepo() *memRepo {
	return &memRepo{reservations: make(map[string]*domain.Reservation)}
}

func (m *memRepo) GetReservation(ctx context.Context, phone string) (*domain.Reservation, error) {
	res, ok := m.reservations[phone]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (m *memRepo) CreateReservation(ctx context.Context, res *domain.Reservation) error {
	if _, ok := m.reservations[res.PhoneNumber]; ok {
		return store.ErrAlreadyExists
	}
	cp := *res
	m.reservations[res.PhoneNumber] = &cp
	return nil
}

func (m *memRepo) UpdateReservation(ctx context.Context, phone string, upd *domain.ReservationUpdate) error {
	res, ok := m.reservations[phone]
	if !ok {
		return store.ErrNotFound
	}
	if upd.ReservationDate != nil {
		res.ReservationDate = *upd.ReservationDate
	}
	if upd.ReservationTime != nil {
		res.ReservationTime = *upd.ReservationTime
	}
	if upd.PartySize != nil {
		res.PartySize = *upd.PartySize
	}
	if upd.OtherInfo != nil {
		res.OtherInfo = upd.OtherInfo
	}
	return nil
}

func (m *memRepo) DeleteReservation(ctx context.Context, phone string) error {
	if _, ok := m.reservations[phone]; !ok {
		return store.ErrNotFound
	}
	delete(m.reservations, phone)
	return nil
}

func (m *memRepo) ListReservations(ctx context.Context) ([]*domain.Reservation, error) {
	out := make([]*domain.Reservation, 0, len(m.reservations))
	for _, res := range m.reservations {
		out = append(out, res)
	}
	return out, nil
}

func (m *memRepo) Ping(ctx context.Context) error { return m.pingErr }
func (m *memRepo) Close() error                   { return nil }

func testRouter(repo store.Repository) http.Handler {
	h := NewHandler(repo, session.NewManager())
	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Route("/api/reservations", func(r chi.Router) {
		r.Get("/", h.ListReservations)
		r.Post("/", h.CreateReservation)
		r.Get("/{phone}", h.GetReservation)
		r.Put("/{phone}", h.UpdateReservation)
		r.Delete("/{phone}", h.DeleteReservation)
	})
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func seedReservation(repo *memRepo) {
	repo.reservations["+6598207272"] = &domain.Reservation{
		PhoneNumber:     "+6598207272",
		Name:            "John Smith",
		ReservationDate: "2025-06-14",
		ReservationTime: "19:00",
		PartySize:       4,
	}
}

func TestCreateReservation(t *testing.T) {
	repo := newMemRepo()
	router := testRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/api/reservations", map[string]any{
		"name":             "John Smith",
		"phone_number":     "98207272",
		"reservation_date": "2025-06-14",
		"reservation_time": "19:00",
		"party_size":       4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var created domain.Reservation
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.PhoneNumber != "+6598207272" {
		t.Errorf("phone not formatted: %q", created.PhoneNumber)
	}

	// Duplicate phone conflicts.
	rec = doJSON(t, router, http.MethodPost, "/api/reservations", map[string]any{
		"name":             "Jane Doe",
		"phone_number":     "+6598207272",
		"reservation_date": "2025-06-15",
		"reservation_time": "18:00",
		"party_size":       2,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", rec.Code)
	}
}

func TestCreateReservationValidation(t *testing.T) {
	router := testRouter(newMemRepo())

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"phone_number": "98207272", "reservation_date": "2025-06-14", "reservation_time": "19:00", "party_size": 4}},
		{"party too large", map[string]any{"name": "A", "phone_number": "98207272", "reservation_date": "2025-06-14", "reservation_time": "19:00", "party_size": 21}},
		{"party zero", map[string]any{"name": "A", "phone_number": "98207272", "reservation_date": "2025-06-14", "reservation_time": "19:00", "party_size": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/reservations", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetReservation(t *testing.T) {
	repo := newMemRepo()
	seedReservation(repo)
	router := testRouter(repo)

	// Unformatted phone in the URL still resolves.
	rec := doJSON(t, router, http.MethodGet, "/api/reservations/98207272", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/reservations/91111111", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status = %d", rec.Code)
	}
}

func TestUpdateReservation(t *testing.T) {
	repo := newMemRepo()
	seedReservation(repo)
	router := testRouter(repo)

	rec := doJSON(t, router, http.MethodPut, "/api/reservations/98207272", map[string]any{
		"name":       "Jon Smith", // fuzzy match against "John Smith"
		"party_size": 6,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if repo.reservations["+6598207272"].PartySize != 6 {
		t.Error("party size not updated")
	}

	// Wrong name reads as not-found, indistinguishable from a missing
	// reservation.
	rec = doJSON(t, router, http.MethodPut, "/api/reservations/98207272", map[string]any{
		"name":       "Alice Wong",
		"party_size": 2,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("wrong name status = %d", rec.Code)
	}

	// Verified but empty update is a 400.
	rec = doJSON(t, router, http.MethodPut, "/api/reservations/98207272", map[string]any{
		"name": "John Smith",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty update status = %d", rec.Code)
	}
}

func TestDeleteReservation(t *testing.T) {
	repo := newMemRepo()
	seedReservation(repo)
	router := testRouter(repo)

	// Missing name is a 400, not a 404.
	rec := doJSON(t, router, http.MethodDelete, "/api/reservations/98207272", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("no name status = %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/reservations/98207272?name=Alice", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("wrong name status = %d", rec.Code)
	}
	if len(repo.reservations) != 1 {
		t.Fatal("reservation deleted despite failed verification")
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/reservations/98207272?name=Smith", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if len(repo.reservations) != 0 {
		t.Error("reservation not deleted")
	}

	// Second delete gets the same 404 as a name mismatch.
	rec = doJSON(t, router, http.MethodDelete, "/api/reservations/98207272?name=Smith", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", rec.Code)
	}
}

func TestListReservations(t *testing.T) {
	repo := newMemRepo()
	seedReservation(repo)
	router := testRouter(repo)

	rec := doJSON(t, router, http.MethodGet, "/api/reservations/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d", body.Count)
	}
}

func TestHealth(t *testing.T) {
	repo := newMemRepo()
	router := testRouter(repo)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	repo.pingErr = context.DeadlineExceeded
	rec = doJSON(t, router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("degraded status = %d", rec.Code)
	}
}
