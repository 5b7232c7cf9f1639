package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/sakura-ramen/voice-agent/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return repo
}

func sampleReservation() *domain.Reservation {
	return &domain.Reservation{
		PhoneNumber:     "+6598207272",
		Name:            "John Smith",
		ReservationDate: "2025-06-14",
		ReservationTime: "19:00",
		PartySize:       4,
		OtherInfo:       map[string]any{"special_requests": "window seat"},
	}
}

func TestCreateAndGetReservation(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.CreateReservation(ctx, sampleReservation()); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}

	got, err := repo.GetReservation(ctx, "+6598207272")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got == nil {
		t.Fatal("reservation not found after create")
	}
	if got.Name != "John Smith" || got.PartySize != 4 {
		t.Errorf("got %+v", got)
	}
	if got.SpecialRequests() != "window seat" {
		t.Errorf("other_info lost: %+v", got.OtherInfo)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
}

func TestGetReservationMissing(t *testing.T) {
	repo := newTestStore(t)

	got, err := repo.GetReservation(context.Background(), "+6591111111")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestCreateReservationDuplicate(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.CreateReservation(ctx, sampleReservation()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := repo.CreateReservation(ctx, sampleReservation())
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second create error = %v, want ErrAlreadyExists", err)
	}
}

func TestUpdateReservation(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.CreateReservation(ctx, sampleReservation()); err != nil {
		t.Fatalf("create: %v", err)
	}

	newTime := "20:30"
	newSize := 6
	err := repo.UpdateReservation(ctx, "+6598207272", &domain.ReservationUpdate{
		ReservationTime: &newTime,
		PartySize:       &newSize,
	})
	if err != nil {
		t.Fatalf("UpdateReservation: %v", err)
	}

	got, err := repo.GetReservation(ctx, "+6598207272")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got.ReservationTime != "20:30" || got.PartySize != 6 {
		t.Errorf("update not applied: %+v", got)
	}
	// Untouched fields survive a partial update.
	if got.ReservationDate != "2025-06-14" || got.SpecialRequests() != "window seat" {
		t.Errorf("partial update clobbered fields: %+v", got)
	}
}

func TestUpdateReservationMissing(t *testing.T) {
	repo := newTestStore(t)

	size := 2
	err := repo.UpdateReservation(context.Background(), "+6591111111", &domain.ReservationUpdate{PartySize: &size})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateReservationEmptyIsNoop(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.CreateReservation(ctx, sampleReservation()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdateReservation(ctx, "+6598207272", &domain.ReservationUpdate{}); err != nil {
		t.Errorf("empty update: %v", err)
	}
}

func TestDeleteReservation(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.CreateReservation(ctx, sampleReservation()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.DeleteReservation(ctx, "+6598207272"); err != nil {
		t.Fatalf("DeleteReservation: %v", err)
	}

	got, err := repo.GetReservation(ctx, "+6598207272")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got != nil {
		t.Error("reservation still present after delete")
	}

	if err := repo.DeleteReservation(ctx, "+6598207272"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestListReservationsOrdered(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	entries := []*domain.Reservation{
		{PhoneNumber: "+6590000001", Name: "A", ReservationDate: "2025-06-15", ReservationTime: "19:00", PartySize: 2},
		{PhoneNumber: "+6590000002", Name: "B", ReservationDate: "2025-06-14", ReservationTime: "20:00", PartySize: 2},
		{PhoneNumber: "+6590000003", Name: "C", ReservationDate: "2025-06-14", ReservationTime: "18:00", PartySize: 2},
	}
	for _, e := range entries {
		if err := repo.CreateReservation(ctx, e); err != nil {
			t.Fatalf("create %s: %v", e.PhoneNumber, err)
		}
	}

	list, err := repo.ListReservations(ctx)
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d", len(list))
	}
	wantOrder := []string{"C", "B", "A"}
	for i, want := range wantOrder {
		if list[i].Name != want {
			t.Errorf("position %d = %q, want %q", i, list[i].Name, want)
		}
	}
}

func TestPing(t *testing.T) {
	repo := newTestStore(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
