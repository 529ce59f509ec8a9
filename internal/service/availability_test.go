package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutoring-service/api"
	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
)

func TestNormalizeSlotValue(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		value bool
		ok    bool
	}{
		{"bool true", true, true, true},
		{"bool false", false, false, true},
		{"float one", float64(1), true, true},
		{"float zero", float64(0), false, true},
		{"int one", 1, true, true},
		{"string 1", "1", true, true},
		{"string true", "true", true, true},
		{"string yes", "yes", true, true},
		{"string y", "y", true, true},
		{"string available", "available", true, true},
		{"string uppercase", "TRUE", true, true},
		{"string padded", " available ", true, true},
		{"string 0", "0", false, true},
		{"string false", "false", false, true},
		{"string no", "no", false, true},
		{"string unavailable", "unavailable", false, true},
		{"other number", float64(2), false, false},
		{"unknown string", "maybe", false, false},
		{"nil", nil, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			value, ok := normalizeSlotValue(tc.in)
			if value != tc.value || ok != tc.ok {
				t.Errorf("normalizeSlotValue(%v) = (%v, %v), want (%v, %v)",
					tc.in, value, ok, tc.value, tc.ok)
			}
		})
	}
}

func TestSetAvailabilityEquivalentTruthyValues(t *testing.T) {
	// A boolean, a number and a string spelling of "available" must all
	// land as the same stored value.
	svc, store, _ := newTestService(ModeStrict)

	days, err := svc.SetAvailability(context.Background(), "teacher", 1, &api.AvailabilitySetRequest{
		Days: []api.AvailabilityDayPayload{
			{Date: "2026-09-01", Morning: true, Afternoon: float64(1), Evening: "available"},
		},
	})
	if err != nil {
		t.Fatalf("SetAvailability failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}

	day := days[0]
	if !day.Morning || !day.Afternoon || !day.Evening {
		t.Errorf("slots = %+v, want all true", day)
	}

	stored, err := store.GetAvailability(context.Background(), models.RoleTeacher, 1,
		mustDate(t, "2026-09-01"), mustDate(t, "2026-09-01"))
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if len(stored) != 1 || !stored[0].Morning || !stored[0].Afternoon || !stored[0].Evening {
		t.Errorf("stored = %+v, want one all-true day", stored)
	}
}

func TestSetAvailabilityIgnoresUnrecognizedValues(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	// Seed a day, then send an update whose slot values are all noise.
	_, err := svc.SetAvailability(context.Background(), "teacher", 1, &api.AvailabilitySetRequest{
		Days: []api.AvailabilityDayPayload{{Date: "2026-09-01", Morning: true}},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err = svc.SetAvailability(context.Background(), "teacher", 1, &api.AvailabilitySetRequest{
		Days: []api.AvailabilityDayPayload{{Date: "2026-09-01", Morning: "maybe", Afternoon: nil}},
	})
	if err != nil {
		t.Fatalf("SetAvailability failed: %v", err)
	}

	days, err := svc.GetAvailability(context.Background(), "teacher", 1, "2026-09-01", "2026-09-01")
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if len(days) != 1 || !days[0].Morning {
		t.Errorf("days = %+v, want morning still true", days)
	}
}

func TestSetAvailabilityAllFalseDeletesRow(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.SetAvailability(context.Background(), "student", 5, &api.AvailabilitySetRequest{
		Days: []api.AvailabilityDayPayload{{Date: "2026-09-01", Morning: true, Evening: true}},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err = svc.SetAvailability(context.Background(), "student", 5, &api.AvailabilitySetRequest{
		Days: []api.AvailabilityDayPayload{{Date: "2026-09-01", Morning: false, Evening: "no"}},
	})
	if err != nil {
		t.Fatalf("SetAvailability failed: %v", err)
	}

	days, err := svc.GetAvailability(context.Background(), "student", 5, "2026-09-01", "2026-09-01")
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("got %d days, want row deleted", len(days))
	}
}

func TestSetAvailabilityBadRole(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.SetAvailability(context.Background(), "admin", 1, &api.AvailabilitySetRequest{})

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != "role" {
		t.Errorf("field = %q, want role", fieldErr.Field)
	}
}

func TestGetAvailabilityRangeValidation(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.GetAvailability(context.Background(), "teacher", 1, "2026-09-10", "2026-09-01")

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != "to" {
		t.Errorf("field = %q, want to", fieldErr.Field)
	}
}

func TestDeleteAvailabilityNamedSlots(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.SetAvailability(context.Background(), "teacher", 1, &api.AvailabilitySetRequest{
		Days: []api.AvailabilityDayPayload{
			{Date: "2026-09-01", Morning: true, Afternoon: true},
			{Date: "2026-09-02", Morning: true},
		},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cleared, err := svc.DeleteAvailability(context.Background(), "teacher", 1, &api.AvailabilityDeleteRequest{
		From:  "2026-09-01",
		To:    "2026-09-02",
		Slots: []string{"morning"},
	})
	if err != nil {
		t.Fatalf("DeleteAvailability failed: %v", err)
	}
	if cleared != 2 {
		t.Errorf("cleared = %d, want 2", cleared)
	}

	// Day one keeps its afternoon; day two had nothing left and is gone.
	days, err := svc.GetAvailability(context.Background(), "teacher", 1, "2026-09-01", "2026-09-02")
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}
	if days[0].Date != "2026-09-01" || days[0].Morning || !days[0].Afternoon {
		t.Errorf("remaining day = %+v", days[0])
	}
}

func TestDeleteAvailabilityDefaultsToAllSlots(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.SetAvailability(context.Background(), "teacher", 1, &api.AvailabilitySetRequest{
		Days: []api.AvailabilityDayPayload{
			{Date: "2026-09-01", Morning: true, Afternoon: true, Evening: true},
		},
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	cleared, err := svc.DeleteAvailability(context.Background(), "teacher", 1, &api.AvailabilityDeleteRequest{
		From: "2026-09-01",
		To:   "2026-09-01",
	})
	if err != nil {
		t.Fatalf("DeleteAvailability failed: %v", err)
	}
	if cleared != 1 {
		t.Errorf("cleared = %d, want 1", cleared)
	}

	days, err := svc.GetAvailability(context.Background(), "teacher", 1, "2026-09-01", "2026-09-01")
	if err != nil {
		t.Fatalf("GetAvailability failed: %v", err)
	}
	if len(days) != 0 {
		t.Errorf("got %d days, want row deleted", len(days))
	}
}

func TestDeleteAvailabilityBadSlot(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.DeleteAvailability(context.Background(), "teacher", 1, &api.AvailabilityDeleteRequest{
		From:  "2026-09-01",
		To:    "2026-09-01",
		Slots: []string{"night"},
	})

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != "slots" {
		t.Errorf("field = %q, want slots", fieldErr.Field)
	}
}

func TestGetAvailablePersons(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	seed := []struct {
		id      int64
		morning any
	}{
		{1, true},
		{2, "available"},
		{3, false},
	}
	for _, s := range seed {
		_, err := svc.SetAvailability(context.Background(), "teacher", s.id, &api.AvailabilitySetRequest{
			Days: []api.AvailabilityDayPayload{{Date: "2026-09-01", Morning: s.morning, Evening: true}},
		})
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	ids, err := svc.GetAvailablePersons(context.Background(), "teacher", "2026-09-01", "morning")
	if err != nil {
		t.Fatalf("GetAvailablePersons failed: %v", err)
	}

	got := map[int64]bool{}
	for _, id := range ids {
		got[id] = true
	}
	if len(got) != 2 || !got[1] || !got[2] {
		t.Errorf("ids = %v, want {1, 2}", ids)
	}
}

func TestGetAvailablePersonsBadSlot(t *testing.T) {
	svc, _, _ := newTestService(ModeStrict)

	_, err := svc.GetAvailablePersons(context.Background(), "teacher", "2026-09-01", "night")

	var fieldErr *response.FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldError, got %v", err)
	}
	if fieldErr.Field != "slot" {
		t.Errorf("field = %q, want slot", fieldErr.Field)
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()

	out, err := time.Parse(dateLayout, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return out
}
