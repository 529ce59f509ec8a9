package service

import (
	"context"
	"fmt"
	"strings"

	"tutoring-service/api"
	"tutoring-service/internal/models"
	"tutoring-service/pkg/response"
)

// normalizeSlotValue maps a client-supplied slot value onto a boolean.
// Clients send booleans, 0/1 numbers or a small vocabulary of strings;
// anything unrecognized is ignored rather than rejected, so one bad slot
// in a heterogeneous payload does not fail the whole request.
func normalizeSlotValue(v any) (value bool, ok bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case float64:
		if val == 1 {
			return true, true
		}
		if val == 0 {
			return false, true
		}
	case int:
		if val == 1 {
			return true, true
		}
		if val == 0 {
			return false, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "true", "yes", "y", "available":
			return true, true
		case "0", "false", "no", "n", "unavailable":
			return false, true
		}
	}

	return false, false
}

func parseRoleField(s string) (models.Role, error) {
	role, ok := models.ParseRole(s)
	if !ok {
		return "", response.NewFieldError("role", "must be teacher or student")
	}
	return role, nil
}

func (s *Service) GetAvailability(ctx context.Context, roleStr string, personID int64, fromStr, toStr string) ([]api.AvailabilityDayResponse, error) {
	const op = "service.GetAvailability"

	role, err := parseRoleField(roleStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	from, err := parseDate("from", fromStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	to, err := parseDate("to", toStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("to", "must not be before from"))
	}

	days, err := s.store.GetAvailability(ctx, role, personID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Only existing records come back; dates with no explicit decision
	// are the caller's concern.
	result := make([]api.AvailabilityDayResponse, 0, len(days))
	for _, day := range days {
		result = append(result, api.AvailabilityDayResponse{
			Date:      day.Date.Format(dateLayout),
			Morning:   day.Morning,
			Afternoon: day.Afternoon,
			Evening:   day.Evening,
		})
	}

	return result, nil
}

// SetAvailability upserts one row per supplied date. A date whose slots
// all end up false is deleted instead of being stored as a zeroed row.
func (s *Service) SetAvailability(ctx context.Context, roleStr string, personID int64, req *api.AvailabilitySetRequest) ([]api.AvailabilityDayResponse, error) {
	const op = "service.SetAvailability"

	role, err := parseRoleField(roleStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.AvailabilityDayResponse, 0, len(req.Days))

	for _, payload := range req.Days {
		date, err := parseDate("date", payload.Date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		existing, err := s.store.GetAvailability(ctx, role, personID, date, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		day := models.AvailabilityDay{PersonID: personID, Date: date}
		if len(existing) > 0 {
			day = existing[0]
		}

		touched := false
		if v, ok := normalizeSlotValue(payload.Morning); ok {
			day.Morning = v
			touched = true
		}
		if v, ok := normalizeSlotValue(payload.Afternoon); ok {
			day.Afternoon = v
			touched = true
		}
		if v, ok := normalizeSlotValue(payload.Evening); ok {
			day.Evening = v
			touched = true
		}

		if !touched {
			continue
		}

		if !day.Morning && !day.Afternoon && !day.Evening {
			if len(existing) > 0 {
				if err := s.store.DeleteAvailabilityRow(ctx, role, personID, date); err != nil {
					return nil, fmt.Errorf("%s: %w", op, err)
				}
			}
			continue
		}

		if err := s.store.UpsertAvailability(ctx, role, day); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		result = append(result, api.AvailabilityDayResponse{
			Date:      date.Format(dateLayout),
			Morning:   day.Morning,
			Afternoon: day.Afternoon,
			Evening:   day.Evening,
		})
	}

	return result, nil
}

// DeleteAvailability clears the named slots (all three when none are
// named) for every existing record in the range, dropping rows that end
// up with no true slot left.
func (s *Service) DeleteAvailability(ctx context.Context, roleStr string, personID int64, req *api.AvailabilityDeleteRequest) (int, error) {
	const op = "service.DeleteAvailability"

	role, err := parseRoleField(roleStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	from, err := parseDate("from", req.From)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if to.Before(from) {
		return 0, fmt.Errorf("%s: %w", op, response.NewFieldError("to", "must not be before from"))
	}

	clear := map[models.Slot]bool{}
	if len(req.Slots) == 0 {
		clear[models.SlotMorning] = true
		clear[models.SlotAfternoon] = true
		clear[models.SlotEvening] = true
	}
	for _, raw := range req.Slots {
		slot, ok := models.ParseSlot(raw)
		if !ok {
			return 0, fmt.Errorf("%s: %w", op, response.NewFieldError("slots", "must be morning, afternoon or evening"))
		}
		clear[slot] = true
	}

	days, err := s.store.GetAvailability(ctx, role, personID, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	cleared := 0
	for _, day := range days {
		if clear[models.SlotMorning] {
			day.Morning = false
		}
		if clear[models.SlotAfternoon] {
			day.Afternoon = false
		}
		if clear[models.SlotEvening] {
			day.Evening = false
		}

		if !day.Morning && !day.Afternoon && !day.Evening {
			if err := s.store.DeleteAvailabilityRow(ctx, role, personID, day.Date); err != nil {
				return 0, fmt.Errorf("%s: %w", op, err)
			}
		} else {
			if err := s.store.UpsertAvailability(ctx, role, day); err != nil {
				return 0, fmt.Errorf("%s: %w", op, err)
			}
		}
		cleared++
	}

	return cleared, nil
}

// GetAvailablePersons lists person ids that declared the slot available
// on the date. Missing records mean "no slot data" and are simply absent
// from the result.
func (s *Service) GetAvailablePersons(ctx context.Context, roleStr, dateStr, slotStr string) ([]int64, error) {
	const op = "service.GetAvailablePersons"

	role, err := parseRoleField(roleStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	date, err := parseDate("date", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slot, ok := models.ParseSlot(slotStr)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("slot", "must be morning, afternoon or evening"))
	}

	ids, err := s.store.ListAvailablePersons(ctx, role, date, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}
