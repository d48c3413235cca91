package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	FirstSlotHour = 8
	LastSlotHour  = 19
)

type AvailableSlot struct {
	Time      string    `json:"time"`
	Value     time.Time `json:"value"`
	Available bool      `json:"available"`
}

// DaySlots returns the bookable hour starts of the calendar day containing
// day, as seen in loc.
func DaySlots(day time.Time, loc *time.Location) ([]time.Time, error) {
	if loc == nil {
		return nil, errors.New("nil location")
	}
	local := day.In(loc)
	y, m, d := local.Date()

	out := make([]time.Time, 0, LastSlotHour-FirstSlotHour+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		out = append(out, time.Date(y, m, d, h, 0, 0, 0, loc))
	}
	return out, nil
}

// Availability marks each slot of the day free when it is still ahead of now
// and no active appointment holds it.
func Availability(day time.Time, loc *time.Location, now time.Time, booked []time.Time) ([]AvailableSlot, error) {
	slots, err := DaySlots(day, loc)
	if err != nil {
		return nil, err
	}

	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[SlotOf(b, loc).Unix()] = struct{}{}
	}

	out := make([]AvailableSlot, 0, len(slots))
	for _, s := range slots {
		_, isTaken := taken[s.UTC().Unix()]
		out = append(out, AvailableSlot{
			Time:      fmt.Sprintf("%02d:00", s.Hour()),
			Value:     s,
			Available: s.After(now) && !isTaken,
		})
	}
	return out, nil
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	y, m, d := local.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}
