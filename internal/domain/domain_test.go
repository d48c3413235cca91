package domain

import (
	"testing"
	"time"
)

func TestSlotOf_TruncatesToWholeHour(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	in := time.Date(2024, 6, 1, 12, 37, 15, 500, loc)

	got := SlotOf(in, loc)
	want := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("SlotOf = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", got.Location())
	}
	if nilLoc := SlotOf(in, nil); !nilLoc.Equal(want) {
		t.Fatalf("SlotOf(nil loc) = %v, want %v", nilLoc, want)
	}
}

func TestSlotOf_HalfHourZoneUsesLocalHours(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	in := time.Date(2024, 6, 1, 10, 0, 0, 0, ist)

	got := SlotOf(in, ist)
	if !got.Equal(in) {
		t.Fatalf("SlotOf = %v (%v local), want %v", got, got.In(ist), in)
	}
	if got := SlotOf(time.Date(2024, 6, 1, 10, 59, 0, 0, ist), ist); !got.Equal(in) {
		t.Fatalf("SlotOf(10:59) = %v, want %v", got.In(ist), in)
	}
}

func TestAvailability_HalfHourZoneBookingTakesItsSlot(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, ist)
	now := time.Date(2024, 6, 1, 7, 0, 0, 0, ist)
	booked := SlotOf(time.Date(2024, 6, 1, 10, 0, 0, 0, ist), ist)

	slots, err := Availability(day, ist, now, []time.Time{booked})
	if err != nil {
		t.Fatalf("Availability error: %v", err)
	}
	for _, s := range slots {
		want := s.Time != "10:00"
		if s.Available != want {
			t.Fatalf("slot %s available = %v, want %v", s.Time, s.Available, want)
		}
	}
}

func TestAppointment_PastAndCancelable(t *testing.T) {
	a := Appointment{Date: time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)}

	tests := []struct {
		name           string
		now            time.Time
		wantPast       bool
		wantCancelable bool
	}{
		{"three hours before", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), false, true},
		{"exactly two hours before", time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC), false, true},
		{"just inside the window", time.Date(2024, 6, 1, 13, 0, 1, 0, time.UTC), false, false},
		{"one hour before", time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC), false, false},
		{"after start", time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Past(tt.now); got != tt.wantPast {
				t.Fatalf("Past = %v, want %v", got, tt.wantPast)
			}
			if got := a.Cancelable(tt.now); got != tt.wantCancelable {
				t.Fatalf("Cancelable = %v, want %v", got, tt.wantCancelable)
			}
		})
	}
}

func TestDaySlots_CoversBusinessHoursInLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	day := time.Date(2024, 6, 2, 1, 0, 0, 0, time.UTC) // still June 1st in BRT

	slots, err := DaySlots(day, loc)
	if err != nil {
		t.Fatalf("DaySlots error: %v", err)
	}
	if len(slots) != LastSlotHour-FirstSlotHour+1 {
		t.Fatalf("len(slots) = %d, want %d", len(slots), LastSlotHour-FirstSlotHour+1)
	}
	first := slots[0]
	if first.Day() != 1 || first.Hour() != FirstSlotHour {
		t.Fatalf("first slot = %v, want June 1st %02d:00 local", first, FirstSlotHour)
	}
	if last := slots[len(slots)-1]; last.Hour() != LastSlotHour {
		t.Fatalf("last slot hour = %d, want %d", last.Hour(), LastSlotHour)
	}

	if _, err := DaySlots(day, nil); err == nil {
		t.Fatalf("expected error for nil location")
	}
}

func TestAvailability(t *testing.T) {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	booked := []time.Time{time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)}

	slots, err := Availability(day, time.UTC, now, booked)
	if err != nil {
		t.Fatalf("Availability error: %v", err)
	}

	byTime := make(map[string]AvailableSlot, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s
	}

	cases := map[string]bool{
		"08:00": false,
		"10:00": false,
		"11:00": true,
		"15:00": false,
		"16:00": true,
		"19:00": true,
	}
	for hour, want := range cases {
		s, ok := byTime[hour]
		if !ok {
			t.Fatalf("slot %s missing", hour)
		}
		if s.Available != want {
			t.Fatalf("slot %s available = %v, want %v", hour, s.Available, want)
		}
	}
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	start, end := DayBounds(time.Date(2024, 6, 1, 20, 0, 0, 0, loc), loc)

	wantStart := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", start, wantStart)
	}
	if end.Sub(start) != 24*time.Hour {
		t.Fatalf("day length = %v, want 24h", end.Sub(start))
	}
}
