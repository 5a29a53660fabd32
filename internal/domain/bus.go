package domain

import (
	"fmt"
	"slices"
	"strings"
)

type Bus struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Operator        string     `json:"operator"`
	Type            string     `json:"type"`
	DepartureTime   TimeOfDay  `json:"departure_time"`
	ArrivalTime     TimeOfDay  `json:"arrival_time"`
	DurationHours   int        `json:"duration_hours"`
	DurationMinutes int        `json:"duration_minutes"`
	Price           int        `json:"price"`
	Rating          float64    `json:"rating"`
	Amenities       []string   `json:"amenities"`
	TotalSeats      int        `json:"total_seats"`
	AvailableSeats  int        `json:"available_seats"`
	BookedSeats     []string   `json:"booked_seats"`
	SeatLayout      SeatLayout `json:"seat_layout"`
}

// IsSleeper reports whether a bus type is one of the sleeper categories.
func IsSleeper(busType string) bool {
	return strings.Contains(busType, "Sleeper")
}

// Duration is the advertised travel time. The minute part is a label
// drawn on its own and does not shift ArrivalTime.
func (b Bus) Duration() string {
	return fmt.Sprintf("%dh %dm", b.DurationHours, b.DurationMinutes)
}

func (b Bus) IsBooked(seatID string) bool {
	return slices.Contains(b.BookedSeats, seatID)
}

// BookSeats adds ids to BookedSeats, skipping ones already booked or not
// on the seat layout, and keeps AvailableSeats in step. It returns how
// many seats were added.
func (b *Bus) BookSeats(ids []string) int {
	added := 0
	for _, id := range ids {
		if b.IsBooked(id) || !b.SeatLayout.HasSeat(id) {
			continue
		}
		b.BookedSeats = append(b.BookedSeats, id)
		added++
	}
	b.AvailableSeats = b.TotalSeats - len(b.BookedSeats)
	return added
}

// Clone returns a copy that shares no slices with b.
func (b Bus) Clone() Bus {
	b.Amenities = slices.Clone(b.Amenities)
	b.BookedSeats = slices.Clone(b.BookedSeats)
	return b
}

func CloneBuses(buses []Bus) []Bus {
	if buses == nil {
		return nil
	}
	out := make([]Bus, len(buses))
	for i, b := range buses {
		out[i] = b.Clone()
	}
	return out
}

// TimeOfDay is a wall-clock time without a date. Arithmetic wraps at
// midnight and no day rollover is tracked.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) AddHours(hours int) TimeOfDay {
	return TimeOfDay{Hour: ((t.Hour+hours)%24 + 24) % 24, Minute: t.Minute}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	var h, m int
	if _, err := fmt.Sscanf(string(text), "%d:%d", &h, &m); err != nil {
		return fmt.Errorf("parse time of day %q: %w", text, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return fmt.Errorf("time of day %q out of range", text)
	}
	t.Hour, t.Minute = h, m
	return nil
}
