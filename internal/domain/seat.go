package domain

import (
	"slices"
	"strconv"
)

type SeatLayout struct {
	Rows        int `json:"rows"`
	SeatsPerRow int `json:"seats_per_row"`
	AisleAfter  int `json:"aisle_after"`
}

type SeatStatus string

const (
	SeatAvailable SeatStatus = "available"
	SeatSelected  SeatStatus = "selected"
	SeatBooked    SeatStatus = "booked"
)

// SeatCell is one slot of an expanded seat map: either a seat or the aisle.
type SeatCell struct {
	ID     string     `json:"id,omitempty"`
	Aisle  bool       `json:"aisle,omitempty"`
	Status SeatStatus `json:"status,omitempty"`
}

// SeatID composes the identifier of the seat at a 1-based row and a
// zero-based column, e.g. (3, 1) -> "3B".
func SeatID(row, col int) string {
	return strconv.Itoa(row) + string(rune('A'+col))
}

func (l SeatLayout) Capacity() int {
	return l.Rows * l.SeatsPerRow
}

// SeatIDs lists every seat in row-major order.
func (l SeatLayout) SeatIDs() []string {
	ids := make([]string, 0, l.Capacity())
	for row := 1; row <= l.Rows; row++ {
		for col := 0; col < l.SeatsPerRow; col++ {
			ids = append(ids, SeatID(row, col))
		}
	}
	return ids
}

func (l SeatLayout) HasSeat(id string) bool {
	if len(id) < 2 {
		return false
	}
	row, err := strconv.Atoi(id[:len(id)-1])
	if err != nil || row < 1 || row > l.Rows {
		return false
	}
	col := int(id[len(id)-1]) - 'A'
	return col >= 0 && col < l.SeatsPerRow && id == SeatID(row, col)
}

// Expand produces the seat map rows. The aisle cell follows column
// AisleAfter (1-based) and is omitted when it would close the row.
func (l SeatLayout) Expand() [][]SeatCell {
	rows := make([][]SeatCell, 0, l.Rows)
	for row := 1; row <= l.Rows; row++ {
		cells := make([]SeatCell, 0, l.SeatsPerRow+1)
		for col := 0; col < l.SeatsPerRow; col++ {
			cells = append(cells, SeatCell{ID: SeatID(row, col)})
			if col+1 == l.AisleAfter && col+1 < l.SeatsPerRow {
				cells = append(cells, SeatCell{Aisle: true})
			}
		}
		rows = append(rows, cells)
	}
	return rows
}

// SeatMap expands the bus layout and resolves the status of every seat
// against the bus's booked seats and the caller's selection.
func SeatMap(bus Bus, selection *SeatSelection) [][]SeatCell {
	rows := bus.SeatLayout.Expand()
	for _, cells := range rows {
		for i := range cells {
			if !cells[i].Aisle {
				cells[i].Status = StatusOf(bus, selection, cells[i].ID)
			}
		}
	}
	return rows
}

func StatusOf(bus Bus, selection *SeatSelection, seatID string) SeatStatus {
	switch {
	case bus.IsBooked(seatID):
		return SeatBooked
	case selection.Contains(seatID):
		return SeatSelected
	default:
		return SeatAvailable
	}
}

// SeatSelection is an in-progress, ordered set of chosen seats.
type SeatSelection struct {
	ids []string
}

func NewSeatSelection(ids ...string) *SeatSelection {
	s := &SeatSelection{}
	for _, id := range ids {
		if !s.Contains(id) {
			s.ids = append(s.ids, id)
		}
	}
	return s
}

// Toggle flips membership of seatID. Booked seats are left alone and
// Toggle reports false for them.
func (s *SeatSelection) Toggle(bus Bus, seatID string) bool {
	if bus.IsBooked(seatID) {
		return false
	}
	if i := slices.Index(s.ids, seatID); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return true
	}
	s.ids = append(s.ids, seatID)
	return true
}

func (s *SeatSelection) Contains(seatID string) bool {
	return s != nil && slices.Contains(s.ids, seatID)
}

func (s *SeatSelection) IDs() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.ids)
}

func (s *SeatSelection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}
