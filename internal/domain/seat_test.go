package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sleeperLayout = SeatLayout{Rows: 12, SeatsPerRow: 3, AisleAfter: 1}
	seaterLayout  = SeatLayout{Rows: 15, SeatsPerRow: 4, AisleAfter: 2}
)

func TestSeatID(t *testing.T) {
	assert.Equal(t, "1A", SeatID(1, 0))
	assert.Equal(t, "3B", SeatID(3, 1))
	assert.Equal(t, "15D", SeatID(15, 3))
}

func TestSeatLayout_Expand(t *testing.T) {
	t.Run("sleeper aisle after first column", func(t *testing.T) {
		rows := sleeperLayout.Expand()
		require.Len(t, rows, 12)
		assert.Equal(t, []SeatCell{{ID: "1A"}, {Aisle: true}, {ID: "1B"}, {ID: "1C"}}, rows[0])
		assert.Equal(t, []SeatCell{{ID: "12A"}, {Aisle: true}, {ID: "12B"}, {ID: "12C"}}, rows[11])
	})

	t.Run("seater aisle after second column", func(t *testing.T) {
		rows := seaterLayout.Expand()
		require.Len(t, rows, 15)
		assert.Equal(t, []SeatCell{{ID: "2A"}, {ID: "2B"}, {Aisle: true}, {ID: "2C"}, {ID: "2D"}}, rows[1])
	})

	t.Run("aisle at the end of a row is dropped", func(t *testing.T) {
		rows := SeatLayout{Rows: 1, SeatsPerRow: 2, AisleAfter: 2}.Expand()
		assert.Equal(t, [][]SeatCell{{{ID: "1A"}, {ID: "1B"}}}, rows)
	})
}

func TestSeatLayout_SeatIDsMatchExpansion(t *testing.T) {
	for _, layout := range []SeatLayout{sleeperLayout, seaterLayout} {
		var expanded []string
		for _, row := range layout.Expand() {
			for _, cell := range row {
				if !cell.Aisle {
					expanded = append(expanded, cell.ID)
				}
			}
		}
		assert.Equal(t, expanded, layout.SeatIDs())
		assert.Len(t, expanded, layout.Capacity())
	}
}

func TestSeatLayout_HasSeat(t *testing.T) {
	tests := []struct {
		layout SeatLayout
		id     string
		want   bool
	}{
		{sleeperLayout, "1A", true},
		{sleeperLayout, "12C", true},
		{sleeperLayout, "1D", false},
		{sleeperLayout, "13A", false},
		{seaterLayout, "15D", true},
		{seaterLayout, "0A", false},
		{seaterLayout, "01A", false},
		{seaterLayout, "A", false},
		{seaterLayout, "", false},
		{seaterLayout, "1a", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.layout.HasSeat(tt.id), "layout %+v seat %q", tt.layout, tt.id)
	}
}

func TestSeatSelection_Toggle(t *testing.T) {
	bus := Bus{SeatLayout: seaterLayout, BookedSeats: []string{"1A"}}

	t.Run("toggle twice restores the selection", func(t *testing.T) {
		sel := NewSeatSelection("2A")
		before := sel.IDs()

		assert.True(t, sel.Toggle(bus, "3C"))
		assert.Equal(t, []string{"2A", "3C"}, sel.IDs())
		assert.True(t, sel.Toggle(bus, "3C"))
		assert.Equal(t, before, sel.IDs())

		assert.True(t, sel.Toggle(bus, "2A"))
		assert.True(t, sel.Toggle(bus, "2A"))
		assert.ElementsMatch(t, before, sel.IDs())
	})

	t.Run("booked seat never changes the selection", func(t *testing.T) {
		sel := NewSeatSelection("2B")
		assert.False(t, sel.Toggle(bus, "1A"))
		assert.False(t, sel.Toggle(bus, "1A"))
		assert.Equal(t, []string{"2B"}, sel.IDs())
	})
}

func TestStatusOf(t *testing.T) {
	bus := Bus{SeatLayout: sleeperLayout, BookedSeats: []string{"1A"}}
	sel := NewSeatSelection("1B")

	assert.Equal(t, SeatBooked, StatusOf(bus, sel, "1A"))
	assert.Equal(t, SeatSelected, StatusOf(bus, sel, "1B"))
	assert.Equal(t, SeatAvailable, StatusOf(bus, sel, "1C"))
	assert.Equal(t, SeatAvailable, StatusOf(bus, nil, "1B"))
}

func TestSeatMap(t *testing.T) {
	bus := Bus{SeatLayout: SeatLayout{Rows: 1, SeatsPerRow: 3, AisleAfter: 1}, BookedSeats: []string{"1C"}}
	rows := SeatMap(bus, NewSeatSelection("1A"))

	assert.Equal(t, [][]SeatCell{{
		{ID: "1A", Status: SeatSelected},
		{Aisle: true},
		{ID: "1B", Status: SeatAvailable},
		{ID: "1C", Status: SeatBooked},
	}}, rows)
}
