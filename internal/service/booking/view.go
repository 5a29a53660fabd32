package booking

import (
	"github.com/Domenick1991/busbooking/internal/domain"
)

// View is a point-in-time copy of a Flow for the presentation layer.
type View struct {
	Step              domain.Step             `json:"step"`
	Search            domain.SearchParams     `json:"search"`
	Buses             []domain.Bus            `json:"buses"`
	SelectedBus       *domain.Bus             `json:"selected_bus,omitempty"`
	Selection         []string                `json:"selection,omitempty"`
	Assignments       []domain.SeatAssignment `json:"assignments,omitempty"`
	TotalAmount       int                     `json:"total_amount"`
	PaymentProcessing bool                    `json:"payment_processing"`
	Booking           *domain.Booking         `json:"booking,omitempty"`
}

func (f *Flow) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := View{
		Step:              f.step,
		Search:            f.search,
		Buses:             domain.CloneBuses(f.buses),
		Selection:         f.selection.IDs(),
		Assignments:       append([]domain.SeatAssignment(nil), f.assignments...),
		TotalAmount:       f.totalAmount(),
		PaymentProcessing: f.processing,
	}
	if f.selected >= 0 {
		bus := f.buses[f.selected].Clone()
		v.SelectedBus = &bus
	}
	if f.step == domain.StepTicket && f.booking != nil {
		b := f.booking.Clone()
		v.Booking = &b
	}
	return v
}

// SeatMap renders the selected bus's seats with their current status.
func (f *Flow) SeatMap() ([][]domain.SeatCell, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.selected < 0 {
		return nil, ErrNoBusSelected
	}
	return domain.SeatMap(f.buses[f.selected], f.selection), nil
}

// Booking returns the finalised booking. It is only available in the
// ticket step.
func (f *Flow) Booking() (*domain.Booking, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != domain.StepTicket || f.booking == nil {
		return nil, false
	}
	b := f.booking.Clone()
	return &b, true
}
