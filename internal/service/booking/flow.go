package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/busbooking/internal/clock"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidTransition  = errors.New("transition not allowed from current step")
	ErrMissingSearchField = errors.New("from, to and date are required")
	ErrBusNotFound        = errors.New("bus not found")
	ErrNoBusSelected      = errors.New("no bus selected")
	ErrNoSeatsSelected    = errors.New("no seats selected")
	ErrUnknownSeat        = errors.New("seat does not exist on this bus")
	ErrSeatUnavailable    = errors.New("seat is already booked")
	ErrDuplicateSeat      = errors.New("seat selected more than once")
	ErrNotEnoughSeats     = errors.New("not enough seats available")
	ErrPassengerCount     = errors.New("passenger count does not match seat count")
	ErrInvalidPassenger   = errors.New("invalid passenger details")
	ErrPaymentInProgress  = errors.New("payment is already being processed")
)

const defaultPaymentDelay = 3 * time.Second

// BusSearcher supplies candidate buses for a route and commits seats on
// one of them. Book returns the seats booked on the bus so far, and when
// a seat is already taken it fails with buses.ErrSeatTaken.
type BusSearcher interface {
	Search(ctx context.Context, params domain.SearchParams) ([]domain.Bus, error)
	Book(ctx context.Context, params domain.SearchParams, busID string, seatIDs []string) ([]string, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Flow is one booking wizard session. It owns every piece of state the
// wizard accumulates and only changes it through its transition methods.
// A rejected transition returns an error and leaves the state untouched.
type Flow struct {
	mu sync.Mutex

	searcher           BusSearcher
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	clock              clock.Clock
	paymentDelay       time.Duration
	logger             *slog.Logger

	step        domain.Step
	search      domain.SearchParams
	buses       []domain.Bus
	selected    int
	selection   *domain.SeatSelection
	assignments []domain.SeatAssignment
	booking     *domain.Booking

	processing bool
	paymentSeq int
}

type FlowOption func(*Flow)

func WithClock(c clock.Clock) FlowOption {
	return func(f *Flow) {
		f.clock = c
	}
}

func WithPaymentDelay(d time.Duration) FlowOption {
	return func(f *Flow) {
		f.paymentDelay = d
	}
}

// WithProducer publishes a booking event to topic when a booking completes.
func WithProducer(p Producer, topic string) FlowOption {
	return func(f *Flow) {
		f.producer = p
		f.bookingTopic = topic
	}
}

func WithNotificationsTopic(topic string) FlowOption {
	return func(f *Flow) {
		f.notificationsTopic = topic
	}
}

func WithLogger(logger *slog.Logger) FlowOption {
	return func(f *Flow) {
		f.logger = logger
	}
}

func NewFlow(searcher BusSearcher, opts ...FlowOption) *Flow {
	f := &Flow{
		searcher:     searcher,
		clock:        clock.Real(),
		paymentDelay: defaultPaymentDelay,
		logger:       slog.Default(),
		step:         domain.StepSearch,
		selected:     -1,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var validate = validator.New()

func (f *Flow) Step() domain.Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) Search(ctx context.Context, from, to, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != domain.StepSearch {
		return f.invalid("search")
	}
	params := domain.SearchParams{
		From: strings.TrimSpace(from),
		To:   strings.TrimSpace(to),
		Date: strings.TrimSpace(date),
	}
	if params.From == "" || params.To == "" || params.Date == "" {
		return ErrMissingSearchField
	}

	buses, err := f.searcher.Search(ctx, params)
	if err != nil {
		return fmt.Errorf("search buses: %w", err)
	}

	f.search = params
	f.buses = buses
	f.selected = -1
	f.selection = nil
	f.assignments = nil
	f.step = domain.StepBuses
	f.logger.Debug("buses found", "from", params.From, "to", params.To, "date", params.Date, "count", len(buses))
	return nil
}

// SelectBus picks a candidate. Picking a different bus than before drops
// the seats chosen on the previous one.
func (f *Flow) SelectBus(busID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != domain.StepBuses {
		return f.invalid("select bus")
	}
	idx := slices.IndexFunc(f.buses, func(b domain.Bus) bool { return b.ID == busID })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrBusNotFound, busID)
	}

	if idx != f.selected {
		f.selected = idx
		f.selection = domain.NewSeatSelection()
		f.assignments = nil
	}
	f.step = domain.StepSeats
	return nil
}

// ToggleSeat flips a seat in the in-progress selection and returns its
// resulting status. Booked seats are left as they are without an error.
func (f *Flow) ToggleSeat(seatID string) (domain.SeatStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != domain.StepSeats {
		return "", f.invalid("toggle seat")
	}
	bus := f.buses[f.selected]
	if !bus.SeatLayout.HasSeat(seatID) {
		return "", fmt.Errorf("%w: %s", ErrUnknownSeat, seatID)
	}
	f.selection.Toggle(bus, seatID)
	return domain.StatusOf(bus, f.selection, seatID), nil
}

// ConfirmSelection confirms the seats gathered through ToggleSeat.
func (f *Flow) ConfirmSelection() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != domain.StepSeats {
		return f.invalid("confirm seats")
	}
	return f.confirmSeats(f.selection.IDs())
}

func (f *Flow) ConfirmSeats(seatIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != domain.StepSeats {
		return f.invalid("confirm seats")
	}
	return f.confirmSeats(seatIDs)
}

// confirmSeats derives one assignment per seat, in the given order.
// Passengers already entered for a seat that stays selected are kept.
func (f *Flow) confirmSeats(seatIDs []string) error {
	if len(seatIDs) == 0 {
		return ErrNoSeatsSelected
	}
	bus := f.buses[f.selected]
	seen := make(map[string]bool, len(seatIDs))
	for _, id := range seatIDs {
		switch {
		case !bus.SeatLayout.HasSeat(id):
			return fmt.Errorf("%w: %s", ErrUnknownSeat, id)
		case seen[id]:
			return fmt.Errorf("%w: %s", ErrDuplicateSeat, id)
		case bus.IsBooked(id):
			return fmt.Errorf("%w: %s", ErrSeatUnavailable, id)
		}
		seen[id] = true
	}
	if len(seatIDs) > bus.AvailableSeats {
		return fmt.Errorf("%w: requested %d, available %d", ErrNotEnoughSeats, len(seatIDs), bus.AvailableSeats)
	}

	previous := make(map[string]domain.Passenger, len(f.assignments))
	for _, a := range f.assignments {
		previous[a.Seat] = a.Passenger
	}
	assignments := make([]domain.SeatAssignment, len(seatIDs))
	for i, id := range seatIDs {
		assignments[i] = domain.SeatAssignment{Seat: id, Passenger: previous[id]}
	}

	f.assignments = assignments
	f.selection = domain.NewSeatSelection(seatIDs...)
	f.step = domain.StepPassenger
	return nil
}

// SubmitPassengers stores one passenger per confirmed seat, positionally.
// Every passenger needs a name, a gender and an age between 1 and 120.
func (f *Flow) SubmitPassengers(passengers []domain.Passenger) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != domain.StepPassenger {
		return f.invalid("submit passengers")
	}
	if len(passengers) != len(f.assignments) {
		return fmt.Errorf("%w: got %d, want %d", ErrPassengerCount, len(passengers), len(f.assignments))
	}

	cleaned := make([]domain.Passenger, len(passengers))
	for i, p := range passengers {
		p.Name = strings.TrimSpace(p.Name)
		if err := validate.Struct(&p); err != nil {
			return fmt.Errorf("%w: passenger %d (seat %s): %v", ErrInvalidPassenger, i+1, f.assignments[i].Seat, err)
		}
		cleaned[i] = p
	}

	for i := range f.assignments {
		f.assignments[i].Passenger = cleaned[i]
	}
	f.step = domain.StepPayment
	return nil
}

// GoBack returns to the previous step without discarding anything.
// Returning to seat selection re-populates it from the confirmed seats.
func (f *Flow) GoBack() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.processing {
		return ErrPaymentInProgress
	}
	switch f.step {
	case domain.StepSeats:
		f.step = domain.StepBuses
	case domain.StepPassenger:
		f.selection = domain.NewSeatSelection(seatsOf(f.assignments)...)
		f.step = domain.StepSeats
	case domain.StepPayment:
		f.step = domain.StepPassenger
	default:
		return f.invalid("go back")
	}
	return nil
}

// NewBooking resets the wizard to the search step. The candidate list,
// including any seats booked in this session, survives the reset.
func (f *Flow) NewBooking() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.processing {
		return ErrPaymentInProgress
	}
	f.selected = -1
	f.selection = nil
	f.assignments = nil
	f.booking = nil
	f.step = domain.StepSearch
	return nil
}

// TotalAmount is the seat count times the selected bus's price. During
// seat selection the in-progress selection is counted.
func (f *Flow) TotalAmount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalAmount()
}

func (f *Flow) totalAmount() int {
	if f.selected < 0 {
		return 0
	}
	count := len(f.assignments)
	if f.step == domain.StepSeats {
		count = f.selection.Len()
	}
	return count * f.buses[f.selected].Price
}

func (f *Flow) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s in step %q", ErrInvalidTransition, action, f.step)
}

func seatsOf(assignments []domain.SeatAssignment) []string {
	seats := make([]string, len(assignments))
	for i, a := range assignments {
		seats[i] = a.Seat
	}
	return seats
}
