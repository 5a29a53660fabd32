package buses

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Domenick1991/busbooking/internal/domain"
)

// FleetSize is the number of candidate buses produced per search.
const FleetSize = 8

var (
	operators = []string{
		"Volvo Express", "Royal Travels", "Interstate Bus Service", "Comfort Travels",
		"Highway Express", "State Transport", "Premium Travels", "Deluxe Coaches",
	}
	busTypes  = []string{"AC Sleeper", "Non-AC Sleeper", "AC Seater", "Non-AC Seater", "Volvo AC"}
	amenities = []string{"WiFi", "Charging Port", "Entertainment", "Blanket", "Water Bottle", "Snacks"}
)

const (
	sleeperSeats = 36
	seaterSeats  = 45

	minDurationHours = 4
	maxDurationHours = 16

	minPrice   = 500
	priceRange = 1500

	minAmenities = 2
	maxAmenities = 5
)

var (
	sleeperLayout = domain.SeatLayout{Rows: 12, SeatsPerRow: 3, AisleAfter: 1}
	seaterLayout  = domain.SeatLayout{Rows: 15, SeatsPerRow: 4, AisleAfter: 2}
)

// Rand is the randomness the generator draws from. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

type globalRand struct{}

func (globalRand) IntN(n int) int    { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

type Generator struct {
	rand Rand
}

// NewGenerator returns a generator drawing from r, or from the
// math/rand/v2 global source when r is nil.
func NewGenerator(r Rand) *Generator {
	if r == nil {
		r = globalRand{}
	}
	return &Generator{rand: r}
}

// Generate synthesises FleetSize candidate buses for a route. The cities
// are not validated and do not influence the result.
//
// Draw order per bus: operator, type, departure hour, departure minute,
// duration, booked count, duration label minutes, price, rating (Float64),
// amenity count.
func (g *Generator) Generate(from, to string) []domain.Bus {
	buses := make([]domain.Bus, 0, FleetSize)
	for i := 0; i < FleetSize; i++ {
		buses = append(buses, g.generateBus(i+1))
	}
	return buses
}

func (g *Generator) generateBus(n int) domain.Bus {
	operator := operators[g.rand.IntN(len(operators))]
	busType := busTypes[g.rand.IntN(len(busTypes))]
	departure := domain.TimeOfDay{Hour: g.rand.IntN(24), Minute: g.rand.IntN(60)}
	duration := minDurationHours + g.rand.IntN(maxDurationHours-minDurationHours+1)

	totalSeats, layout := seaterSeats, seaterLayout
	if domain.IsSleeper(busType) {
		totalSeats, layout = sleeperSeats, sleeperLayout
	}

	bookedCount := 0
	if bound := int(math.Floor(float64(totalSeats) * 0.6)); bound > 0 {
		bookedCount = g.rand.IntN(bound)
	}

	labelMinutes := g.rand.IntN(60)
	price := minPrice + g.rand.IntN(priceRange)
	rating := math.Round((g.rand.Float64()*2+3)*10) / 10
	amenityCount := minAmenities + g.rand.IntN(maxAmenities-minAmenities+1)

	booked := SynthesizeBookedSeats(layout, bookedCount)
	return domain.Bus{
		ID:              fmt.Sprintf("bus-%d", n),
		Name:            operator + " " + busType,
		Operator:        operator,
		Type:            busType,
		DepartureTime:   departure,
		ArrivalTime:     departure.AddHours(duration),
		DurationHours:   duration,
		DurationMinutes: labelMinutes,
		Price:           price,
		Rating:          rating,
		Amenities:       append([]string(nil), amenities[:amenityCount]...),
		TotalSeats:      totalSeats,
		AvailableSeats:  totalSeats - len(booked),
		BookedSeats:     booked,
		SeatLayout:      layout,
	}
}

// SynthesizeBookedSeats returns the first count seats of layout in
// row-major order. Columns come from the layout's own SeatsPerRow, so
// every id exists on the seat map; count is capped at the layout capacity.
func SynthesizeBookedSeats(layout domain.SeatLayout, count int) []string {
	ids := layout.SeatIDs()
	count = max(0, min(count, len(ids)))
	return append(make([]string, 0, count), ids[:count]...)
}
