package domain

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type Passenger struct {
	Name   string `json:"name" validate:"required"`
	Gender Gender `json:"gender" validate:"required,oneof=Male Female Other"`
	Age    int    `json:"age" validate:"min=1,max=120"`
}

// SeatAssignment ties a seat to the passenger travelling in it.
type SeatAssignment struct {
	Seat      string    `json:"seat"`
	Passenger Passenger `json:"passenger"`
}

type SearchParams struct {
	From string `json:"from"`
	To   string `json:"to"`
	Date string `json:"date"`
}

type Booking struct {
	ID          string           `json:"id"`
	Bus         Bus              `json:"bus"`
	Assignments []SeatAssignment `json:"assignments"`
	TotalAmount int              `json:"total_amount"`
	BookingDate string           `json:"booking_date"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	TravelDate  string           `json:"travel_date"`
}

func (b Booking) Seats() []string {
	seats := make([]string, len(b.Assignments))
	for i, a := range b.Assignments {
		seats[i] = a.Seat
	}
	return seats
}

func (b Booking) Passengers() []Passenger {
	passengers := make([]Passenger, len(b.Assignments))
	for i, a := range b.Assignments {
		passengers[i] = a.Passenger
	}
	return passengers
}

// Clone returns a copy that shares no slices with b.
func (b Booking) Clone() Booking {
	b.Bus = b.Bus.Clone()
	b.Assignments = append([]SeatAssignment(nil), b.Assignments...)
	return b
}
