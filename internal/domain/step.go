package domain

// Step is one stage of the booking wizard.
type Step string

const (
	StepSearch    Step = "search"
	StepBuses     Step = "buses"
	StepSeats     Step = "seats"
	StepPassenger Step = "passenger"
	StepPayment   Step = "payment"
	StepTicket    Step = "ticket"
)

// Cities offered to the search form for autocompletion.
var Cities = []string{
	"Mumbai", "Delhi", "Bangalore", "Chennai", "Kolkata", "Hyderabad",
	"Pune", "Ahmedabad", "Surat", "Jaipur", "Lucknow", "Kanpur",
	"Nagpur", "Indore", "Patna", "Bhopal", "Agra", "Vadodara",
}
