package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Domenick1991/busbooking/internal/kafka"
)

// Sender delivers ticket confirmations. Delivery is a structured log line
// per passenger.
type Sender struct {
	logger *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if len(event.Passengers) == 0 {
		return fmt.Errorf("booking %s has no passengers", event.BookingID)
	}
	for _, p := range event.Passengers {
		s.logger.InfoContext(ctx, "ticket confirmation sent",
			"booking_id", event.BookingID,
			"type", event.Type,
			"passenger", p.Name,
			"seat", p.Seat,
			"bus", event.BusName,
			"route", event.From+" -> "+event.To,
			"travel_date", event.TravelDate,
			"departure", event.Departure,
		)
	}
	return nil
}
