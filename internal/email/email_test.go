package email

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_Send(t *testing.T) {
	var buf bytes.Buffer
	sender := NewSender(slog.New(slog.NewTextHandler(&buf, nil)))

	err := sender.Send(context.Background(), kafka.BookingEvent{
		Type:      "booking_confirmed",
		BookingID: "BUS1",
		BusName:   "Royal Travels AC Sleeper",
		From:      "Mumbai",
		To:        "Delhi",
		Passengers: []kafka.PassengerSeat{
			{Seat: "1A", Name: "A"},
			{Seat: "1B", Name: "B"},
		},
	})

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "booking_id=BUS1")
	assert.Contains(t, lines[0], "seat=1A")
	assert.Contains(t, lines[1], "passenger=B")
}

func TestSender_SendWithoutPassengers(t *testing.T) {
	sender := NewSender(nil)
	err := sender.Send(context.Background(), kafka.BookingEvent{BookingID: "BUS2"})
	assert.ErrorContains(t, err, "BUS2")
}
