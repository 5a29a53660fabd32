package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/segmentio/kafka-go"
)

type PassengerSeat struct {
	Seat   string `json:"seat"`
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
}

type BookingEvent struct {
	Type        string          `json:"type"`
	BookingID   string          `json:"booking_id"`
	BusID       string          `json:"bus_id"`
	BusName     string          `json:"bus_name"`
	Departure   string          `json:"departure"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	TravelDate  string          `json:"travel_date"`
	BookingDate string          `json:"booking_date"`
	Passengers  []PassengerSeat `json:"passengers"`
	TotalAmount int             `json:"total_amount"`
}

func NewBookingEvent(eventType string, b domain.Booking) BookingEvent {
	passengers := make([]PassengerSeat, len(b.Assignments))
	for i, a := range b.Assignments {
		passengers[i] = PassengerSeat{
			Seat:   a.Seat,
			Name:   a.Passenger.Name,
			Gender: string(a.Passenger.Gender),
			Age:    a.Passenger.Age,
		}
	}
	return BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		BusID:       b.Bus.ID,
		BusName:     b.Bus.Name,
		Departure:   b.Bus.DepartureTime.String(),
		From:        b.From,
		To:          b.To,
		TravelDate:  b.TravelDate,
		BookingDate: b.BookingDate,
		Passengers:  passengers,
		TotalAmount: b.TotalAmount,
	}
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	logger  *slog.Logger
}

func NewProducer(brokers []string, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		logger:  logger,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	p.logger.Debug("published to kafka", "topic", topic, "key", key)
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	p.logger.Info("connected to kafka", "broker", p.brokers[0], "partitions", len(partitions))
	return nil
}
