package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/kafka"
	"github.com/Domenick1991/busbooking/internal/service/buses"
)

const bookingIDPrefix = "BUS"

// StartPayment begins the simulated payment. PaymentSucceeded fires once
// the payment delay has elapsed. The pending payment is detached from
// ctx's cancellation and cannot be aborted; a second call while it is
// pending is rejected.
func (f *Flow) StartPayment(ctx context.Context) error {
	f.mu.Lock()
	if f.step != domain.StepPayment {
		err := f.invalid("start payment")
		f.mu.Unlock()
		return err
	}
	if f.processing {
		f.mu.Unlock()
		return ErrPaymentInProgress
	}
	f.processing = true
	f.paymentSeq++
	seq := f.paymentSeq
	delay := f.paymentDelay
	f.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	f.clock.AfterFunc(delay, func() {
		f.paymentTimerFired(detached, seq)
	})
	f.logger.Info("payment started", "amount", f.TotalAmount(), "delay", delay)
	return nil
}

func (f *Flow) paymentTimerFired(ctx context.Context, seq int) {
	f.mu.Lock()
	if !f.processing || f.paymentSeq != seq || f.step != domain.StepPayment {
		f.mu.Unlock()
		return
	}
	booking, err := f.completePayment(ctx)
	f.mu.Unlock()

	if err != nil {
		f.logger.Warn("payment could not be completed", "error", err)
		return
	}
	f.publish(ctx, "booking_confirmed", booking)
}

// PaymentSucceeded finalises the booking: it commits the seats to the
// shared inventory, builds the immutable Booking record and moves to the
// ticket step. When another booking took one of the seats first it
// returns ErrSeatUnavailable and the wizard goes back to seat selection
// with the seats that are still free.
func (f *Flow) PaymentSucceeded(ctx context.Context) (*domain.Booking, error) {
	f.mu.Lock()
	if f.step != domain.StepPayment {
		err := f.invalid("complete payment")
		f.mu.Unlock()
		return nil, err
	}
	booking, err := f.completePayment(ctx)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	f.publish(ctx, "booking_confirmed", booking)
	out := booking.Clone()
	return &out, nil
}

// completePayment must be called with f.mu held.
func (f *Flow) completePayment(ctx context.Context) (domain.Booking, error) {
	bus := &f.buses[f.selected]
	seats := seatsOf(f.assignments)
	f.processing = false

	booked, err := f.searcher.Book(ctx, f.search, bus.ID, seats)
	if errors.Is(err, buses.ErrSeatTaken) {
		bus.BookSeats(booked)
		free := slices.DeleteFunc(slices.Clone(seats), bus.IsBooked)
		f.selection = domain.NewSeatSelection(free...)
		f.step = domain.StepSeats
		f.logger.Info("seats taken before payment completed", "bus_id", bus.ID, "seats", seats, "still_free", free)
		return domain.Booking{}, fmt.Errorf("%w: %w", ErrSeatUnavailable, err)
	}
	if err != nil {
		return domain.Booking{}, fmt.Errorf("commit seats: %w", err)
	}

	now := f.clock.Now()
	booking := domain.Booking{
		ID:          fmt.Sprintf("%s%d", bookingIDPrefix, now.UnixMilli()),
		Bus:         bus.Clone(),
		Assignments: append([]domain.SeatAssignment(nil), f.assignments...),
		TotalAmount: len(seats) * bus.Price,
		BookingDate: now.Format("2006-01-02"),
		From:        f.search.From,
		To:          f.search.To,
		TravelDate:  f.search.Date,
	}
	bus.BookSeats(booked)

	f.booking = &booking
	f.step = domain.StepTicket
	f.logger.Info("booking confirmed", "booking_id", booking.ID, "bus_id", bus.ID, "seats", seats, "total_amount", booking.TotalAmount)
	return booking.Clone(), nil
}

func (f *Flow) publish(ctx context.Context, eventType string, booking domain.Booking) {
	if f.producer == nil || f.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, booking)
	if err := f.producer.Publish(ctx, f.bookingTopic, booking.ID, event); err != nil {
		f.logger.Warn("failed to publish booking event", "type", eventType, "booking_id", booking.ID, "error", err)
		return
	}
	if f.notificationsTopic != "" {
		if err := f.producer.Publish(ctx, f.notificationsTopic, booking.ID, event); err != nil {
			f.logger.Warn("failed to publish booking notification", "type", eventType, "booking_id", booking.ID, "error", err)
		}
	}
}
