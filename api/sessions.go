package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FlowFactory builds the wizard for a new session.
type FlowFactory func() *booking.Flow

type SessionHandler struct {
	sessions repository.SessionRepository[*booking.Flow]
	newFlow  FlowFactory
	logger   *slog.Logger
}

type searchRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
	Date string `json:"date" binding:"required"`
}

type selectBusRequest struct {
	BusID string `json:"bus_id" binding:"required"`
}

type toggleSeatRequest struct {
	SeatID string `json:"seat_id" binding:"required"`
}

type confirmSeatsRequest struct {
	Seats []string `json:"seats"`
}

type passengerRequest struct {
	Name   string `json:"name"`
	Gender string `json:"gender"`
	Age    int    `json:"age"`
}

type passengersRequest struct {
	Passengers []passengerRequest `json:"passengers" binding:"required"`
}

type sessionResponse struct {
	ID string `json:"id"`
	booking.View
}

type seatMapResponse struct {
	BusID       string              `json:"bus_id"`
	Rows        [][]domain.SeatCell `json:"rows"`
	TotalAmount int                 `json:"total_amount"`
}

type toggleSeatResponse struct {
	SeatID      string            `json:"seat_id"`
	Status      domain.SeatStatus `json:"status"`
	Selection   []string          `json:"selection"`
	TotalAmount int               `json:"total_amount"`
}

func NewSessionHandler(sessions repository.SessionRepository[*booking.Flow], newFlow FlowFactory, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{sessions: sessions, newFlow: newFlow, logger: logger}
}

func (h *SessionHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.delete)
	router.POST("/:id/search", h.search)
	router.POST("/:id/bus", h.selectBus)
	router.GET("/:id/seatmap", h.seatMap)
	router.POST("/:id/seats/toggle", h.toggleSeat)
	router.POST("/:id/seats/confirm", h.confirmSeats)
	router.POST("/:id/passengers", h.passengers)
	router.POST("/:id/payment", h.payment)
	router.POST("/:id/back", h.back)
	router.POST("/:id/new", h.newBooking)
	router.GET("/:id/ticket", h.ticket)
}

func (h *SessionHandler) create(c *gin.Context) {
	id := uuid.NewString()
	flow := h.newFlow()
	if err := h.sessions.Create(c.Request.Context(), id, flow); err != nil {
		h.writeError(c, err)
		return
	}
	h.logger.Info("session created", "session_id", id)
	c.JSON(http.StatusCreated, sessionResponse{ID: id, View: flow.Snapshot()})
}

func (h *SessionHandler) get(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: c.Param("id"), View: flow.Snapshot()})
}

func (h *SessionHandler) delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, http.StatusOK, func(f *booking.Flow) error {
		return f.Search(c.Request.Context(), req.From, req.To, req.Date)
	})
}

func (h *SessionHandler) selectBus(c *gin.Context) {
	var req selectBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, http.StatusOK, func(f *booking.Flow) error {
		return f.SelectBus(req.BusID)
	})
}

func (h *SessionHandler) seatMap(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	rows, err := flow.SeatMap()
	if err != nil {
		h.writeError(c, err)
		return
	}
	view := flow.Snapshot()
	if view.SelectedBus == nil {
		h.writeError(c, booking.ErrNoBusSelected)
		return
	}
	c.JSON(http.StatusOK, seatMapResponse{
		BusID:       view.SelectedBus.ID,
		Rows:        rows,
		TotalAmount: view.TotalAmount,
	})
}

func (h *SessionHandler) toggleSeat(c *gin.Context) {
	var req toggleSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	status, err := flow.ToggleSeat(req.SeatID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	view := flow.Snapshot()
	c.JSON(http.StatusOK, toggleSeatResponse{
		SeatID:      req.SeatID,
		Status:      status,
		Selection:   view.Selection,
		TotalAmount: view.TotalAmount,
	})
}

// confirmSeats confirms the seats listed in the body, or the seats toggled
// so far when the body is empty or lists none.
func (h *SessionHandler) confirmSeats(c *gin.Context) {
	var req confirmSeatsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, http.StatusOK, func(f *booking.Flow) error {
		if len(req.Seats) == 0 {
			return f.ConfirmSelection()
		}
		return f.ConfirmSeats(req.Seats)
	})
}

func (h *SessionHandler) passengers(c *gin.Context) {
	var req passengersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	passengers := make([]domain.Passenger, len(req.Passengers))
	for i, p := range req.Passengers {
		passengers[i] = domain.Passenger{Name: p.Name, Gender: domain.Gender(p.Gender), Age: p.Age}
	}
	h.transition(c, http.StatusOK, func(f *booking.Flow) error {
		return f.SubmitPassengers(passengers)
	})
}

// payment starts the simulated payment. The ticket becomes available once
// the payment delay has passed.
func (h *SessionHandler) payment(c *gin.Context) {
	h.transition(c, http.StatusAccepted, func(f *booking.Flow) error {
		return f.StartPayment(c.Request.Context())
	})
}

func (h *SessionHandler) back(c *gin.Context) {
	h.transition(c, http.StatusOK, func(f *booking.Flow) error {
		return f.GoBack()
	})
}

func (h *SessionHandler) newBooking(c *gin.Context) {
	h.transition(c, http.StatusOK, func(f *booking.Flow) error {
		return f.NewBooking()
	})
}

func (h *SessionHandler) ticket(c *gin.Context) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	b, ok := flow.Booking()
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "booking is not complete", "step": flow.Step()})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *SessionHandler) flow(c *gin.Context) (*booking.Flow, bool) {
	flow, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return flow, true
}

func (h *SessionHandler) transition(c *gin.Context, status int, apply func(*booking.Flow) error) {
	flow, ok := h.flow(c)
	if !ok {
		return
	}
	if err := apply(flow); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(status, sessionResponse{ID: c.Param("id"), View: flow.Snapshot()})
}

func (h *SessionHandler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, booking.ErrBusNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrInvalidTransition),
		errors.Is(err, booking.ErrPaymentInProgress),
		errors.Is(err, booking.ErrNoBusSelected),
		errors.Is(err, booking.ErrSeatUnavailable),
		errors.Is(err, booking.ErrNotEnoughSeats):
		return http.StatusConflict
	case errors.Is(err, booking.ErrMissingSearchField),
		errors.Is(err, booking.ErrNoSeatsSelected):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrUnknownSeat),
		errors.Is(err, booking.ErrDuplicateSeat),
		errors.Is(err, booking.ErrPassengerCount),
		errors.Is(err, booking.ErrInvalidPassenger):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
