package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/karibu-hire/service-rental/internal/domain/access"
	bookingDomain "github.com/karibu-hire/service-rental/internal/domain/booking"
	clientDomain "github.com/karibu-hire/service-rental/internal/domain/client"
	vehicleDomain "github.com/karibu-hire/service-rental/internal/domain/vehicle"
	"github.com/karibu-hire/service-rental/internal/events"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
	"github.com/karibu-hire/service-rental/internal/pkg/auth"
	"github.com/karibu-hire/service-rental/internal/pkg/kafka"
	"github.com/karibu-hire/service-rental/internal/pkg/pagination"
)

// DateLayout is the wire format for booking dates: calendar days, no
// time-of-day component.
const DateLayout = "2006-01-02"

// CurrencyKES is the only currency bookings are priced in.
const CurrencyKES = "KES"

const eventSource = "service-rental"

// EventPublisher publishes CloudEvents to a topic. Satisfied by
// kafka.Producer; tests substitute a capture.
type EventPublisher interface {
	PublishEventWithKey(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ClientID  string `json:"client_id" binding:"required"`
	VehicleID string `json:"vehicle_id" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
}

// UpdateBookingRequest patches a booking's assignment or dates. Empty
// fields keep the current value. Status is never mutated here; use the
// status-change operation.
type UpdateBookingRequest struct {
	ClientID  string `json:"client_id"`
	VehicleID string `json:"vehicle_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID             uuid.UUID  `json:"id"`
	BookingNumber  string     `json:"booking_number"`
	ClientID       uuid.UUID  `json:"client_id"`
	VehicleID      uuid.UUID  `json:"vehicle_id"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	Status         string     `json:"status"`
	Days           int        `json:"days"`
	DailyRateCents int64      `json:"daily_rate_cents"`
	TotalCents     int64      `json:"total_cents"`
	Currency       string     `json:"currency"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelNote     string     `json:"cancel_note,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// BookingService orchestrates the booking lifecycle: validation,
// availability, pricing, persistence and status transitions.
type BookingService struct {
	bookings bookingDomain.Repository
	clients  clientDomain.Repository
	vehicles vehicleDomain.Repository
	pricer   bookingDomain.Pricer
	policy   access.Policy
	producer EventPublisher
	logger   *zap.Logger

	// now is the server clock; day-truncated for the no-past-start rule.
	now func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.Repository,
	clients clientDomain.Repository,
	vehicles vehicleDomain.Repository,
	pricer bookingDomain.Pricer,
	policy access.Policy,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		clients:  clients,
		vehicles: vehicles,
		pricer:   pricer,
		policy:   policy,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking validates the request, checks vehicle availability,
// prices the range at the vehicle's current rate and persists the
// booking. The price is pinned here: later rate changes never touch it.
func (s *BookingService) CreateBooking(ctx context.Context, role auth.Role, req CreateBookingRequest) (*BookingDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleBookings, access.ActionCreate) {
		return nil, apperr.NewPermissionDenied("role may not create bookings")
	}

	input, err := parseBookingInput(req.ClientID, req.VehicleID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	validated, err := input.Validate(s.now())
	if err != nil {
		return nil, err
	}

	cl, err := s.clients.FindByID(ctx, validated.ClientID)
	if err != nil {
		return nil, err
	}
	if cl.Status() != clientDomain.StatusActive {
		return nil, apperr.Newf(apperr.KindValidation, "client is %s and cannot book", cl.Status())
	}

	veh, err := s.vehicles.FindByID(ctx, validated.VehicleID)
	if err != nil {
		return nil, err
	}

	// Early answer only; the store enforces the invariant atomically on
	// insert, so a race loser still fails with the same error.
	if err := s.ensureAvailable(ctx, validated.VehicleID, validated.Range, nil); err != nil {
		return nil, err
	}

	quote, err := s.pricer.Quote(veh.DailyRateCents(), validated.Range)
	if err != nil {
		return nil, apperr.NewValidation(err.Error())
	}

	bk, err := bookingDomain.NewBooking(validated, quote, veh.DailyRateCents(), CurrencyKES)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("vehicle_id", bk.VehicleID().String()),
		zap.Int("days", bk.Days()),
		zap.Int64("total_cents", bk.TotalCents()),
	)

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ClientID:      bk.ClientID(),
		VehicleID:     bk.VehicleID(),
		StartDate:     bk.Dates().Start,
		EndDate:       bk.Dates().End,
		Days:          bk.Days(),
		TotalCents:    bk.TotalCents(),
		Currency:      bk.Currency(),
		OccurredAt:    time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateBooking patches a booking's assignment or dates, re-running
// validation and the availability check (excluding the booking itself)
// when they change. The price is re-pinned from the target vehicle's
// current rate whenever the vehicle or dates change.
func (s *BookingService) UpdateBooking(ctx context.Context, role auth.Role, bookingID uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleBookings, access.ActionEdit) {
		return nil, apperr.NewPermissionDenied("role may not edit bookings")
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Merge the patch over current values.
	clientID, vehicleID := bk.ClientID().String(), bk.VehicleID().String()
	startDate, endDate := bk.Dates().Start.Format(DateLayout), bk.Dates().End.Format(DateLayout)
	if req.ClientID != "" {
		clientID = req.ClientID
	}
	if req.VehicleID != "" {
		vehicleID = req.VehicleID
	}
	if req.StartDate != "" {
		startDate = req.StartDate
	}
	if req.EndDate != "" {
		endDate = req.EndDate
	}

	input, err := parseBookingInput(clientID, vehicleID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	datesChanged := !input.StartDate.Equal(bk.Dates().Start) || !input.EndDate.Equal(bk.Dates().End)
	vehicleChanged := input.VehicleID != bk.VehicleID()
	clientChanged := input.ClientID != bk.ClientID()
	if !datesChanged && !vehicleChanged && !clientChanged {
		result := toBookingDTO(bk)
		return &result, nil
	}

	validated, err := input.Validate(s.now())
	if err != nil {
		return nil, err
	}

	if clientChanged {
		if _, err := s.clients.FindByID(ctx, validated.ClientID); err != nil {
			return nil, err
		}
	}

	veh, err := s.vehicles.FindByID(ctx, validated.VehicleID)
	if err != nil {
		return nil, err
	}

	if datesChanged || vehicleChanged {
		excludeID := bk.ID()
		if err := s.ensureAvailable(ctx, validated.VehicleID, validated.Range, &excludeID); err != nil {
			return nil, err
		}
	}

	quote := bookingDomain.Quote{Days: bk.Days(), TotalCents: bk.TotalCents()}
	rate := bk.DailyRateCents()
	if datesChanged || vehicleChanged {
		rate = veh.DailyRateCents()
		quote, err = s.pricer.Quote(rate, validated.Range)
		if err != nil {
			return nil, apperr.NewValidation(err.Error())
		}
	}

	bk.Reschedule(validated, quote, rate)
	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingUpdated, bk.ID().String(), events.BookingUpdatedEvent{
		BookingID:  bk.ID(),
		ClientID:   bk.ClientID(),
		VehicleID:  bk.VehicleID(),
		StartDate:  bk.Dates().Start,
		EndDate:    bk.Dates().End,
		Days:       bk.Days(),
		TotalCents: bk.TotalCents(),
		OccurredAt: time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// ChangeBookingStatus applies the lifecycle state machine: active may
// complete or cancel, terminal states admit nothing.
func (s *BookingService) ChangeBookingStatus(ctx context.Context, role auth.Role, bookingID uuid.UUID, newStatus, reason string) (*BookingDTO, error) {
	if !s.policy.HasPermission(role, access.ModuleBookings, access.ActionCancel) {
		return nil, apperr.NewPermissionDenied("role may not change booking status")
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	target, err := bookingDomain.ParseStatus(newStatus)
	if err != nil {
		if bk.Status().IsTerminal() {
			return nil, apperr.NewTerminalState(string(bk.Status()))
		}
		return nil, apperr.NewInvalidTransition(string(bk.Status()), newStatus)
	}

	if target == bookingDomain.StatusCancelled {
		err = bk.Cancel(reason)
	} else {
		err = bk.ChangeStatus(target)
	}
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	switch target {
	case bookingDomain.StatusCompleted:
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCompleted, bk.ID().String(), events.BookingCompletedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			VehicleID:     bk.VehicleID(),
			TotalCents:    bk.TotalCents(),
			Currency:      bk.Currency(),
			OccurredAt:    time.Now().UTC(),
		})
	case bookingDomain.StatusCancelled:
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), events.BookingCancelledEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			VehicleID:     bk.VehicleID(),
			Reason:        reason,
			OccurredAt:    time.Now().UTC(),
		})
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", string(bk.Status())),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// CompleteFromReturn completes a booking on behalf of the fleet event
// consumer when the vehicle is checked back in. System-initiated, so no
// role check.
func (s *BookingService) CompleteFromReturn(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := bk.Complete(); err != nil {
		return err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		return err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCompleted, bk.ID().String(), events.BookingCompletedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		VehicleID:     bk.VehicleID(),
		TotalCents:    bk.TotalCents(),
		Currency:      bk.Currency(),
		OccurredAt:    time.Now().UTC(),
	})
	return nil
}

// DeleteBooking removes a booking unconditionally: any status may be
// deleted, and the vehicle's dates free up immediately.
func (s *BookingService) DeleteBooking(ctx context.Context, role auth.Role, bookingID uuid.UUID) error {
	if !s.policy.HasPermission(role, access.ModuleBookings, access.ActionDelete) {
		return apperr.NewPermissionDenied("role may not delete bookings")
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.bookings.Delete(ctx, bookingID); err != nil {
		return err
	}

	s.logger.Info("booking deleted",
		zap.String("booking_id", bookingID.String()),
		zap.String("status", string(bk.Status())),
	)

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingDeleted, bookingID.String(), events.BookingDeletedEvent{
		BookingID:  bookingID,
		VehicleID:  bk.VehicleID(),
		Status:     string(bk.Status()),
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// CheckAvailability reports whether the vehicle is free for the range.
// Read-only and idempotent; past dates are allowed since this answers a
// question rather than creating state.
func (s *BookingService) CheckAvailability(ctx context.Context, vehicleID uuid.UUID, startDate, endDate string) (bool, error) {
	if startDate == "" {
		return false, apperr.NewMissingField("start date")
	}
	if endDate == "" {
		return false, apperr.NewMissingField("end date")
	}
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return false, apperr.NewValidation("start date must be formatted YYYY-MM-DD")
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return false, apperr.NewValidation("end date must be formatted YYYY-MM-DD")
	}
	if start.After(end) {
		return false, apperr.NewInvalidDateRange("start date must not be after end date")
	}

	overlapping, err := s.bookings.FindOverlapping(ctx, vehicleID, bookingDomain.NewDateRange(start, end), nil)
	if err != nil {
		return false, err
	}
	return len(overlapping) == 0, nil
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetBookingByNumber retrieves a single booking by its booking number.
func (s *BookingService) GetBookingByNumber(ctx context.Context, number string) (*BookingDTO, error) {
	bk, err := s.bookings.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// GetClientBookings retrieves paginated bookings for a client.
func (s *BookingService) GetClientBookings(ctx context.Context, clientID uuid.UUID, page, limit int) (*pagination.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}
	result := pagination.New(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetVehicleBookings retrieves paginated bookings for a vehicle.
func (s *BookingService) GetVehicleBookings(ctx context.Context, vehicleID uuid.UUID, page, limit int) (*pagination.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.bookings.FindByVehicleID(ctx, vehicleID, page, limit)
	if err != nil {
		return nil, err
	}
	result := pagination.New(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ListBookings returns a paginated list of bookings for any role that
// may view the bookings module.
func (s *BookingService) ListBookings(ctx context.Context, role auth.Role, page, limit int) (*pagination.PaginatedResult[BookingDTO], error) {
	if !s.policy.HasPermission(role, access.ModuleBookings, access.ActionView) {
		return nil, apperr.NewPermissionDenied("role may not view bookings")
	}

	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	result := pagination.New(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Helpers ---

func (s *BookingService) ensureAvailable(ctx context.Context, vehicleID uuid.UUID, r bookingDomain.DateRange, excludeID *uuid.UUID) error {
	overlapping, err := s.bookings.FindOverlapping(ctx, vehicleID, r, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return apperr.NewVehicleUnavailable("vehicle is already booked for the requested dates")
	}
	return nil
}

func parseBookingInput(clientID, vehicleID, startDate, endDate string) (bookingDomain.Input, error) {
	var input bookingDomain.Input

	if clientID != "" {
		id, err := uuid.Parse(clientID)
		if err != nil {
			return input, apperr.NewValidation("client ID must be a valid UUID")
		}
		input.ClientID = id
	}
	if vehicleID != "" {
		id, err := uuid.Parse(vehicleID)
		if err != nil {
			return input, apperr.NewValidation("vehicle ID must be a valid UUID")
		}
		input.VehicleID = id
	}
	if startDate != "" {
		t, err := time.Parse(DateLayout, startDate)
		if err != nil {
			return input, apperr.NewValidation("start date must be formatted YYYY-MM-DD")
		}
		input.StartDate = t
	}
	if endDate != "" {
		t, err := time.Parse(DateLayout, endDate)
		if err != nil {
			return input, apperr.NewValidation("end date must be formatted YYYY-MM-DD")
		}
		input.EndDate = t
	}
	return input, nil
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.producer.PublishEventWithKey(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:             bk.ID(),
		BookingNumber:  bk.BookingNumber(),
		ClientID:       bk.ClientID(),
		VehicleID:      bk.VehicleID(),
		StartDate:      bk.Dates().Start.Format(DateLayout),
		EndDate:        bk.Dates().End.Format(DateLayout),
		Status:         string(bk.Status()),
		Days:           bk.Days(),
		DailyRateCents: bk.DailyRateCents(),
		TotalCents:     bk.TotalCents(),
		Currency:       bk.Currency(),
		CompletedAt:    bk.CompletedAt(),
		CancelledAt:    bk.CancelledAt(),
		CancelNote:     bk.CancelNote(),
		Version:        bk.Version(),
		CreatedAt:      bk.CreatedAt(),
		UpdatedAt:      bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
