package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	bookingDomain "github.com/karibu-hire/service-rental/internal/domain/booking"
	clientDomain "github.com/karibu-hire/service-rental/internal/domain/client"
	vehicleDomain "github.com/karibu-hire/service-rental/internal/domain/vehicle"
	"github.com/karibu-hire/service-rental/internal/pkg/apperr"
	"github.com/karibu-hire/service-rental/internal/pkg/kafka"
)

// seedActiveBookingFor stores an active booking referencing the given
// client and vehicle, bypassing the service layer.
func seedActiveBookingFor(t *testing.T, repo *memBookingRepo, clientID, vehicleID uuid.UUID) *bookingDomain.Booking {
	t.Helper()
	in := bookingDomain.Input{
		ClientID:  clientID,
		VehicleID: vehicleID,
		StartDate: time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC),
	}
	validated, err := in.Validate(time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	quote, err := bookingDomain.NewStandardPricer().Quote(500000, validated.Range)
	require.NoError(t, err)
	bk, err := bookingDomain.NewBooking(validated, quote, 500000, "KES")
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), bk))
	return bk
}

// memBookingRepo is an in-memory booking repository. Save and Update
// enforce the no-overlap invariant under the same lock as the write,
// mirroring what the exclusion constraint does in Postgres.
type memBookingRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*bookingDomain.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{items: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.items[id]
	if !ok {
		return nil, apperr.NewNotFound("booking", id.String())
	}
	return bk, nil
}

func (r *memBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bk := range r.items {
		if bk.BookingNumber() == number {
			return bk, nil
		}
	}
	return nil, apperr.NewNotFound("booking", number)
}

func (r *memBookingRepo) FindOverlapping(_ context.Context, vehicleID uuid.UUID, rng bookingDomain.DateRange, excludeID *uuid.UUID) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlappingLocked(vehicleID, rng, excludeID), nil
}

func (r *memBookingRepo) overlappingLocked(vehicleID uuid.UUID, rng bookingDomain.DateRange, excludeID *uuid.UUID) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, bk := range r.items {
		if bk.VehicleID() != vehicleID || bk.Status() != bookingDomain.StatusActive {
			continue
		}
		if excludeID != nil && bk.ID() == *excludeID {
			continue
		}
		if bk.Dates().Overlaps(rng) {
			out = append(out, bk)
		}
	}
	return out
}

func (r *memBookingRepo) FindByClientID(_ context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.items {
		if bk.ClientID() == clientID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) FindByVehicleID(_ context.Context, vehicleID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.items {
		if bk.VehicleID() == vehicleID {
			out = append(out, bk)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) CountActiveByClientID(_ context.Context, clientID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, bk := range r.items {
		if bk.ClientID() == clientID && bk.Status() == bookingDomain.StatusActive {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) CountActiveByVehicleID(_ context.Context, vehicleID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, bk := range r.items {
		if bk.VehicleID() == vehicleID && bk.Status() == bookingDomain.StatusActive {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*bookingDomain.Booking, 0, len(r.items))
	for _, bk := range r.items {
		out = append(out, bk)
	}
	return out, int64(len(out)), nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.items {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *memBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.Status() == bookingDomain.StatusActive {
		if len(r.overlappingLocked(b.VehicleID(), b.Dates(), nil)) > 0 {
			return apperr.NewVehicleUnavailable("vehicle is already booked for the requested dates")
		}
	}
	r.items[b.ID()] = b
	return nil
}

func (r *memBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID()]; !ok {
		return apperr.NewNotFound("booking", b.ID().String())
	}
	if b.Status() == bookingDomain.StatusActive {
		id := b.ID()
		if len(r.overlappingLocked(b.VehicleID(), b.Dates(), &id)) > 0 {
			return apperr.NewVehicleUnavailable("vehicle is already booked for the requested dates")
		}
	}
	r.items[b.ID()] = b
	return nil
}

func (r *memBookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.NewNotFound("booking", id.String())
	}
	delete(r.items, id)
	return nil
}

// memClientRepo is an in-memory client repository.
type memClientRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*clientDomain.Client
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{items: make(map[uuid.UUID]*clientDomain.Client)}
}

func (r *memClientRepo) FindByID(_ context.Context, id uuid.UUID) (*clientDomain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cl, ok := r.items[id]
	if !ok {
		return nil, apperr.NewNotFound("client", id.String())
	}
	return cl, nil
}

func (r *memClientRepo) FindByIDOrPassport(_ context.Context, idOrPassport string) (*clientDomain.Client, error) {
	return r.findBy(func(cl *clientDomain.Client) bool {
		return strings.EqualFold(cl.IDOrPassport(), idOrPassport)
	}, idOrPassport)
}

func (r *memClientRepo) FindByPhone(_ context.Context, phone string) (*clientDomain.Client, error) {
	return r.findBy(func(cl *clientDomain.Client) bool {
		return cl.Phone() == phone
	}, phone)
}

func (r *memClientRepo) FindByLicenseNumber(_ context.Context, licenseNumber string) (*clientDomain.Client, error) {
	return r.findBy(func(cl *clientDomain.Client) bool {
		return strings.EqualFold(cl.LicenseNumber(), licenseNumber)
	}, licenseNumber)
}

func (r *memClientRepo) findBy(match func(*clientDomain.Client) bool, key string) (*clientDomain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cl := range r.items {
		if match(cl) {
			return cl, nil
		}
	}
	return nil, apperr.NewNotFound("client", key)
}

func (r *memClientRepo) ListAll(_ context.Context, page, limit int) ([]*clientDomain.Client, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*clientDomain.Client, 0, len(r.items))
	for _, cl := range r.items {
		out = append(out, cl)
	}
	return out, int64(len(out)), nil
}

func (r *memClientRepo) Save(_ context.Context, c *clientDomain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID()] = c
	return nil
}

func (r *memClientRepo) Update(_ context.Context, c *clientDomain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[c.ID()]; !ok {
		return apperr.NewNotFound("client", c.ID().String())
	}
	r.items[c.ID()] = c
	return nil
}

func (r *memClientRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.NewNotFound("client", id.String())
	}
	delete(r.items, id)
	return nil
}

// memVehicleRepo is an in-memory vehicle repository.
type memVehicleRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*vehicleDomain.Vehicle
}

func newMemVehicleRepo() *memVehicleRepo {
	return &memVehicleRepo{items: make(map[uuid.UUID]*vehicleDomain.Vehicle)}
}

func (r *memVehicleRepo) FindByID(_ context.Context, id uuid.UUID) (*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	veh, ok := r.items[id]
	if !ok {
		return nil, apperr.NewNotFound("vehicle", id.String())
	}
	return veh, nil
}

func (r *memVehicleRepo) FindByLicensePlate(_ context.Context, plate string) (*vehicleDomain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, veh := range r.items {
		if strings.EqualFold(veh.LicensePlate(), plate) {
			return veh, nil
		}
	}
	return nil, apperr.NewNotFound("vehicle", plate)
}

func (r *memVehicleRepo) ListAll(_ context.Context, page, limit int) ([]*vehicleDomain.Vehicle, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*vehicleDomain.Vehicle, 0, len(r.items))
	for _, veh := range r.items {
		out = append(out, veh)
	}
	return out, int64(len(out)), nil
}

func (r *memVehicleRepo) Save(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[v.ID()] = v
	return nil
}

func (r *memVehicleRepo) Update(_ context.Context, v *vehicleDomain.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[v.ID()]; !ok {
		return apperr.NewNotFound("vehicle", v.ID().String())
	}
	r.items[v.ID()] = v
	return nil
}

func (r *memVehicleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return apperr.NewNotFound("vehicle", id.String())
	}
	delete(r.items, id)
	return nil
}

// publishedEvent records one publish call.
type publishedEvent struct {
	Topic string
	Key   string
	Event kafka.CloudEvent
}

// capturePublisher records published events instead of hitting Kafka.
type capturePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturePublisher) PublishEventWithKey(_ context.Context, topic, key string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *capturePublisher) byType(eventType string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
