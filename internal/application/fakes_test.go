package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	paymentDomain "github.com/harborview-hotels/service-reservation/internal/domain/payment"
	reservationDomain "github.com/harborview-hotels/service-reservation/internal/domain/reservation"
	roomDomain "github.com/harborview-hotels/service-reservation/internal/domain/room"
	"github.com/harborview-hotels/service-reservation/pkg/domain"
	"github.com/harborview-hotels/service-reservation/pkg/kafka"
)

// fakeStore is an in-memory implementation of reservation.Repository and
// reservation.LockRepository sharing one mutex, so lock acquisition sees a
// consistent view the way the real transactional implementation does.
type fakeStore struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*reservationDomain.Reservation
	locks        map[uuid.UUID]*reservationDomain.RoomLock // keyed by reservation ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reservations: make(map[uuid.UUID]*reservationDomain.Reservation),
		locks:        make(map[uuid.UUID]*reservationDomain.RoomLock),
	}
}

func (s *fakeStore) FindByID(ctx context.Context, id uuid.UUID) (*reservationDomain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[id]
	if !ok {
		return nil, domain.NewNotFoundError("Reservation", id.String())
	}
	return res, nil
}

func (s *fakeStore) FindByGuestID(ctx context.Context, guestID uuid.UUID, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reservationDomain.Reservation
	for _, r := range s.reservations {
		if r.GuestID() == guestID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) FindActivePendingByGuest(ctx context.Context, guestID uuid.UUID, now time.Time) (*reservationDomain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.GuestID() == guestID && r.Status() == reservationDomain.StatusPending && !r.HoldExpired(now) {
			return r, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindBlockingByRoom(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID, now time.Time) ([]*reservationDomain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockingLocked(roomID, checkIn, checkOut, excludeID, now), nil
}

func (s *fakeStore) blockingLocked(roomID uuid.UUID, checkIn, checkOut time.Time, excludeID uuid.UUID, now time.Time) []*reservationDomain.Reservation {
	var out []*reservationDomain.Reservation
	for _, r := range s.reservations {
		if r.RoomID() != roomID || r.ID() == excludeID {
			continue
		}
		if !r.IsBlocking(now) {
			continue
		}
		if reservationDomain.Overlaps(r.CheckInDate(), r.CheckOutDate(), checkIn, checkOut) {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeStore) FindExpiredPending(ctx context.Context, now time.Time) ([]*reservationDomain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reservationDomain.Reservation
	for _, r := range s.reservations {
		if r.HoldExpired(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) FindByPaymentLinkToken(ctx context.Context, token string) (*reservationDomain.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.PaymentLinkToken() == token {
			return r, nil
		}
	}
	return nil, domain.NewNotFoundError("Reservation", token)
}

func (s *fakeStore) ListAll(ctx context.Context, page, limit int) ([]*reservationDomain.Reservation, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reservationDomain.Reservation
	for _, r := range s.reservations {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (s *fakeStore) Save(ctx context.Context, r *reservationDomain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID()] = r
	return nil
}

func (s *fakeStore) Update(ctx context.Context, r *reservationDomain.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID()] = r
	return nil
}

func (s *fakeStore) CancelIfPending(ctx context.Context, id uuid.UUID, reason string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status() != reservationDomain.StatusPending {
		return false, nil
	}
	if err := r.Cancel(reason, now); err != nil {
		return false, nil
	}
	r.IncrementVersion()
	return true, nil
}

// --- LockRepository ---

func (s *fakeStore) AcquireWithReservation(ctx context.Context, lock *reservationDomain.RoomLock, res *reservationDomain.Reservation, poolSize int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocking := s.blockingLocked(lock.RoomID, lock.CheckInDate, lock.CheckOutDate, uuid.Nil, now)

	var roomLocks []*reservationDomain.RoomLock
	for _, l := range s.locks {
		if l.RoomID == lock.RoomID {
			roomLocks = append(roomLocks, l)
		}
	}
	lockCount := reservationDomain.CountOverlappingLocks(roomLocks, lock.CheckInDate, lock.CheckOutDate, uuid.Nil, now)

	if len(blocking)+lockCount >= poolSize {
		return &reservationDomain.RoomNotAvailableError{
			RoomID:       lock.RoomID,
			CheckInDate:  lock.CheckInDate,
			CheckOutDate: lock.CheckOutDate,
		}
	}

	s.locks[res.ID()] = lock
	s.reservations[res.ID()] = res
	return nil
}

func (s *fakeStore) RescheduleWithReservation(ctx context.Context, res *reservationDomain.Reservation, poolSize int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blocking := s.blockingLocked(res.RoomID(), res.CheckInDate(), res.CheckOutDate(), res.ID(), now)

	var roomLocks []*reservationDomain.RoomLock
	for _, l := range s.locks {
		if l.RoomID == res.RoomID() {
			roomLocks = append(roomLocks, l)
		}
	}
	lockCount := reservationDomain.CountOverlappingLocks(roomLocks, res.CheckInDate(), res.CheckOutDate(), res.ID(), now)

	if len(blocking)+lockCount >= poolSize {
		return &reservationDomain.RoomNotAvailableError{
			RoomID:       res.RoomID(),
			CheckInDate:  res.CheckInDate(),
			CheckOutDate: res.CheckOutDate(),
		}
	}

	s.reservations[res.ID()] = res
	if l, ok := s.locks[res.ID()]; ok {
		l.CheckInDate = res.CheckInDate()
		l.CheckOutDate = res.CheckOutDate()
	}
	return nil
}

func (s *fakeStore) FindOverlapping(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, now time.Time) ([]*reservationDomain.RoomLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*reservationDomain.RoomLock
	for _, l := range s.locks {
		if l.RoomID != roomID || l.Expired(now) {
			continue
		}
		if reservationDomain.Overlaps(l.CheckInDate, l.CheckOutDate, checkIn, checkOut) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeStore) ReleaseByReservationID(ctx context.Context, reservationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, reservationID)
	return nil
}

func (s *fakeStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, l := range s.locks {
		if l.Expired(now) {
			delete(s.locks, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) lockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// --- Catalog ---

type fakeCatalog struct {
	rooms map[uuid.UUID]*roomDomain.Room
}

func newFakeCatalog(rooms ...*roomDomain.Room) *fakeCatalog {
	c := &fakeCatalog{rooms: make(map[uuid.UUID]*roomDomain.Room)}
	for _, r := range rooms {
		c.rooms[r.ID] = r
	}
	return c
}

func (c *fakeCatalog) GetRoom(ctx context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	r, ok := c.rooms[id]
	if !ok {
		return nil, domain.NewNotFoundError("Room", id.String())
	}
	return r, nil
}

func (c *fakeCatalog) ListRooms(ctx context.Context, minCapacity int) ([]*roomDomain.Room, error) {
	var out []*roomDomain.Room
	for _, r := range c.rooms {
		if r.Capacity >= minCapacity {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- Payment repository ---

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*paymentDomain.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]*paymentDomain.Payment)}
}

func (p *fakePaymentRepo) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*paymentDomain.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pay := range p.payments {
		if pay.ReservationID == reservationID {
			return pay, nil
		}
	}
	return nil, nil
}

func (p *fakePaymentRepo) Save(ctx context.Context, pay *paymentDomain.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments[pay.ID] = pay
	return nil
}

func (p *fakePaymentRepo) Update(ctx context.Context, pay *paymentDomain.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments[pay.ID] = pay
	return nil
}

// --- Gateway ---

type refundCall struct {
	chargeID string
	amount   decimal.Decimal
}

type fakeGateway struct {
	mu          sync.Mutex
	chargeErr   error
	refundErr   error
	refundCalls []refundCall
	chargeHook  func() // runs while the charge is in flight
}

func (g *fakeGateway) Charge(ctx context.Context, amount decimal.Decimal, currency, token string) (paymentDomain.ChargeResult, error) {
	if g.chargeErr != nil {
		return paymentDomain.ChargeResult{}, g.chargeErr
	}
	if g.chargeHook != nil {
		g.chargeHook()
	}
	return paymentDomain.ChargeResult{ChargeID: "ch_" + token, Status: "captured"}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, chargeID string, amount decimal.Decimal, reason string) (paymentDomain.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return paymentDomain.RefundResult{}, g.refundErr
	}
	g.refundCalls = append(g.refundCalls, refundCall{chargeID: chargeID, amount: amount})
	return paymentDomain.RefundResult{RefundID: "rfnd_1", Status: "processing"}, nil
}

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, reservationID uuid.UUID, amount decimal.Decimal, currency, description string) (paymentDomain.PaymentLink, error) {
	return paymentDomain.PaymentLink{Token: "plink_" + reservationID.String()[:8], URL: "https://pay.test/plink"}, nil
}

// --- Publisher ---

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *fakePublisher) PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) ofType(eventType string) []kafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []kafka.CloudEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
