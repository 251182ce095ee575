package assignment

import (
	"context"
	"sync"
	"time"

	"voctnow/models"
)

type memStore struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	// conflicts makes the next N saves lose the version race.
	conflicts int
	saves     int
}

func newMemStore(bookings ...*models.Booking) *memStore {
	s := &memStore{bookings: make(map[string]*models.Booking)}
	for _, b := range bookings {
		s.bookings[b.ID] = b.Clone()
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id string) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	return b.Clone(), nil
}

func (s *memStore) SaveAssignment(_ context.Context, b *models.Booking) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bookings[b.ID]
	if !ok {
		return false, models.ErrRecordNotFound
	}
	if s.conflicts > 0 {
		s.conflicts--
		cur.Version++
		return false, nil
	}
	if cur.Version != b.Version {
		return false, nil
	}
	b.Version++
	s.bookings[b.ID] = b.Clone()
	s.saves++
	return true, nil
}

func (s *memStore) get(id string) *models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings[id].Clone()
}

type memDirectory struct {
	mu        sync.Mutex
	providers []models.Provider
	queries   []models.CandidateFilter
	// err fails every query while set.
	err error
}

func (d *memDirectory) setErr(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *memDirectory) FindCandidates(_ context.Context, f models.CandidateFilter) ([]models.Provider, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.queries = append(d.queries, f)
	if d.err != nil {
		return nil, d.err
	}

	excluded := make(map[string]bool, len(f.Exclude))
	for _, id := range f.Exclude {
		excluded[id] = true
	}
	var out []models.Provider
	for _, p := range d.providers {
		if !p.IsAvailable || !p.IsVerified || excluded[p.ID] {
			continue
		}
		if f.Gender != "" && p.Gender != f.Gender {
			continue
		}
		out = append(out, p)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

type notification struct {
	kind      string
	bookingID string
	provider  string
	expiresAt *time.Time
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) add(v notification) {
	n.mu.Lock()
	n.sent = append(n.sent, v)
	n.mu.Unlock()
}

func (n *recordingNotifier) AssignmentOffered(_ context.Context, b *models.Booking, p *models.Provider, expiresAt *time.Time) {
	n.add(notification{kind: models.MsgPhysioAssigned, bookingID: b.ID, provider: p.ID, expiresAt: expiresAt})
}

func (n *recordingNotifier) AssignmentConfirmed(_ context.Context, b *models.Booking) {
	n.add(notification{kind: models.MsgPhysioConfirmed, bookingID: b.ID, provider: b.AssignedProviderID})
}

func (n *recordingNotifier) NoProviderAvailable(_ context.Context, b *models.Booking) {
	n.add(notification{kind: models.MsgNoProviderAvailable, bookingID: b.ID})
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, b *models.Booking, providerID string) {
	n.add(notification{kind: models.MsgBookingCancelled, bookingID: b.ID, provider: providerID})
}

func (n *recordingNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.kind)
	}
	return out
}

// blockingNotifier stalls offers until release is closed.
type blockingNotifier struct {
	*recordingNotifier
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) AssignmentOffered(ctx context.Context, b *models.Booking, p *models.Provider, expiresAt *time.Time) {
	n.entered <- struct{}{}
	<-n.release
	n.recordingNotifier.AssignmentOffered(ctx, b, p, expiresAt)
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]time.Time
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]time.Time)}
}

func (s *fakeScheduler) Schedule(_ context.Context, bookingID string, attempt int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled[timerKey(bookingID, attempt)] = at
	return nil
}

func (s *fakeScheduler) Cancel(_ context.Context, bookingID string, attempt int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := timerKey(bookingID, attempt)
	delete(s.scheduled, key)
	s.cancelled = append(s.cancelled, key)
	return nil
}

type memEvents struct {
	mu     sync.Mutex
	events []models.BookingEvent
}

func (m *memEvents) Append(_ context.Context, e *models.BookingEvent) error {
	m.mu.Lock()
	m.events = append(m.events, *e)
	m.mu.Unlock()
	return nil
}

func (m *memEvents) kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Kind)
	}
	return out
}

func confirmedBooking(id string) *models.Booking {
	return &models.Booking{
		ID:               id,
		UserID:           "user-" + id,
		ServiceType:      "physiotherapy",
		SessionCount:     1,
		Status:           models.StatusConfirmed,
		PaymentStatus:    models.PaymentPaid,
		AssignmentStatus: models.AssignmentUnassigned,
	}
}

func provider(id, name, gender string) models.Provider {
	return models.Provider{
		ID:          id,
		FullName:    name,
		Gender:      gender,
		IsAvailable: true,
		IsVerified:  true,
	}
}
