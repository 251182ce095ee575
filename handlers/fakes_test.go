package handlers

import (
	"context"
	"sync"

	"voctnow/models"
	"voctnow/services/assignment"
)

type fakeBookings struct {
	created  *models.BookingInput
	createFn func(in models.BookingInput) (*models.Booking, error)
	byID     map[string]*models.Booking
	byUser   map[string][]models.Booking
	byProv   map[string][]models.Booking
	getErr   error
}

func (f *fakeBookings) Create(_ context.Context, in models.BookingInput) (*models.Booking, error) {
	f.created = &in
	return f.createFn(in)
}

func (f *fakeBookings) Get(_ context.Context, id string) (*models.Booking, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.byID[id]
	if !ok {
		return nil, assignment.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookings) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	return f.byUser[userID], nil
}

func (f *fakeBookings) ListByProvider(_ context.Context, providerID string) ([]models.Booking, error) {
	return f.byProv[providerID], nil
}

type lifecycleCall struct {
	op         string
	bookingID  string
	providerID string
	text       string
	actor      string
}

type fakeLifecycle struct {
	calls  []lifecycleCall
	result *assignment.Result
	err    error
}

func (f *fakeLifecycle) AssignAs(_ context.Context, bookingID, actor string) (*assignment.Result, error) {
	f.calls = append(f.calls, lifecycleCall{op: "assign", bookingID: bookingID, actor: actor})
	return f.result, f.err
}

func (f *fakeLifecycle) Complete(_ context.Context, bookingID, providerID, notes string) (*assignment.Result, error) {
	f.calls = append(f.calls, lifecycleCall{op: "complete", bookingID: bookingID, providerID: providerID, text: notes})
	return f.result, f.err
}

func (f *fakeLifecycle) Cancel(_ context.Context, bookingID, reason, actor string) (*assignment.Result, error) {
	f.calls = append(f.calls, lifecycleCall{op: "cancel", bookingID: bookingID, text: reason, actor: actor})
	return f.result, f.err
}

type fakeAvailability struct {
	id        string
	available bool
	err       error
}

func (f *fakeAvailability) SetAvailability(_ context.Context, id string, available bool) error {
	f.id, f.available = id, available
	return f.err
}

type fakePayments struct {
	intent     *models.PaymentIntentResponse
	intentFor  string
	payload    []byte
	signature  string
	webhookErr error
	mockResult *assignment.Result
	mockErr    error
}

func (f *fakePayments) CreateIntent(_ context.Context, bookingID string) (*models.PaymentIntentResponse, error) {
	f.intentFor = bookingID
	return f.intent, nil
}

func (f *fakePayments) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	f.payload, f.signature = payload, signature
	return f.webhookErr
}

func (f *fakePayments) MockSuccess(_ context.Context, _ string) (*assignment.Result, error) {
	return f.mockResult, f.mockErr
}

type inboundFrame struct {
	providerID string
	raw        string
}

type fakeInbound struct {
	mu     sync.Mutex
	frames []inboundFrame
}

func (f *fakeInbound) HandleProviderMessage(_ context.Context, providerID string, raw []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, inboundFrame{providerID: providerID, raw: string(raw)})
}

func (f *fakeInbound) received() []inboundFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]inboundFrame(nil), f.frames...)
}

type fixedCounter struct{ clients, providers int }

func (f fixedCounter) Counts() (int, int) { return f.clients, f.providers }
