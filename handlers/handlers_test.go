package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voctnow/models"
	"voctnow/services/assignment"
	"voctnow/services/booking"
	"voctnow/services/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func bookingRouter(svc *fakeBookings, engine *fakeLifecycle) *gin.Engine {
	h := NewBookingHandler(svc, engine)
	r := gin.New()
	r.POST("/api/booking", h.CreateBooking)
	r.GET("/api/booking/:id", h.GetBooking)
	r.GET("/api/bookings/user/:userId", h.ListUserBookings)
	r.POST("/api/booking/:id/cancel", h.CancelBooking)
	return r
}

func TestCreateBooking_Created(t *testing.T) {
	svc := &fakeBookings{createFn: func(in models.BookingInput) (*models.Booking, error) {
		return &models.Booking{ID: "b1", ServiceType: in.ServiceType, Status: models.StatusPendingPayment}, nil
	}}
	r := bookingRouter(svc, &fakeLifecycle{})

	w := serve(r, http.MethodPost, "/api/booking", `{"service_type":"knee_rehab","session_count":3}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, 3, svc.created.SessionCount)
	body := decode(t, w)
	b := body["booking"].(map[string]any)
	assert.Equal(t, "b1", b["id"])
	assert.Equal(t, models.StatusPendingPayment, b["status"])
}

func TestCreateBooking_ValidationErrors(t *testing.T) {
	svc := &fakeBookings{createFn: func(models.BookingInput) (*models.Booking, error) {
		return nil, booking.ValidationErrors{{Field: "pincode", Message: "must be 6 characters"}}
	}}
	r := bookingRouter(svc, &fakeLifecycle{})

	w := serve(r, http.MethodPost, "/api/booking", `{"service_type":"x"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "pincode", errs[0].(map[string]any)["field"])
}

func TestCreateBooking_MalformedJSON(t *testing.T) {
	svc := &fakeBookings{}
	r := bookingRouter(svc, &fakeLifecycle{})

	w := serve(r, http.MethodPost, "/api/booking", `{"service_type":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.created)
}

func TestGetBooking(t *testing.T) {
	svc := &fakeBookings{byID: map[string]*models.Booking{"b1": {ID: "b1"}}}
	r := bookingRouter(svc, &fakeLifecycle{})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/booking/b1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/booking/missing", "").Code)

	svc.getErr = booking.ErrNotFound
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/booking/b1", "").Code)

	svc.getErr = errors.New("mongo down")
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/api/booking/b1", "").Code)
}

func TestListUserBookings_EmptyIsArray(t *testing.T) {
	r := bookingRouter(&fakeBookings{}, &fakeLifecycle{})

	w := serve(r, http.MethodGet, "/api/bookings/user/u1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"bookings":[]}`, w.Body.String())
}

func TestCancelBooking(t *testing.T) {
	engine := &fakeLifecycle{result: &assignment.Result{
		Booking: &models.Booking{ID: "b1", Status: models.StatusCancelled},
		Outcome: assignment.OutcomeCancelled,
	}}
	r := bookingRouter(&fakeBookings{}, engine)

	w := serve(r, http.MethodPost, "/api/booking/b1/cancel", `{"reason":"moved city"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, engine.calls, 1)
	assert.Equal(t, lifecycleCall{op: "cancel", bookingID: "b1", text: "moved city", actor: models.ActorClient}, engine.calls[0])
	assert.Equal(t, string(assignment.OutcomeCancelled), decode(t, w)["outcome"])
}

func TestCancelBooking_WithoutBody(t *testing.T) {
	engine := &fakeLifecycle{result: &assignment.Result{Booking: &models.Booking{ID: "b1"}, Outcome: assignment.OutcomeCancelled}}
	r := bookingRouter(&fakeBookings{}, engine)

	w := serve(r, http.MethodPost, "/api/booking/b1/cancel", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", engine.calls[0].text)
}

func TestCancelBooking_CompletedIsConflict(t *testing.T) {
	engine := &fakeLifecycle{err: assignment.ErrPreconditionFailed}
	r := bookingRouter(&fakeBookings{}, engine)

	w := serve(r, http.MethodPost, "/api/booking/b1/cancel", "")

	assert.Equal(t, http.StatusConflict, w.Code)
}

func internalRouter(svc *fakeBookings, engine *fakeLifecycle, providers *fakeAvailability) *gin.Engine {
	h := NewInternalHandler(svc, engine, providers)
	r := gin.New()
	r.POST("/api/internal/booking/:id/assign", h.RetryAssignment)
	r.POST("/api/internal/practitioner/:id/session/:bookingId/complete", h.CompleteSession)
	r.GET("/api/internal/practitioner/:id/bookings", h.ListPractitionerBookings)
	r.PATCH("/api/internal/practitioner/:id/availability", h.SetAvailability)
	return r
}

func TestRetryAssignment_UsesOperatorActor(t *testing.T) {
	engine := &fakeLifecycle{result: &assignment.Result{
		Booking:  &models.Booking{ID: "b1", AssignedProviderID: "p1"},
		Outcome:  assignment.OutcomeAssigned,
		Provider: &models.Provider{ID: "p1", FullName: "Dr. Rao", Email: "rao@example.com"},
	}}
	r := internalRouter(&fakeBookings{}, engine, &fakeAvailability{})

	w := serve(r, http.MethodPost, "/api/internal/booking/b1/assign", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ActorOperator, engine.calls[0].actor)
	provider := decode(t, w)["provider"].(map[string]any)
	assert.Equal(t, "Dr. Rao", provider["fullName"])
	assert.NotContains(t, provider, "email")
}

func TestRetryAssignment_ConflictAfterRetries(t *testing.T) {
	r := internalRouter(&fakeBookings{}, &fakeLifecycle{err: assignment.ErrConflict}, &fakeAvailability{})

	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/api/internal/booking/b1/assign", "").Code)
}

func TestCompleteSession(t *testing.T) {
	engine := &fakeLifecycle{result: &assignment.Result{
		Booking: &models.Booking{ID: "b1", Status: models.StatusCompleted},
		Outcome: assignment.OutcomeCompleted,
	}}
	r := internalRouter(&fakeBookings{}, engine, &fakeAvailability{})

	w := serve(r, http.MethodPost, "/api/internal/practitioner/p1/session/b1/complete", `{"notes":"good progress"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, lifecycleCall{op: "complete", bookingID: "b1", providerID: "p1", text: "good progress"}, engine.calls[0])
}

func TestCompleteSession_WrongPractitioner(t *testing.T) {
	r := internalRouter(&fakeBookings{}, &fakeLifecycle{err: assignment.ErrNotFound}, &fakeAvailability{})

	w := serve(r, http.MethodPost, "/api/internal/practitioner/p2/session/b1/complete", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPractitionerBookings(t *testing.T) {
	svc := &fakeBookings{byProv: map[string][]models.Booking{"p1": {{ID: "b1"}, {ID: "b2"}}}}
	r := internalRouter(svc, &fakeLifecycle{}, &fakeAvailability{})

	w := serve(r, http.MethodGet, "/api/internal/practitioner/p1/bookings", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["bookings"], 2)
}

func TestSetAvailability(t *testing.T) {
	providers := &fakeAvailability{}
	r := internalRouter(&fakeBookings{}, &fakeLifecycle{}, providers)

	w := serve(r, http.MethodPatch, "/api/internal/practitioner/p1/availability", `{"available":false}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p1", providers.id)
	assert.False(t, providers.available)
	assert.Equal(t, false, decode(t, w)["isAvailable"])
}

func TestSetAvailability_RequiresFlag(t *testing.T) {
	providers := &fakeAvailability{}
	r := internalRouter(&fakeBookings{}, &fakeLifecycle{}, providers)

	w := serve(r, http.MethodPatch, "/api/internal/practitioner/p1/availability", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, providers.id)
}

func TestSetAvailability_UnknownPractitioner(t *testing.T) {
	providers := &fakeAvailability{err: models.ErrRecordNotFound}
	r := internalRouter(&fakeBookings{}, &fakeLifecycle{}, providers)

	w := serve(r, http.MethodPatch, "/api/internal/practitioner/nope/availability", `{"available":true}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func paymentRouter(svc *fakePayments) *gin.Engine {
	h := NewPaymentHandler(svc)
	r := gin.New()
	r.POST("/api/payment/create-intent", h.CreateIntent)
	r.POST("/api/payment/webhook", h.Webhook)
	r.POST("/api/payment/mock-success/:id", h.MockSuccess)
	return r
}

func TestCreatePaymentIntent(t *testing.T) {
	svc := &fakePayments{intent: &models.PaymentIntentResponse{BookingID: "b1", PaymentID: "pi_1", ClientSecret: "secret", Amount: 2899, Currency: "inr"}}
	r := paymentRouter(svc)

	w := serve(r, http.MethodPost, "/api/payment/create-intent", `{"booking_id":"b1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b1", svc.intentFor)
	assert.Equal(t, "secret", decode(t, w)["client_secret"])
}

func TestCreatePaymentIntent_MissingBooking(t *testing.T) {
	r := paymentRouter(&fakePayments{})

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/payment/create-intent", `{}`).Code)
}

func TestPaymentWebhook_PassesRawBodyAndSignature(t *testing.T) {
	svc := &fakePayments{}
	r := paymentRouter(svc)
	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`

	w := serve(r, http.MethodPost, "/api/payment/webhook", payload, "Stripe-Signature", "t=1,v1=abc")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, string(svc.payload))
	assert.Equal(t, "t=1,v1=abc", svc.signature)
}

func TestPaymentWebhook_BadSignature(t *testing.T) {
	r := paymentRouter(&fakePayments{webhookErr: payment.ErrInvalidSignature})

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/api/payment/webhook", `{}`).Code)
}

func TestMockPaymentSuccess(t *testing.T) {
	r := paymentRouter(&fakePayments{mockErr: payment.ErrDemoDisabled})
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/payment/mock-success/b1", "").Code)

	r = paymentRouter(&fakePayments{mockErr: payment.ErrAlreadyPaid})
	assert.Equal(t, http.StatusConflict, serve(r, http.MethodPost, "/api/payment/mock-success/b1", "").Code)

	r = paymentRouter(&fakePayments{mockResult: &assignment.Result{
		Booking: &models.Booking{ID: "b1", AssignmentStatus: models.AssignmentAssigned},
		Outcome: assignment.OutcomeAssigned,
	}})
	w := serve(r, http.MethodPost, "/api/payment/mock-success/b1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(assignment.OutcomeAssigned), decode(t, w)["outcome"])
}

func TestHealth_ReportsConnections(t *testing.T) {
	r := gin.New()
	r.GET("/health", Health(fixedCounter{clients: 2, providers: 1}))

	w := serve(r, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	conns := body["connections"].(map[string]any)
	assert.EqualValues(t, 2, conns["clients"])
	assert.EqualValues(t, 1, conns["practitioners"])
	assert.Contains(t, body, "dependencies")
}
