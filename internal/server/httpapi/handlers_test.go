package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avilrenovations/estimates/internal/common"
	"github.com/avilrenovations/estimates/internal/logging"
	"github.com/avilrenovations/estimates/internal/server/models"
	"github.com/avilrenovations/estimates/internal/server/payments"
	"github.com/avilrenovations/estimates/internal/server/services"
)

type fakeIntake struct {
	sub *models.Submission
	err error
	got *models.IntakeRequest
}

func (f *fakeIntake) Process(_ context.Context, req *models.IntakeRequest) (*models.Submission, error) {
	f.got = req
	return f.sub, f.err
}

type fakePayment struct {
	sess   *payments.CheckoutSession
	err    error
	origin string
}

func (f *fakePayment) CreateSession(_ context.Context, email, submissionID, origin string) (*payments.CheckoutSession, error) {
	f.origin = origin
	return f.sess, f.err
}

type fakeReconcile struct {
	res     *services.ReconcileResult
	err     error
	payload []byte
	sig     string
}

func (f *fakeReconcile) ProcessEvent(_ context.Context, payload []byte, sigHeader string) (*services.ReconcileResult, error) {
	f.payload = payload
	f.sig = sigHeader
	return f.res, f.err
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func testServer(intake IntakeProcessor, payment SessionCreator, reconcile EventProcessor) http.Handler {
	return NewServer(intake, payment, reconcile, testLogger()).Router()
}

func intakeBody(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(models.IntakeRequest{
		Name:        "Mary Jane",
		Email:       "mary.jane@example.com",
		Phone:       "+1 555 0100",
		Address:     "1 Main Street",
		City:        "Springfield",
		Zip:         "12345",
		Description: "full bathroom renovation, new tiles",
		Photos: []models.PhotoPayload{
			{Type: "image/jpeg", Data: "aGVsbG8="},
		},
	})
	require.NoError(t, err)
	return b
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestIntake_Success(t *testing.T) {
	intake := &fakeIntake{sub: &models.Submission{SubmissionID: "20260831_mary.jane_X1Y2Z3"}}
	h := testServer(intake, &fakePayment{}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewReader(intakeBody(t))))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "20260831_mary.jane_X1Y2Z3", body["submissionId"])
	require.NotNil(t, intake.got)
	assert.Equal(t, "Springfield", intake.got.City)
}

func TestIntake_MalformedJSON(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", strings.NewReader("{nope")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid input data", decodeBody(t, rec)["error"])
}

func TestIntake_ValidationFailure(t *testing.T) {
	intake := &fakeIntake{}
	h := testServer(intake, &fakePayment{}, &fakeReconcile{})

	var req models.IntakeRequest
	require.NoError(t, json.Unmarshal(intakeBody(t), &req))
	req.Email = "not-an-email"
	req.Photos = nil
	b, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewReader(b)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Invalid input data", body["error"])
	assert.NotEmpty(t, body["details"])
	assert.Nil(t, intake.got, "service must not run on invalid input")
}

func TestIntake_PhotoDecodeError(t *testing.T) {
	intake := &fakeIntake{err: common.ErrValidation}
	h := testServer(intake, &fakePayment{}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewReader(intakeBody(t))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIntake_ServiceError(t *testing.T) {
	intake := &fakeIntake{err: common.ErrInternal}
	h := testServer(intake, &fakePayment{}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/submissions", bytes.NewReader(intakeBody(t))))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to process submission. Please try again.", body["error"])
	assert.NotContains(t, rec.Body.String(), "internal error", "raw error must not leak")
}

func TestPayment_Success(t *testing.T) {
	payment := &fakePayment{sess: &payments.CheckoutSession{ID: "cs_123", URL: "https://checkout.example.com/cs_123"}}
	h := testServer(&fakeIntake{}, payment, &fakeReconcile{})

	req := httptest.NewRequest(http.MethodPost, "/api/payments",
		strings.NewReader(`{"email":"mary.jane@example.com","submissionId":"20260831_mary.jane_X1Y2Z3"}`))
	req.Header.Set("Origin", "https://avilrenovations.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "https://checkout.example.com/cs_123", body["url"])
	assert.Equal(t, "cs_123", body["sessionId"])
	assert.Equal(t, "https://avilrenovations.example.com", payment.origin)
}

func TestPayment_MissingFields(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments",
		strings.NewReader(`{"email":"mary.jane@example.com"}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid input data", decodeBody(t, rec)["error"])
}

func TestPayment_ProviderError(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{err: common.ErrPaymentProvider}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments",
		strings.NewReader(`{"email":"mary.jane@example.com","submissionId":"id_1"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to create payment session. Please try again.", decodeBody(t, rec)["error"])
}

func TestWebhook_Completed(t *testing.T) {
	reconcile := &fakeReconcile{res: &services.ReconcileResult{
		EventType:    payments.EventTypeCheckoutCompleted,
		SubmissionID: "20260831_mary.jane_X1Y2Z3",
		Updated:      true,
	}}
	h := testServer(&fakeIntake{}, &fakePayment{}, reconcile)

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{"type":"checkout.session.completed"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, true, body["updated"])
	assert.Equal(t, "20260831_mary.jane_X1Y2Z3", body["submissionId"])
	assert.Equal(t, "t=1,v1=abc", reconcile.sig)
	assert.JSONEq(t, `{"type":"checkout.session.completed"}`, string(reconcile.payload))
}

func TestWebhook_MissingSignatureHeader(t *testing.T) {
	reconcile := &fakeReconcile{}
	h := testServer(&fakeIntake{}, &fakePayment{}, reconcile)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No signature provided", decodeBody(t, rec)["error"])
	assert.Nil(t, reconcile.payload, "event must not be processed without a signature")
}

func TestWebhook_InvalidSignature(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{err: common.ErrInvalidSignature})

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Webhook signature verification failed", decodeBody(t, rec)["error"])
}

func TestWebhook_MissingMetadata(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{err: common.ErrMissingMetadata})

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No submission_id in session metadata", decodeBody(t, rec)["error"])
}

func TestWebhook_DatabaseError(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{err: common.ErrInternal})

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to process event", decodeBody(t, rec)["error"])
}

func TestWebhook_IgnoredEventType(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{
		res: &services.ReconcileResult{EventType: "payment_intent.created"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["received"])
	assert.Equal(t, "payment_intent.created", body["eventType"])
	assert.NotContains(t, body, "submissionId")
}

func TestCORS_Preflight(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/submissions", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "stripe-signature")
}

func TestHealthz(t *testing.T) {
	h := testServer(&fakeIntake{}, &fakePayment{}, &fakeReconcile{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
