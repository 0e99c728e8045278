package services

import (
	"context"
	"errors"
	"testing"

	"github.com/avilrenovations/estimates/internal/common"
	"github.com/avilrenovations/estimates/internal/server/models"
	"github.com/avilrenovations/estimates/internal/server/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	event *payments.Event
	err   error
}

func (f *fakeVerifier) VerifyEvent(payload []byte, sigHeader string) (*payments.Event, error) {
	return f.event, f.err
}

type fakeHooks struct {
	ran       int
	gotSub    *models.Submission
	gotSessID string
}

func (f *fakeHooks) Run(ctx context.Context, sub *models.Submission, sessionID string) {
	f.ran++
	f.gotSub = sub
	f.gotSessID = sessionID
}

func paidRow() *models.Submission {
	return &models.Submission{
		SubmissionID:    "S1",
		Status:          models.StatusPaid,
		StripePaymentID: "pi_123",
	}
}

func completedEvent() *payments.Event {
	return &payments.Event{
		Type:            payments.EventTypeCheckoutCompleted,
		SessionID:       "cs_test_1",
		PaymentIntentID: "pi_123",
		SubmissionID:    "S1",
	}
}

func TestReconcile_CompletedEvent_TransitionsAndRunsHooks(t *testing.T) {
	repo := &fakeSubmissionsRepo{markPaidRow: paidRow()}
	hooks := &fakeHooks{}
	s := NewReconcileService(repo, &fakeVerifier{event: completedEvent()}, hooks, testLogger())

	res, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)

	assert.True(t, res.Updated)
	assert.Equal(t, "S1", res.SubmissionID)
	assert.Equal(t, []string{"S1"}, repo.markPaidIDs)
	assert.Equal(t, 1, hooks.ran)
	assert.Equal(t, "cs_test_1", hooks.gotSessID)
	assert.Equal(t, models.StatusPaid, hooks.gotSub.Status)
}

func TestReconcile_InvalidSignature_NoStateTouched(t *testing.T) {
	repo := &fakeSubmissionsRepo{}
	s := NewReconcileService(repo, &fakeVerifier{err: common.ErrInvalidSignature}, nil, testLogger())

	_, err := s.ProcessEvent(context.Background(), []byte("{}"), "bad")
	assert.True(t, errors.Is(err, common.ErrInvalidSignature))
	assert.Empty(t, repo.markPaidIDs)
}

func TestReconcile_UnknownEventType_AckedAndIgnored(t *testing.T) {
	repo := &fakeSubmissionsRepo{}
	hooks := &fakeHooks{}
	s := NewReconcileService(repo, &fakeVerifier{event: &payments.Event{Type: "invoice.paid"}}, hooks, testLogger())

	res, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)

	assert.False(t, res.Updated)
	assert.Equal(t, "invoice.paid", res.EventType)
	assert.Empty(t, repo.markPaidIDs, "rows are untouched for ignored event types")
	assert.Zero(t, hooks.ran)
}

func TestReconcile_MissingMetadata(t *testing.T) {
	ev := completedEvent()
	ev.SubmissionID = ""
	repo := &fakeSubmissionsRepo{}
	s := NewReconcileService(repo, &fakeVerifier{event: ev}, nil, testLogger())

	_, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	assert.True(t, errors.Is(err, common.ErrMissingMetadata))
	assert.Empty(t, repo.markPaidIDs)
}

func TestReconcile_NoMatchingRow_StillSucceeds(t *testing.T) {
	repo := &fakeSubmissionsRepo{markPaidErr: common.ErrNotFound}
	hooks := &fakeHooks{}
	s := NewReconcileService(repo, &fakeVerifier{event: completedEvent()}, hooks, testLogger())

	res, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err, "unmatched ids must not trigger provider retries")

	assert.False(t, res.Updated)
	assert.Zero(t, hooks.ran, "hooks only run after a real transition")
}

func TestReconcile_DBErrorPropagates(t *testing.T) {
	repo := &fakeSubmissionsRepo{markPaidErr: errors.New("db down")}
	s := NewReconcileService(repo, &fakeVerifier{event: completedEvent()}, nil, testLogger())

	_, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database update failed")
}

func TestReconcile_ReplayedEvent_SameFinalState(t *testing.T) {
	repo := &fakeSubmissionsRepo{markPaidRow: paidRow()}
	hooks := &fakeHooks{}
	s := NewReconcileService(repo, &fakeVerifier{event: completedEvent()}, hooks, testLogger())

	first, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	second, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)

	assert.Equal(t, first.SubmissionID, second.SubmissionID)
	assert.True(t, first.Updated)
	assert.True(t, second.Updated, "the replay performs the same idempotent overwrite")
	assert.Equal(t, 2, hooks.ran)
}

func TestReconcile_NilHooksAreSkipped(t *testing.T) {
	repo := &fakeSubmissionsRepo{markPaidRow: paidRow()}
	s := NewReconcileService(repo, &fakeVerifier{event: completedEvent()}, nil, testLogger())

	res, err := s.ProcessEvent(context.Background(), []byte("{}"), "sig")
	require.NoError(t, err)
	assert.True(t, res.Updated)
}
