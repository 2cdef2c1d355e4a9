package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SscSPs/payment_ledger_app/internal/core/domain"
)

func newTestHookService(rdb *redis.Client, hookURL string) *HookService {
	return &HookService{
		redis:   rdb,
		hookURL: hookURL,
		client:  &http.Client{Timeout: 2 * time.Second},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sampleEvent() domain.TransactionCreatedEvent {
	return domain.TransactionCreatedEvent{
		TransactionID: "txn-1",
		Direction:     domain.DirectionIncome,
		Category:      "training_session",
		Amount:        decimal.RequireFromString("1000"),
		Currency:      "USD",
		Gateway:       "manual",
		Status:        domain.TransactionStatusPending,
	}
}

func TestEmit_QueuesJob(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(hookQueueKey, `.*transaction\.created.*`).SetVal(1)

	svc := newTestHookService(db, "")
	svc.Emit(ctx, sampleEvent())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmit_SwallowsQueueFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(hookQueueKey, `.*`).SetErr(assert.AnError)

	svc := newTestHookService(db, "")
	svc.Emit(ctx, sampleEvent())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_DeliversToHook(t *testing.T) {
	ctx := context.Background()

	var received hookDelivery
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	payload, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	job := hookJob{Event: "transaction.created", Payload: payload, Created: time.Now()}
	data, err := json.Marshal(job)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, hookQueueKey).SetVal([]string{hookQueueKey, string(data)})

	svc := newTestHookService(db, server.URL)
	svc.processNext(ctx)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "transaction.created", received.Event)

	var event domain.TransactionCreatedEvent
	require.NoError(t, json.Unmarshal(received.Payload, &event))
	assert.Equal(t, "txn-1", event.TransactionID)
}

func TestProcessNext_ExhaustedJobMovesToFailedQueue(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	payload, _ := json.Marshal(sampleEvent())
	// Two attempts already burned; this delivery is the last one.
	job := hookJob{Event: "transaction.created", Payload: payload, Tries: maxDeliveryTries - 1, Created: time.Now()}
	data, err := json.Marshal(job)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, hookQueueKey).SetVal([]string{hookQueueKey, string(data)})
	mock.Regexp().ExpectLPush(hookFailedQueueKey, `.*transaction\.created.*`).SetVal(1)

	svc := newTestHookService(db, server.URL)
	svc.processNext(ctx)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliver_NoHookURLSucceeds(t *testing.T) {
	db, _ := redismock.NewClientMock()
	svc := newTestHookService(db, "")

	payload, _ := json.Marshal(sampleEvent())
	err := svc.deliver(context.Background(), hookJob{Event: "transaction.created", Payload: payload})

	assert.NoError(t, err)
}

func TestLogNotifier_EmitWritesEvent(t *testing.T) {
	var buf bytes.Buffer
	notifier := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	notifier.Emit(context.Background(), sampleEvent())

	assert.Contains(t, buf.String(), "transaction.created")
	assert.Contains(t, buf.String(), "txn-1")
}
