package midtrans

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andikurnia/fotoprint-backend/internal/orders"
	"github.com/andikurnia/fotoprint-backend/pkg/db/models"
	pkgerrors "github.com/andikurnia/fotoprint-backend/pkg/errors"
)

const testServerKey = "SB-Mid-server-testkey"

type stubOrders struct {
	lastInput orders.NotificationInput
	result    *orders.NotificationResult
	err       error
	calls     int
}

func (s *stubOrders) CreateOrder(context.Context, orders.CreateOrderInput) (*orders.CreateOrderResult, error) {
	panic("not used")
}

func (s *stubOrders) ApplyNotification(_ context.Context, input orders.NotificationInput) (*orders.NotificationResult, error) {
	s.calls++
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubOrders) MarkPrinted(context.Context, uuid.UUID) (*models.PrintOrder, error) {
	panic("not used")
}

func (s *stubOrders) ListOrders(context.Context, orders.ListFilter) ([]orders.OrderView, error) {
	panic("not used")
}

type stubStore struct {
	held    map[string]bool
	setErr  error
	deleted []string
}

func newStubStore() *stubStore {
	return &stubStore{held: map[string]bool{}}
}

func (s *stubStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.held[key] {
		return false, nil
	}
	s.held[key] = true
	return true, nil
}

func (s *stubStore) IdempotencyKey(scope, id string) string {
	return "fp:idempotency:" + scope + ":" + id
}

func (s *stubStore) Del(_ context.Context, keys ...string) error {
	s.deleted = append(s.deleted, keys...)
	for _, key := range keys {
		delete(s.held, key)
	}
	return nil
}

func signedBody(t *testing.T, payload Notification) []byte {
	t.Helper()
	sum := sha512.Sum512([]byte(payload.OrderID + payload.StatusCode + payload.GrossAmount + testServerKey))
	payload.SignatureKey = hex.EncodeToString(sum[:])
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func newTestWebhookService(t *testing.T, ordersSvc orders.Service, guard *IdempotencyGuard) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Orders:    ordersSvc,
		Guard:     guard,
		ServerKey: testServerKey,
	})
	require.NoError(t, err)
	return svc
}

func TestProcessAppliesSettlement(t *testing.T) {
	ordersSvc := &stubOrders{result: &orders.NotificationResult{Found: true, Applied: true}}
	svc := newTestWebhookService(t, ordersSvc, nil)

	body := signedBody(t, Notification{
		OrderID:           "PRINT-1-abcd",
		StatusCode:        "200",
		GrossAmount:       "30000.00",
		TransactionStatus: "settlement",
		FraudStatus:       "accept",
	})

	outcome, err := svc.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.True(t, ordersSvc.lastInput.Verified)
	assert.Equal(t, "PRINT-1-abcd", ordersSvc.lastInput.OrderRef)
	assert.Equal(t, "settlement", ordersSvc.lastInput.TransactionStatus)
}

func TestProcessBadPayload(t *testing.T) {
	ordersSvc := &stubOrders{}
	svc := newTestWebhookService(t, ordersSvc, nil)

	outcome, err := svc.Process(context.Background(), []byte("{not json"))
	assert.Equal(t, OutcomeBadPayload, outcome)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	outcome, err = svc.Process(context.Background(), []byte(`{"order_id":"PRINT-1-abcd"}`))
	assert.Equal(t, OutcomeBadPayload, outcome)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Zero(t, ordersSvc.calls)
}

func TestProcessRejectsTamperedSignature(t *testing.T) {
	ordersSvc := &stubOrders{}
	svc := newTestWebhookService(t, ordersSvc, nil)

	body := signedBody(t, Notification{
		OrderID:           "PRINT-1-abcd",
		StatusCode:        "200",
		GrossAmount:       "30000.00",
		TransactionStatus: "settlement",
	})
	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	payload["gross_amount"] = "1.00"
	tampered, err := json.Marshal(payload)
	require.NoError(t, err)

	outcome, err := svc.Process(context.Background(), tampered)
	assert.Equal(t, OutcomeInvalidSignature, outcome)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Zero(t, ordersSvc.calls, "unverified payloads never reach the order service")
}

func TestProcessDuplicateDelivery(t *testing.T) {
	ordersSvc := &stubOrders{result: &orders.NotificationResult{Found: true, Applied: true}}
	store := newStubStore()
	guard := NewIdempotencyGuard(store, time.Hour, nil)
	svc := newTestWebhookService(t, ordersSvc, guard)

	body := signedBody(t, Notification{
		OrderID:           "PRINT-2-abcd",
		StatusCode:        "200",
		GrossAmount:       "15000.00",
		TransactionStatus: "settlement",
		TransactionID:     "txn-9",
	})

	outcome, err := svc.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	outcome, err = svc.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Equal(t, 1, ordersSvc.calls)
}

func TestProcessGuardFailsOpen(t *testing.T) {
	ordersSvc := &stubOrders{result: &orders.NotificationResult{Found: true, Applied: true}}
	store := newStubStore()
	store.setErr = errors.New("redis down")
	guard := NewIdempotencyGuard(store, time.Hour, nil)
	svc := newTestWebhookService(t, ordersSvc, guard)

	body := signedBody(t, Notification{
		OrderID:           "PRINT-3-abcd",
		StatusCode:        "200",
		GrossAmount:       "10000.00",
		TransactionStatus: "settlement",
	})

	outcome, err := svc.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, 1, ordersSvc.calls)
}

func TestProcessReleasesGuardOnStorageError(t *testing.T) {
	ordersSvc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeInternal, "db down")}
	store := newStubStore()
	guard := NewIdempotencyGuard(store, time.Hour, nil)
	svc := newTestWebhookService(t, ordersSvc, guard)

	body := signedBody(t, Notification{
		OrderID:           "PRINT-4-abcd",
		StatusCode:        "200",
		GrossAmount:       "20000.00",
		TransactionStatus: "expire",
	})

	outcome, err := svc.Process(context.Background(), body)
	assert.Equal(t, OutcomeError, outcome)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
	require.Len(t, store.deleted, 1)
	assert.Empty(t, store.held, "the claim must be freed for the gateway retry")
}

func TestProcessUnknownOrderStillAcked(t *testing.T) {
	ordersSvc := &stubOrders{result: &orders.NotificationResult{Found: false}}
	svc := newTestWebhookService(t, ordersSvc, nil)

	body := signedBody(t, Notification{
		OrderID:           "PRINT-404-ffff",
		StatusCode:        "404",
		GrossAmount:       "10000.00",
		TransactionStatus: "settlement",
	})

	outcome, err := svc.Process(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownOrder, outcome)
}
