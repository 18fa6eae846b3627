package midtrans

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andikurnia/fotoprint-backend/internal/orders"
	pkgerrors "github.com/andikurnia/fotoprint-backend/pkg/errors"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
	"github.com/andikurnia/fotoprint-backend/pkg/metrics"
	"github.com/andikurnia/fotoprint-backend/pkg/midtrans"
)

// Notification is the raw Midtrans payment notification body. Midtrans sends
// gross_amount as a decimal string and signs the exact string it sent.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	TransactionID     string `json:"transaction_id"`
}

// Outcome classifies what a webhook delivery did. Exposed for metrics and
// the HTTP ack body.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeUnknownOrder     Outcome = "unknown_order"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeInvalidSignature Outcome = "invalid_signature"
	OutcomeBadPayload       Outcome = "bad_payload"
	OutcomeError            Outcome = "error"
)

// Service ingests Midtrans payment notifications.
type Service interface {
	Process(ctx context.Context, body []byte) (Outcome, error)
}

// ServiceParams collects the webhook service dependencies.
type ServiceParams struct {
	Orders    orders.Service
	Guard     *IdempotencyGuard
	ServerKey string
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
}

type service struct {
	orders    orders.Service
	guard     *IdempotencyGuard
	serverKey string
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
}

// NewService builds the webhook ingestion service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.ServerKey == "" {
		return nil, fmt.Errorf("midtrans server key required")
	}
	return &service{
		orders:    params.Orders,
		guard:     params.Guard,
		serverKey: params.ServerKey,
		metrics:   params.Metrics,
		logg:      params.Logger,
	}, nil
}

func (s *service) Process(ctx context.Context, body []byte) (Outcome, error) {
	var payload Notification
	if err := json.Unmarshal(body, &payload); err != nil {
		s.metrics.IncWebhook(string(OutcomeBadPayload))
		return OutcomeBadPayload, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed notification body")
	}
	if payload.OrderID == "" || payload.StatusCode == "" || payload.GrossAmount == "" || payload.SignatureKey == "" {
		s.metrics.IncWebhook(string(OutcomeBadPayload))
		return OutcomeBadPayload, pkgerrors.New(pkgerrors.CodeValidation, "notification missing signature fields")
	}

	if s.logg != nil {
		ctx = s.logg.WithPaymentRef(ctx, payload.OrderID)
	}

	if !midtrans.VerifySignature(payload.OrderID, payload.StatusCode, payload.GrossAmount, payload.SignatureKey, s.serverKey) {
		s.metrics.IncWebhook(string(OutcomeInvalidSignature))
		if s.logg != nil {
			s.logg.Warn(ctx, "webhook signature rejected")
		}
		return OutcomeInvalidSignature, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid notification signature")
	}

	deliveryID := s.deliveryID(payload)
	if !s.guard.Acquire(ctx, deliveryID) {
		s.metrics.IncWebhook(string(OutcomeDuplicate))
		if s.logg != nil {
			s.logg.Info(ctx, "webhook duplicate delivery skipped")
		}
		return OutcomeDuplicate, nil
	}

	result, err := s.orders.ApplyNotification(ctx, orders.NotificationInput{
		OrderRef:          payload.OrderID,
		TransactionStatus: payload.TransactionStatus,
		FraudStatus:       payload.FraudStatus,
		Verified:          true,
	})
	if err != nil {
		// The claim is released so the gateway retry is not swallowed by
		// the dedupe key after a transient storage failure.
		s.guard.Release(ctx, deliveryID)
		s.metrics.IncWebhook(string(OutcomeError))
		return OutcomeError, err
	}

	outcome := classify(result)
	s.metrics.IncWebhook(string(outcome))
	if s.logg != nil {
		s.logg.Info(ctx, "webhook processed: "+string(outcome))
	}
	return outcome, nil
}

func classify(result *orders.NotificationResult) Outcome {
	switch {
	case !result.Found:
		return OutcomeUnknownOrder
	case result.Applied:
		return OutcomeApplied
	default:
		return OutcomeIgnored
	}
}

// deliveryID identifies one logical delivery. Midtrans retries carry the same
// transaction and status, so redeliveries collapse onto the same key while a
// later status change for the same order gets a fresh one.
func (s *service) deliveryID(payload Notification) string {
	parts := []string{payload.OrderID, payload.TransactionStatus, payload.StatusCode}
	if payload.TransactionID != "" {
		parts = append([]string{payload.TransactionID}, parts...)
	}
	return strings.Join(parts, ":")
}
