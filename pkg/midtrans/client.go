package midtrans

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andikurnia/fotoprint-backend/pkg/config"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
)

const snapTransactionsPath = "/snap/v1/transactions"

// snapErrorDetailLimit caps how much of a gateway error body is persisted on
// the failed order row.
const snapErrorDetailLimit = 500

var errServerKeyRequired = errors.New("midtrans server key is required")

// SnapRequest describes a checkout session to create.
type SnapRequest struct {
	OrderRef      string
	GrossAmount   int64
	ItemID        string
	ItemName      string
	UnitPrice     int64
	Quantity      int
	CustomerName  string
	CustomerEmail string
}

// SnapSession is the gateway-issued checkout token plus its hosted-page URL.
type SnapSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// SnapClient creates checkout sessions. Implemented by Client, stubbed in tests.
type SnapClient interface {
	CreateTransaction(ctx context.Context, req SnapRequest) (*SnapSession, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Midtrans Snap API.
type Client struct {
	baseURL   string
	authValue string
	http      httpDoer
}

// NewClient initializes the Snap client for the configured environment.
func NewClient(ctx context.Context, cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}

	env := "sandbox"
	if cfg.IsProduction {
		env = "production"
	}
	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("midtrans snap client initialized (%s)", env))
	}

	return &Client{
		baseURL:   cfg.SnapBaseURL(),
		authValue: basicAuth(serverKey),
		http:      &http.Client{Timeout: cfg.RequestTimeout},
	}, nil
}

// basicAuth builds the Authorization header Midtrans expects: the server key
// as a basic-auth username with an empty password.
func basicAuth(serverKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(serverKey+":"))
}

type snapTransactionPayload struct {
	TransactionDetails snapTransactionDetails `json:"transaction_details"`
	ItemDetails        []snapItemDetail       `json:"item_details"`
	CustomerDetails    *snapCustomerDetails   `json:"customer_details,omitempty"`
	EnabledPayments    []string               `json:"enabled_payments,omitempty"`
}

type snapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapItemDetail struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type snapCustomerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// GatewayError carries the HTTP status and truncated body of a failed Snap call.
type GatewayError struct {
	StatusCode int
	Detail     string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("midtrans snap returned %d: %s", e.StatusCode, e.Detail)
}

// CreateTransaction asks Snap for a checkout session keyed by the order ref.
func (c *Client) CreateTransaction(ctx context.Context, req SnapRequest) (*SnapSession, error) {
	payload := snapTransactionPayload{
		TransactionDetails: snapTransactionDetails{
			OrderID:     req.OrderRef,
			GrossAmount: req.GrossAmount,
		},
		ItemDetails: []snapItemDetail{
			{
				ID:       req.ItemID,
				Price:    req.UnitPrice,
				Quantity: req.Quantity,
				Name:     req.ItemName,
			},
		},
		EnabledPayments: []string{"gopay"},
	}
	if req.CustomerName != "" || req.CustomerEmail != "" {
		payload.CustomerDetails = &snapCustomerDetails{
			FirstName: req.CustomerName,
			Email:     req.CustomerEmail,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode snap payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+snapTransactionsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build snap request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.authValue)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call snap api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read snap response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Detail:     TruncateDetail(string(raw)),
		}
	}

	var session SnapSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode snap response: %w", err)
	}
	if session.Token == "" {
		return nil, &GatewayError{
			StatusCode: resp.StatusCode,
			Detail:     "snap response missing token",
		}
	}

	return &session, nil
}

// TruncateDetail bounds error text before it is stored on an order row.
func TruncateDetail(detail string) string {
	if len(detail) <= snapErrorDetailLimit {
		return detail
	}
	return detail[:snapErrorDetailLimit]
}
