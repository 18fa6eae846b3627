package midtrans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := &Client{
		baseURL:   server.URL,
		authValue: basicAuth("SB-Mid-server-test"),
		http:      server.Client(),
	}
	return client, server
}

func TestCreateTransaction_Success(t *testing.T) {
	var gotAuth string
	var gotPayload snapTransactionPayload

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, snapTransactionsPath, r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(SnapSession{Token: "snap-token", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token"})
	})

	session, err := client.CreateTransaction(context.Background(), SnapRequest{
		OrderRef:      "PRINT-1700000000000-deadbeef",
		GrossAmount:   20000,
		ItemID:        "print-4x6",
		ItemName:      "Photo Print 4x6",
		UnitPrice:     10000,
		Quantity:      2,
		CustomerName:  "Sari",
		CustomerEmail: "sari@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "snap-token", session.Token)
	assert.True(t, strings.HasPrefix(gotAuth, "Basic "))
	assert.Equal(t, "PRINT-1700000000000-deadbeef", gotPayload.TransactionDetails.OrderID)
	assert.Equal(t, int64(20000), gotPayload.TransactionDetails.GrossAmount)
	require.Len(t, gotPayload.ItemDetails, 1)
	assert.Equal(t, 2, gotPayload.ItemDetails[0].Quantity)
	require.NotNil(t, gotPayload.CustomerDetails)
	assert.Equal(t, "sari@example.com", gotPayload.CustomerDetails.Email)
}

func TestCreateTransaction_GatewayError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error_messages":["unauthorized"]}`))
	})

	_, err := client.CreateTransaction(context.Background(), SnapRequest{OrderRef: "PRINT-1", GrossAmount: 10000, Quantity: 1})
	require.Error(t, err)

	var gatewayErr *GatewayError
	require.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, http.StatusUnauthorized, gatewayErr.StatusCode)
	assert.Contains(t, gatewayErr.Detail, "unauthorized")
}

func TestCreateTransaction_MissingToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := client.CreateTransaction(context.Background(), SnapRequest{OrderRef: "PRINT-1", GrossAmount: 10000, Quantity: 1})

	var gatewayErr *GatewayError
	require.True(t, errors.As(err, &gatewayErr))
	assert.Contains(t, gatewayErr.Detail, "missing token")
}

func TestTruncateDetail(t *testing.T) {
	long := strings.Repeat("x", snapErrorDetailLimit+100)
	assert.Len(t, TruncateDetail(long), snapErrorDetailLimit)
	assert.Equal(t, "short", TruncateDetail("short"))
}
