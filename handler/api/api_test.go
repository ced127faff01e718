package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type custodyStub struct {
	core.CustodyService
	wallets map[string]*core.Wallet
}

func (c *custodyStub) FindByUserID(_ context.Context, userID string) (*core.Wallet, error) {
	if userID == "boom" {
		return nil, errors.New("db down")
	}

	w, ok := c.wallets[userID]
	if !ok {
		return nil, core.ErrNotRegistered
	}

	return w, nil
}

type transactionsStub struct {
	core.TransactionService
	limits []int
}

func (t *transactionsStub) GetBalance(context.Context, string) string {
	return "12.5"
}

func (t *transactionsStub) GetHistory(_ context.Context, _ string, limit int) []*core.TransferEvent {
	t.limits = append(t.limits, limit)
	return []*core.TransferEvent{{
		TxHash:      "0x1",
		BlockNumber: 9,
		Timestamp:   time.Unix(1_700_000_000, 0).UTC(),
		From:        "0xa11ce",
		To:          "0xb0b",
		Amount:      uint256.NewInt(5_000_000),
	}}
}

func newTestServer(t *testing.T) (*httptest.Server, *transactionsStub) {
	custody := &custodyStub{wallets: map[string]*core.Wallet{
		"1": {
			UserID:         "1",
			Username:       "alice",
			Email:          "alice@example.com",
			WalletAddress:  "0xa11ce",
			PinHash:        "$2a$10$secret",
			CreationStatus: core.CreationStatusSubmitted,
			FeeMode:        core.FeeModeSponsored,
		},
	}}
	txs := &transactionsStub{}

	s := New(custody, txs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svr := httptest.NewServer(s.Handler())
	t.Cleanup(svr.Close)
	return svr, txs
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestFindWallet(t *testing.T) {
	svr, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"found", "/wallets/1", http.StatusOK},
		{"missing", "/wallets/2", http.StatusNotFound},
		{"store failure", "/wallets/boom", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := getJSON(t, svr.URL+tt.path)
			assert.Equal(t, tt.status, status)
			if status == http.StatusOK {
				assert.Equal(t, "0xa11ce", body["wallet_address"])
				assert.NotContains(t, body, "email")
				assert.NotContains(t, body, "pin_hash")
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestBalance(t *testing.T) {
	svr, _ := newTestServer(t)

	status, body := getJSON(t, svr.URL+"/wallets/1/balance")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "12.5", body["balance"])
}

func TestHistory(t *testing.T) {
	svr, txs := newTestServer(t)

	status, body := getJSON(t, svr.URL+"/wallets/1/history?limit=500")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []int{maxHistoryLimit}, txs.limits)

	transfers := body["transfers"].([]any)
	require.Len(t, transfers, 1)
	assert.Equal(t, "5", transfers[0].(map[string]any)["amount"])

	status, _ = getJSON(t, svr.URL+"/wallets/1/history?limit=zero")
	assert.Equal(t, http.StatusBadRequest, status)
}
