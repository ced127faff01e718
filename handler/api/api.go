package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pandodao/gasless-wallet/core"
	"github.com/pandodao/generic"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 50
)

func New(
	custody core.CustodyService,
	transactions core.TransactionService,
	logger *slog.Logger,
) *Server {
	return &Server{
		custody:      custody,
		transactions: transactions,
		logger:       logger.With("server", "api"),
	}
}

// Server exposes read-only wallet data over JSON.
type Server struct {
	custody      core.CustodyService
	transactions core.TransactionService
	logger       *slog.Logger
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/wallets/{user_id}", func(r chi.Router) {
		r.Get("/", s.findWallet)
		r.Get("/balance", s.balance)
		r.Get("/history", s.history)
	})

	return r
}

type walletView struct {
	UserID         string              `json:"user_id"`
	Username       string              `json:"username,omitempty"`
	WalletAddress  string              `json:"wallet_address"`
	PublicKey      string              `json:"public_key"`
	CreationStatus core.CreationStatus `json:"creation_status"`
	FeeMode        core.FeeMode        `json:"fee_mode"`
	DeployTxHash   string              `json:"deploy_tx_hash,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

func viewWallet(w *core.Wallet) walletView {
	return walletView{
		UserID:         w.UserID,
		Username:       w.Username,
		WalletAddress:  w.WalletAddress,
		PublicKey:      w.PublicKey,
		CreationStatus: w.CreationStatus,
		FeeMode:        w.FeeMode,
		DeployTxHash:   w.DeployTxHash,
		CreatedAt:      w.CreatedAt,
	}
}

type eventView struct {
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Amount      string    `json:"amount"`
}

func viewEvent(e *core.TransferEvent) eventView {
	return eventView{
		TxHash:      e.TxHash,
		BlockNumber: e.BlockNumber,
		Timestamp:   e.Timestamp,
		From:        e.From,
		To:          e.To,
		Amount:      core.FormatAmount(e.Amount),
	}
}

func (s *Server) findWallet(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.loadWallet(w, r)
	if !ok {
		return
	}

	renderJSON(w, http.StatusOK, viewWallet(wallet))
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.loadWallet(w, r)
	if !ok {
		return
	}

	renderJSON(w, http.StatusOK, map[string]string{
		"wallet_address": wallet.WalletAddress,
		"balance":        s.transactions.GetBalance(r.Context(), wallet.WalletAddress),
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			renderError(w, http.StatusBadRequest, "invalid limit")
			return
		}

		limit = min(n, maxHistoryLimit)
	}

	wallet, ok := s.loadWallet(w, r)
	if !ok {
		return
	}

	events := s.transactions.GetHistory(r.Context(), wallet.WalletAddress, limit)
	renderJSON(w, http.StatusOK, map[string]any{
		"wallet_address": wallet.WalletAddress,
		"transfers":      generic.MapSlice(events, viewEvent),
	})
}

func (s *Server) loadWallet(w http.ResponseWriter, r *http.Request) (*core.Wallet, bool) {
	userID := chi.URLParam(r, "user_id")

	wallet, err := s.custody.FindByUserID(r.Context(), userID)
	switch {
	case err == nil:
		return wallet, true
	case errors.Is(err, core.ErrNotRegistered):
		renderError(w, http.StatusNotFound, "wallet not found")
	default:
		s.logger.Error("custody.FindByUserID", "user", userID, "err", err)
		renderError(w, http.StatusInternalServerError, "internal error")
	}

	return nil, false
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func renderError(w http.ResponseWriter, status int, msg string) {
	renderJSON(w, status, map[string]string{"error": msg})
}
