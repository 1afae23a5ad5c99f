package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/service"
	"github.com/sablewallet/sable/internal/stats"
)

// OfferHandler serves the wallet's offer history and sync endpoints.
type OfferHandler struct {
	offers *service.OfferService
	logger *slog.Logger
}

// NewOfferHandler creates an OfferHandler.
func NewOfferHandler(offers *service.OfferService, logger *slog.Logger) *OfferHandler {
	return &OfferHandler{offers: offers, logger: logger}
}

// offerView is the API shape of one enriched offer record. Decimal values
// travel as strings to preserve precision.
type offerView struct {
	Wallet             string             `json:"wallet"`
	Network            string             `json:"network"`
	Sequence           uint32             `json:"sequence"`
	OriginalReceived   domain.Amount      `json:"original_received"`
	OriginalPaid       domain.Amount      `json:"original_paid"`
	Placeholder        bool               `json:"placeholder"`
	CreatedAt          *time.Time         `json:"created_at,omitempty"`
	CreatedTxHash      string             `json:"created_tx_hash,omitempty"`
	Fills              []domain.FillEvent `json:"fills"`
	TotalReceived      string             `json:"total_filled_received"`
	TotalPaid          string             `json:"total_filled_paid"`
	FillPercentage     string             `json:"fill_percentage"`
	AveragePrice       string             `json:"average_execution_price,omitempty"`
	FullyExecuted      bool               `json:"fully_executed"`
	Cancelled          bool               `json:"cancelled"`
}

func toOfferView(e stats.EnrichedOffer) offerView {
	view := offerView{
		Wallet:           e.Record.Key.Wallet,
		Network:          e.Record.Key.Network,
		Sequence:         e.Record.Key.Sequence,
		OriginalReceived: e.Record.OriginalReceived,
		OriginalPaid:     e.Record.OriginalPaid,
		Placeholder:      e.Record.Placeholder,
		CreatedTxHash:    e.Record.CreatedTxHash,
		Fills:            e.Record.Fills,
		TotalReceived:    e.TotalFilledReceived.String(),
		TotalPaid:        e.TotalFilledPaid.String(),
		FillPercentage:   e.FillPercentage.StringFixed(2),
		FullyExecuted:    e.FullyExecuted,
		Cancelled:        e.Cancelled,
	}
	if !e.Record.CreatedAt.IsZero() {
		created := e.Record.CreatedAt
		view.CreatedAt = &created
	}
	if e.HasAveragePrice {
		view.AveragePrice = e.AverageExecutionPrice.String()
	}
	return view
}

// ListOffers returns enriched offer records for a wallet.
// GET /api/wallets/{address}/offers
func (h *OfferHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	enriched, err := h.offers.ListEnriched(r.Context(), address, parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list offers failed",
			slog.String("wallet", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to load offers")
		return
	}

	views := make([]offerView, 0, len(enriched))
	for _, e := range enriched {
		views = append(views, toOfferView(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"offers": views})
}

// SyncWallet triggers a history sync and reconciliation for a wallet.
// POST /api/wallets/{address}/sync
func (h *OfferHandler) SyncWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	if err := h.offers.Sync(r.Context(), address); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrLockHeld) {
			status = http.StatusConflict
		}
		h.logger.ErrorContext(r.Context(), "wallet sync failed",
			slog.String("wallet", address),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// BalanceActivity returns per-transaction balance deltas for a wallet.
// GET /api/wallets/{address}/activity
func (h *OfferHandler) BalanceActivity(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	deltas, err := h.offers.BalanceActivity(r.Context(), address, parseListOpts(r).Limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load activity")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": deltas})
}

// ClearWallet removes all stored records for a wallet.
// DELETE /api/wallets/{address}/offers
func (h *OfferHandler) ClearWallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	if err := h.offers.ClearWallet(r.Context(), address); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear wallet data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
