package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/service"
)

// BookHandler serves order-book depth and execution-estimate endpoints.
type BookHandler struct {
	books  *service.BookService
	logger *slog.Logger
}

// NewBookHandler creates a BookHandler.
func NewBookHandler(books *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		books:  books,
		logger: logger.With(slog.String("handler", "book")),
	}
}

type levelView struct {
	Price              string `json:"price"`
	Quantity           string `json:"quantity"`
	CumulativeQuantity string `json:"cumulative_quantity"`
	CumulativeCost     string `json:"cumulative_cost"`
}

type depthView struct {
	Base        string      `json:"base"`
	BaseIssuer  string      `json:"base_issuer,omitempty"`
	Quote       string      `json:"quote"`
	QuoteIssuer string      `json:"quote_issuer,omitempty"`
	Side        string      `json:"side"`
	Levels      []levelView `json:"levels"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

func toDepthView(d domain.Depth) depthView {
	levels := make([]levelView, 0, len(d.Levels))
	for _, lvl := range d.Levels {
		levels = append(levels, levelView{
			Price:              lvl.Price.String(),
			Quantity:           lvl.Quantity.String(),
			CumulativeQuantity: lvl.CumulativeQuantity.String(),
			CumulativeCost:     lvl.CumulativeCost.String(),
		})
	}
	return depthView{
		Base:        d.Pair.Base.Currency,
		BaseIssuer:  d.Pair.Base.Issuer,
		Quote:       d.Pair.Quote.Currency,
		QuoteIssuer: d.Pair.Quote.Issuer,
		Side:        string(d.Side),
		Levels:      levels,
		FetchedAt:   d.FetchedAt,
	}
}

type estimateView struct {
	AveragePrice      string `json:"average_price,omitempty"`
	TotalCost         string `json:"total_cost"`
	PriceImpactPct    string `json:"price_impact_pct"`
	SlippagePct       string `json:"slippage_pct"`
	FilledQuantity    string `json:"filled_quantity"`
	UnfillableQty     string `json:"unfillable_quantity"`
	WorstPriceTouched string `json:"worst_price_touched,omitempty"`
	FullyFillable     bool   `json:"fully_fillable"`
	Warning           string `json:"warning,omitempty"`
}

func toEstimateView(e domain.ExecutionEstimate) estimateView {
	v := estimateView{
		TotalCost:      e.TotalCost.String(),
		PriceImpactPct: e.PriceImpact.String(),
		SlippagePct:    e.Slippage.String(),
		FilledQuantity: e.FilledQuantity.String(),
		UnfillableQty:  e.UnfillableQty.String(),
		FullyFillable:  e.FullyFillable,
		Warning:        e.Warning,
	}
	if e.AveragePrice.IsPositive() {
		v.AveragePrice = e.AveragePrice.String()
	}
	if e.WorstPriceTouched.IsPositive() {
		v.WorstPriceTouched = e.WorstPriceTouched.String()
	}
	return v
}

// Depth handles GET /api/book/depth.
func (h *BookHandler) Depth(w http.ResponseWriter, r *http.Request) {
	pair, ok := parsePair(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "base and quote query parameters are required")
		return
	}
	side, ok := parseSide(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}

	depth, err := h.books.Depth(r.Context(), pair, side)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "depth fetch failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch order book")
		return
	}
	writeJSON(w, http.StatusOK, toDepthView(depth))
}

// Estimate handles GET /api/book/estimate.
func (h *BookHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	pair, ok := parsePair(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "base and quote query parameters are required")
		return
	}
	side, ok := parseSide(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}
	size, ok := parseDecimal(r, "size")
	if !ok || !size.IsPositive() {
		writeError(w, http.StatusBadRequest, "size must be a positive decimal")
		return
	}

	est, err := h.books.Estimate(r.Context(), pair, side, size, parseTolerance(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "estimate failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch order book")
		return
	}
	writeJSON(w, http.StatusOK, toEstimateView(est))
}

// ProtectedPrice handles GET /api/book/protected-price.
func (h *BookHandler) ProtectedPrice(w http.ResponseWriter, r *http.Request) {
	pair, ok := parsePair(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "base and quote query parameters are required")
		return
	}
	side, ok := parseSide(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "side must be buy or sell")
		return
	}
	price, err := h.books.ProtectedPrice(r.Context(), pair, side, parseTolerance(r))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"side":  string(side),
		"price": price.String(),
	})
}

// SizingHandler serves reserve-aware sizing endpoints.
type SizingHandler struct {
	sizing *service.SizingService
	logger *slog.Logger
}

// NewSizingHandler creates a SizingHandler.
func NewSizingHandler(sizing *service.SizingService, logger *slog.Logger) *SizingHandler {
	return &SizingHandler{
		sizing: sizing,
		logger: logger.With(slog.String("handler", "sizing")),
	}
}

// Available handles GET /api/wallets/{address}/available.
func (h *SizingHandler) Available(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	avail, err := h.sizing.AvailableNative(r.Context(), address)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "available query failed",
			slog.String("wallet", address),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to fetch account state")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"wallet":    address,
		"available": avail.String(),
	})
}

// MaxBuy handles GET /api/wallets/{address}/max-buy.
func (h *SizingHandler) MaxBuy(w http.ResponseWriter, r *http.Request) {
	h.maxOrder(w, r, true)
}

// MaxSell handles GET /api/wallets/{address}/max-sell.
func (h *SizingHandler) MaxSell(w http.ResponseWriter, r *http.Request) {
	h.maxOrder(w, r, false)
}

func (h *SizingHandler) maxOrder(w http.ResponseWriter, r *http.Request, buy bool) {
	address := r.PathValue("address")

	price, ok := parseDecimal(r, "price")
	if !ok {
		writeError(w, http.StatusBadRequest, "price must be a decimal")
		return
	}
	balance, ok := parseDecimal(r, "balance")
	if !ok {
		// Native-funded orders derive the balance from account state.
		balance = decimal.Zero
	}
	native := r.URL.Query().Get("native") == "true"

	var (
		result decimal.Decimal
		err    error
	)
	if buy {
		result, err = h.sizing.MaxBuy(r.Context(), address, balance, price, native)
	} else {
		result, err = h.sizing.MaxSell(r.Context(), address, balance, price, native)
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"wallet": address,
		"amount": result.String(),
	})
}
