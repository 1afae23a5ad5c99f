package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/domain"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseListOpts extracts standard pagination parameters from the query
// string. Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{Limit: limit, Offset: offset}
}

// parseDecimal reads a required decimal query parameter.
func parseDecimal(r *http.Request, name string) (decimal.Decimal, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// parseTolerance reads the optional tolerance query parameter. Absent or
// unparsable values yield nil, which the book service maps to its configured
// default; an explicit "0" is preserved.
func parseTolerance(r *http.Request) *decimal.Decimal {
	if tol, ok := parseDecimal(r, "tolerance"); ok {
		return &tol
	}
	return nil
}

// parsePair reads the base/quote pair from base, base_issuer, quote,
// quote_issuer query parameters.
func parsePair(r *http.Request) (domain.TradingPair, bool) {
	q := r.URL.Query()
	base := q.Get("base")
	quote := q.Get("quote")
	if base == "" || quote == "" {
		return domain.TradingPair{}, false
	}
	return domain.TradingPair{
		Base:  domain.Asset{Currency: base, Issuer: q.Get("base_issuer")},
		Quote: domain.Asset{Currency: quote, Issuer: q.Get("quote_issuer")},
	}, true
}

// parseSide reads the side query parameter.
func parseSide(r *http.Request) (domain.BookSide, bool) {
	switch r.URL.Query().Get("side") {
	case "buy":
		return domain.BookSideBuy, true
	case "sell":
		return domain.BookSideSell, true
	default:
		return "", false
	}
}
