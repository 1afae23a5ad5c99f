// Package book converts raw resting-offer snapshots into cumulative depth
// curves and estimates the outcome of hypothetical market orders against
// them.
package book

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/domain"
)

// Analyzer builds depth curves from raw book snapshots.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	return &Analyzer{logger: logger.With(slog.String("component", "book_analyzer"))}
}

// BuildDepth normalizes a raw snapshot into a quote-per-base depth curve
// with running cumulative quantity and cost. A buy query returns offers
// whose makers sell the base asset (maker TakerGets is base); a sell query
// returns offers whose makers buy it (maker TakerPays is base). Both shapes
// land in the same convention here. Snapshot order encodes the ledger's
// matching priority, so levels are kept exactly as delivered; entries with a
// non-positive price or quantity are skipped.
func (a *Analyzer) BuildDepth(offers []domain.RawBookOffer, pair domain.TradingPair, bookSide domain.BookSide) domain.Depth {
	depth := domain.Depth{
		Pair:      pair,
		Side:      bookSide,
		FetchedAt: time.Now().UTC(),
	}

	var cumQty, cumCost decimal.Decimal
	for _, offer := range offers {
		var base, quote decimal.Decimal
		switch bookSide {
		case domain.BookSideBuy:
			base = offer.TakerGets.Major()
			quote = offer.TakerPays.Major()
		case domain.BookSideSell:
			base = offer.TakerPays.Major()
			quote = offer.TakerGets.Major()
		default:
			return depth
		}

		if !base.IsPositive() || !quote.IsPositive() {
			a.logger.Debug("skipping degenerate book offer",
				slog.String("account", offer.Account),
				slog.Uint64("sequence", uint64(offer.Sequence)),
			)
			continue
		}

		price := quote.Div(base)
		cumQty = cumQty.Add(base)
		cumCost = cumCost.Add(quote)

		depth.Levels = append(depth.Levels, domain.BookLevel{
			Price:              price,
			Quantity:           base,
			CumulativeQuantity: cumQty,
			CumulativeCost:     cumCost,
		})
	}

	return depth
}
