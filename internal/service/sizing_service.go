package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/sablewallet/sable/internal/domain"
	"github.com/sablewallet/sable/internal/sizing"
)

// SizingService answers "how much can this wallet afford" queries by
// combining live account state and current reserve requirements with the
// reserve-aware sizing calculator.
type SizingService struct {
	gateway  domain.LedgerGateway
	logger   *slog.Logger
	feeDrops int64
}

// NewSizingService creates a SizingService.
func NewSizingService(gateway domain.LedgerGateway, feeDrops int64, logger *slog.Logger) *SizingService {
	if feeDrops <= 0 {
		feeDrops = sizing.DefaultFeeDrops
	}
	return &SizingService{
		gateway:  gateway,
		logger:   logger.With(slog.String("service", "sizing")),
		feeDrops: feeDrops,
	}
}

// snapshot loads the wallet and reserve state the calculator needs.
func (s *SizingService) snapshot(ctx context.Context, address string) (sizing.Wallet, sizing.Params, error) {
	info, err := s.gateway.AccountInfo(ctx, address)
	if err != nil {
		return sizing.Wallet{}, sizing.Params{}, fmt.Errorf("sizing_service: account info %s: %w", address, err)
	}
	reserves, err := s.gateway.ServerReserves(ctx)
	if err != nil {
		return sizing.Wallet{}, sizing.Params{}, fmt.Errorf("sizing_service: server reserves: %w", err)
	}
	offers, err := s.gateway.AccountOffers(ctx, address)
	if err != nil {
		return sizing.Wallet{}, sizing.Params{}, fmt.Errorf("sizing_service: account offers %s: %w", address, err)
	}

	var balanceDrops decimal.Decimal
	if info.BalanceDrops.Native && info.BalanceDrops.Drops != nil {
		balanceDrops = decimal.NewFromBigInt(info.BalanceDrops.Drops, 0)
	}

	wallet := sizing.Wallet{
		NativeBalanceDrops: balanceDrops,
		TrustlineCount:     info.TrustlineCount,
		RestingOfferCount:  len(offers),
	}
	params := sizing.ParamsFromReserves(reserves)
	params.FeeDrops = decimal.New(s.feeDrops, 0)
	return wallet, params, nil
}

// MaxBuy returns the largest base amount the wallet can buy at price.
// quoteBalance is the wallet's balance in the quote asset; it is ignored
// when the quote side is XRP, where the reserve-adjusted native balance
// applies instead.
func (s *SizingService) MaxBuy(ctx context.Context, address string, quoteBalance, price decimal.Decimal, quoteIsNative bool) (decimal.Decimal, error) {
	wallet, params, err := s.snapshot(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return sizing.MaxBuy(wallet, params, quoteBalance, price, quoteIsNative)
}

// MaxSell returns the quote total receivable for selling the wallet's base
// balance at price.
func (s *SizingService) MaxSell(ctx context.Context, address string, baseBalance, price decimal.Decimal, baseIsNative bool) (decimal.Decimal, error) {
	wallet, params, err := s.snapshot(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return sizing.MaxSell(wallet, params, baseBalance, price, baseIsNative)
}

// AvailableNative returns the wallet's spendable XRP after reserves, in
// major units.
func (s *SizingService) AvailableNative(ctx context.Context, address string) (decimal.Decimal, error) {
	wallet, params, err := s.snapshot(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}
	return sizing.AvailableNative(wallet, params), nil
}
