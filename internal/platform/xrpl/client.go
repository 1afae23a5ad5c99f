// Package xrpl is the ledger client collaborator: a thin WebSocket JSON-RPC
// client for an XRP Ledger node. It fetches already-validated data for the
// analytics core and owns no retry or failover policy.
package xrpl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sablewallet/sable/internal/domain"
)

// Client speaks the ledger's WebSocket API with request/response correlation
// by id. It is safe for concurrent use; one reader goroutine dispatches
// replies to waiting callers.
type Client struct {
	url    string
	logger *slog.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]chan response
	closed  bool
}

// Dial connects to the node at url and starts the read loop.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("xrpl: dial %s: %w", url, err)
	}

	c := &Client{
		url:     url,
		logger:  logger.With(slog.String("component", "xrpl_client")),
		conn:    conn,
		pending: make(map[uint64]chan response),
	}
	go c.readLoop()
	return c, nil
}

// Close tears down the connection and fails all in-flight calls.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if !c.closed {
				c.logger.Warn("read loop terminated", slog.String("error", err.Error()))
				c.closed = true
				for id, ch := range c.pending {
					close(ch)
					delete(c.pending, id)
				}
			}
			c.mu.Unlock()
			return
		}

		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			c.logger.Warn("undecodable message from node", slog.String("error", err.Error()))
			continue
		}
		// Unsolicited stream messages carry no id; this client subscribes to
		// nothing, so they are dropped.
		if resp.ID == 0 {
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
			close(ch)
		}
	}
}

// call sends one command and decodes its result into out.
func (c *Client) call(ctx context.Context, req request, out any) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrGatewayClosed
	}
	c.nextID++
	req.ID = c.nextID
	ch := make(chan response, 1)
	c.pending[req.ID] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return fmt.Errorf("xrpl: write %s: %w", req.Command, err)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
		return ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return domain.ErrGatewayClosed
		}
		if resp.Status != "success" {
			return fmt.Errorf("xrpl: %s failed: %s (%s)", req.Command, resp.ErrorCode, resp.ErrorMessage)
		}
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("xrpl: decode %s result: %w", req.Command, err)
		}
		return nil
	}
}

// AccountTransactions fetches the wallet's transaction history with metadata,
// most recent first, and returns the raw result payload alongside for
// archival.
func (c *Client) AccountTransactions(ctx context.Context, address string, limit int) ([]domain.Transaction, []byte, error) {
	binary := false
	var raw json.RawMessage
	if err := c.call(ctx, request{
		Command: "account_tx",
		Account: address,
		Limit:   limit,
		Binary:  &binary,
	}, &raw); err != nil {
		return nil, nil, err
	}

	var result accountTxResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, nil, fmt.Errorf("xrpl: decode account_tx: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(result.Transactions))
	for _, item := range result.Transactions {
		tx, err := convertTransaction(item)
		if err != nil {
			c.logger.Warn("skipping undecodable transaction",
				slog.String("account", address),
				slog.String("error", err.Error()),
			)
			continue
		}
		txs = append(txs, tx)
	}
	return txs, raw, nil
}

// BookOffers fetches one side of the pair's order book in matching-priority
// order. A buy query asks for offers whose makers sell the base asset; a
// sell query asks for offers whose makers buy it.
func (c *Client) BookOffers(ctx context.Context, pair domain.TradingPair, bookSide domain.BookSide, limit int) ([]domain.RawBookOffer, error) {
	base := specFor(pair.Base)
	quote := specFor(pair.Quote)

	req := request{Command: "book_offers", Limit: limit}
	switch bookSide {
	case domain.BookSideBuy:
		req.TakerGets = &base
		req.TakerPays = &quote
	case domain.BookSideSell:
		req.TakerGets = &quote
		req.TakerPays = &base
	default:
		return nil, domain.ErrInvalidPair
	}

	var result bookOffersResult
	if err := c.call(ctx, req, &result); err != nil {
		return nil, err
	}

	offers := make([]domain.RawBookOffer, 0, len(result.Offers))
	for _, w := range result.Offers {
		offer, err := convertBookOffer(w)
		if err != nil {
			c.logger.Warn("skipping undecodable book offer", slog.String("error", err.Error()))
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// AccountOffers fetches the wallet's currently resting offers.
func (c *Client) AccountOffers(ctx context.Context, address string) ([]domain.LiveOffer, error) {
	var result accountOffersResult
	if err := c.call(ctx, request{Command: "account_offers", Account: address}, &result); err != nil {
		return nil, err
	}

	offers := make([]domain.LiveOffer, 0, len(result.Offers))
	for _, w := range result.Offers {
		offer, err := convertLiveOffer(w)
		if err != nil {
			c.logger.Warn("skipping undecodable live offer", slog.String("error", err.Error()))
			continue
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// AccountInfo fetches the wallet's balance and object counts.
func (c *Client) AccountInfo(ctx context.Context, address string) (domain.AccountInfo, error) {
	var info accountInfoResult
	if err := c.call(ctx, request{Command: "account_info", Account: address}, &info); err != nil {
		return domain.AccountInfo{}, err
	}

	balance, err := domain.ParseAmount(info.AccountData.Balance)
	if err != nil {
		return domain.AccountInfo{}, fmt.Errorf("xrpl: account balance: %w", err)
	}

	var lines accountLinesResult
	if err := c.call(ctx, request{Command: "account_lines", Account: address}, &lines); err != nil {
		return domain.AccountInfo{}, err
	}

	return domain.AccountInfo{
		Address:        info.AccountData.Account,
		BalanceDrops:   balance,
		OwnerCount:     info.AccountData.OwnerCount,
		TrustlineCount: len(lines.Lines),
		Sequence:       info.AccountData.Sequence,
	}, nil
}

// ServerReserves fetches the current reserve requirements.
func (c *Client) ServerReserves(ctx context.Context) (domain.ReserveParams, error) {
	var state serverStateResult
	if err := c.call(ctx, request{Command: "server_state"}, &state); err != nil {
		return domain.ReserveParams{}, err
	}
	return domain.ReserveParams{
		BaseReserveDrops:      state.State.ValidatedLedger.ReserveBase,
		IncrementReserveDrops: state.State.ValidatedLedger.ReserveInc,
	}, nil
}

func specFor(a domain.Asset) currencySpec {
	if a.IsNative() {
		return currencySpec{Currency: "XRP"}
	}
	return currencySpec{Currency: a.Currency, Issuer: a.Issuer}
}

// Compile-time interface check.
var _ domain.LedgerGateway = (*Client)(nil)
