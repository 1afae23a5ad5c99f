package xrpl

import "encoding/json"

// Wire shapes for the ledger's WebSocket API. Amounts arrive either as a
// drops string (XRP) or a currency/issuer/value object, so they stay
// json.RawMessage or any until domain conversion.

// request is the envelope for one API command.
type request struct {
	ID      uint64 `json:"id"`
	Command string `json:"command"`

	Account   string          `json:"account,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Binary    *bool           `json:"binary,omitempty"`
	Forward   *bool           `json:"forward,omitempty"`
	TakerGets *currencySpec   `json:"taker_gets,omitempty"`
	TakerPays *currencySpec   `json:"taker_pays,omitempty"`
	LedgerIdx json.RawMessage `json:"ledger_index,omitempty"`
}

// currencySpec identifies one side of a book_offers query.
type currencySpec struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer,omitempty"`
}

// response is the envelope of every reply.
type response struct {
	ID           uint64          `json:"id"`
	Status       string          `json:"status"`
	Type         string          `json:"type"`
	Result       json.RawMessage `json:"result"`
	ErrorCode    string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
}

// accountTxResult is the result of an account_tx command.
type accountTxResult struct {
	Account      string          `json:"account"`
	Transactions []accountTxItem `json:"transactions"`
	Marker       json.RawMessage `json:"marker"`
}

type accountTxItem struct {
	Tx        *txJSON         `json:"tx"`
	TxJSON    *txJSON         `json:"tx_json"`
	Meta      json.RawMessage `json:"meta"`
	Validated bool            `json:"validated"`
}

// transaction returns whichever of the two field spellings the server used.
func (it accountTxItem) transaction() *txJSON {
	if it.Tx != nil {
		return it.Tx
	}
	return it.TxJSON
}

type txJSON struct {
	Hash            string `json:"hash"`
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Sequence        uint32 `json:"Sequence"`
	Flags           uint32 `json:"Flags"`
	TakerGets       any    `json:"TakerGets"`
	TakerPays       any    `json:"TakerPays"`
	Expiration      uint32 `json:"Expiration"`
	LedgerIndex     uint32 `json:"ledger_index"`
	Date            uint32 `json:"date"`
}

// txMeta is the metadata change set attached to a validated transaction.
type txMeta struct {
	AffectedNodes []affectedNodeWire `json:"AffectedNodes"`
}

type affectedNodeWire struct {
	CreatedNode  *nodeWire `json:"CreatedNode"`
	ModifiedNode *nodeWire `json:"ModifiedNode"`
	DeletedNode  *nodeWire `json:"DeletedNode"`
}

type nodeWire struct {
	LedgerEntryType string      `json:"LedgerEntryType"`
	NewFields       *fieldsWire `json:"NewFields"`
	FinalFields     *fieldsWire `json:"FinalFields"`
	PreviousFields  *fieldsWire `json:"PreviousFields"`
}

type fieldsWire struct {
	Account   string  `json:"Account"`
	Sequence  *uint32 `json:"Sequence"`
	TakerGets any     `json:"TakerGets"`
	TakerPays any     `json:"TakerPays"`
	Balance   any     `json:"Balance"`
	HighLimit any     `json:"HighLimit"`
	LowLimit  any     `json:"LowLimit"`
}

// bookOffersResult is the result of a book_offers command.
type bookOffersResult struct {
	Offers []bookOfferWire `json:"offers"`
}

type bookOfferWire struct {
	Account   string `json:"Account"`
	Sequence  uint32 `json:"Sequence"`
	TakerGets any    `json:"TakerGets"`
	TakerPays any    `json:"TakerPays"`
}

// accountOffersResult is the result of an account_offers command.
type accountOffersResult struct {
	Offers []accountOfferWire `json:"offers"`
}

type accountOfferWire struct {
	Seq       uint32 `json:"seq"`
	TakerGets any    `json:"taker_gets"`
	TakerPays any    `json:"taker_pays"`
	Flags     uint32 `json:"flags"`
}

// accountInfoResult is the result of an account_info command.
type accountInfoResult struct {
	AccountData struct {
		Account    string `json:"Account"`
		Balance    string `json:"Balance"`
		OwnerCount uint32 `json:"OwnerCount"`
		Sequence   uint32 `json:"Sequence"`
	} `json:"account_data"`
}

// accountLinesResult is the result of an account_lines command; only the
// line count feeds the sizing calculator.
type accountLinesResult struct {
	Lines []json.RawMessage `json:"lines"`
}

// serverStateResult carries the reserve requirements in drops.
type serverStateResult struct {
	State struct {
		ValidatedLedger struct {
			ReserveBase int64 `json:"reserve_base"`
			ReserveInc  int64 `json:"reserve_inc"`
		} `json:"validated_ledger"`
	} `json:"state"`
}
