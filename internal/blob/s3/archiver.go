package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Archiver persists the raw transaction pages fetched during wallet sync, so
// a reconciliation can later be replayed from the original ledger responses.
type Archiver struct {
	writer *Writer
	logger *slog.Logger
}

// NewArchiver creates an Archiver writing through the given Writer.
func NewArchiver(writer *Writer, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: writer,
		logger: logger.With(slog.String("component", "tx_archiver")),
	}
}

// ArchiveTxPage uploads one raw account_tx page under a key partitioned by
// network, wallet, and fetch date. The multipart path is taken for pages
// beyond a single-request size.
func (a *Archiver) ArchiveTxPage(ctx context.Context, wallet, network string, raw []byte) (string, error) {
	now := time.Now().UTC()
	key := fmt.Sprintf("txpages/%s/%s/%s/%s.json",
		network, wallet, now.Format("2006/01/02"), uuid.New().String())

	var err error
	if int64(len(raw)) > minPartSize {
		err = a.writer.PutMultipart(ctx, key, bytes.NewReader(raw), minPartSize)
	} else {
		err = a.writer.Put(ctx, key, bytes.NewReader(raw), "application/json")
	}
	if err != nil {
		return "", fmt.Errorf("s3blob: archive tx page: %w", err)
	}

	a.logger.Info("archived transaction page",
		slog.String("wallet", wallet),
		slog.String("network", network),
		slog.String("key", key),
		slog.Int("bytes", len(raw)),
	)
	return key, nil
}
