package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// multipartThreshold is the payload size above which the archiver switches
// to a multipart upload.
const multipartThreshold = 5 * 1024 * 1024

// FillArchiver writes each batch of raw fills to object storage as CSV,
// keeping an audit trail of everything the monitor observed.
type FillArchiver struct {
	writer domain.BlobWriter
	logger *slog.Logger
}

// NewFillArchiver creates a FillArchiver uploading through the given writer.
func NewFillArchiver(writer domain.BlobWriter, logger *slog.Logger) *FillArchiver {
	return &FillArchiver{
		writer: writer,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// Archive converts the fills to CSV and uploads one object per batch, keyed
// by upload time.
func (a *FillArchiver) Archive(ctx context.Context, fills []domain.RawFill) error {
	if len(fills) == 0 {
		return nil
	}

	csvData, err := fillsToCSV(fills)
	if err != nil {
		return fmt.Errorf("pipeline: converting fills to CSV: %w", err)
	}

	path := fmt.Sprintf("fills/orderFilled/%s.csv", time.Now().UTC().Format("2006-01-02T150405"))

	if len(csvData) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(csvData), multipartThreshold)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(csvData), "text/csv")
	}
	if err != nil {
		return fmt.Errorf("pipeline: uploading CSV to %s: %w", path, err)
	}

	a.logger.Info("fills archived",
		slog.Int("fills_count", len(fills)),
		slog.String("s3_path", path),
	)
	return nil
}

// fillsToCSV converts a slice of RawFill to CSV bytes with a header row.
func fillsToCSV(fills []domain.RawFill) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"timestamp",
		"block_number",
		"log_index",
		"maker",
		"maker_asset_id",
		"maker_amount_filled",
		"taker",
		"taker_asset_id",
		"taker_amount_filled",
		"transaction_hash",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, f := range fills {
		row := []string{
			strconv.FormatInt(f.Timestamp, 10),
			strconv.FormatUint(f.BlockNumber, 10),
			strconv.FormatUint(uint64(f.LogIndex), 10),
			f.Maker,
			f.MakerAssetID,
			strconv.FormatInt(f.MakerAmountFilled, 10),
			f.Taker,
			f.TakerAssetID,
			strconv.FormatInt(f.TakerAmountFilled, 10),
			f.TransactionHash,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
