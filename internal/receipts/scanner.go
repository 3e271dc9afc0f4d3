// Package receipts turns uploaded receipt images into transactions.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/store"
)

var allowedContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"application/pdf": ".pdf",
}

// ErrUnsupportedContentType is returned for uploads that are not images or PDFs.
var ErrUnsupportedContentType = errors.New("unsupported content type")

// Scanner uploads receipts and converts them into receipt transactions.
type Scanner struct {
	storage         Storage
	parser          Parser
	transactions    store.TransactionRepository
	defaultCurrency string
	log             zerolog.Logger
	now             func() time.Time
}

// NewScanner creates a Scanner.
func NewScanner(storage Storage, parser Parser, transactions store.TransactionRepository, defaultCurrency string, log zerolog.Logger) *Scanner {
	return &Scanner{
		storage:         storage,
		parser:          parser,
		transactions:    transactions,
		defaultCurrency: defaultCurrency,
		log:             log,
		now:             time.Now,
	}
}

// NormalizeContentType validates an upload content type and strips parameters.
func NormalizeContentType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	if _, ok := allowedContentTypes[mediaType]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedContentType, mediaType)
	}
	return mediaType, nil
}

// Upload stores a receipt image and returns its object name.
func (s *Scanner) Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error) {
	mediaType, err := NormalizeContentType(contentType)
	if err != nil {
		return "", err
	}
	objectName := fmt.Sprintf("receipts/%s/%s/%s%s",
		userID, s.now().UTC().Format("2006/01/02"), uuid.New().String(), allowedContentTypes[mediaType])

	written, err := s.storage.Upload(ctx, objectName, mediaType, r)
	if err != nil {
		return "", fmt.Errorf("Upload: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("object_name", objectName).
		Int64("bytes", written).
		Msg("Receipt uploaded")
	return objectName, nil
}

// Scan parses a stored receipt and records it as a transaction.
func (s *Scanner) Scan(ctx context.Context, userID string, payload jobs.ScanReceiptPayload) (*domain.Transaction, error) {
	image, err := s.storage.Download(ctx, payload.ObjectName)
	if err != nil {
		return nil, fmt.Errorf("Scan: %w", err)
	}

	receipt, err := s.parser.Parse(ctx, image, payload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("Scan: %w", err)
	}

	tx := s.ToTransaction(userID, payload, receipt)
	if err := s.transactions.InsertTransactions(ctx, []domain.Transaction{tx}); err != nil {
		return nil, fmt.Errorf("Scan: insert transaction: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("transaction_id", tx.ID).
		Str("merchant", receipt.Merchant).
		Float64("amount", tx.Amount).
		Msg("Receipt scanned")
	return &tx, nil
}

// ToTransaction maps a receipt to an outflow transaction. The id is derived
// from the object name, so rescanning the same upload yields the same id.
func (s *Scanner) ToTransaction(userID string, payload jobs.ScanReceiptPayload, r *Receipt) domain.Transaction {
	date := s.now().UTC()
	if r.Date != "" {
		if d, err := time.Parse("2006-01-02", r.Date); err == nil {
			date = d
		}
	}
	currency := r.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	name := r.Merchant
	if name == "" {
		name = "Receipt"
	}
	var category []string
	if c := strings.TrimSpace(r.Category); c != "" {
		category = []string{c}
	}

	return domain.Transaction{
		ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte(payload.ObjectName)).String(),
		UserID:       userID,
		AccountID:    payload.AccountID,
		Amount:       r.Total.Neg().Round(2).InexactFloat64(),
		Currency:     currency,
		Date:         date,
		Name:         name,
		MerchantName: r.Merchant,
		Category:     category,
		Source:       domain.SourceReceipt,
	}
}

// JobHandler processes scan_receipt jobs and stores the transaction as the job result.
func (s *Scanner) JobHandler() jobs.JobHandler {
	return func(ctx context.Context, job *jobs.Job) error {
		var payload jobs.ScanReceiptPayload
		if err := job.DecodePayload(&payload); err != nil {
			return err
		}
		tx, err := s.Scan(ctx, job.UserID, payload)
		if err != nil {
			return err
		}
		return job.SetResult(tx)
	}
}
