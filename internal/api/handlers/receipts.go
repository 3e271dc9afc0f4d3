package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/dvloznov/finance-insights/internal/api/middleware"
	"github.com/dvloznov/finance-insights/internal/jobs"
	"github.com/dvloznov/finance-insights/internal/receipts"
	"github.com/rs/zerolog"
)

// ReceiptUploader stores receipt images.
type ReceiptUploader interface {
	Upload(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
}

// ReceiptsHandler accepts receipt uploads and queues them for scanning.
type ReceiptsHandler struct {
	uploader  ReceiptUploader
	publisher jobs.Publisher
	maxBytes  int64
	log       zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler. maxBytes bounds the request body.
func NewReceiptsHandler(uploader ReceiptUploader, publisher jobs.Publisher, maxBytes int64, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{
		uploader:  uploader,
		publisher: publisher,
		maxBytes:  maxBytes,
		log:       log,
	}
}

// UploadReceipt handles POST /api/receipts with the raw image as the body.
// An optional account_id query parameter is attached to the resulting transaction.
func (h *ReceiptsHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	contentType, err := receipts.NormalizeContentType(r.Header.Get("Content-Type"))
	if err != nil {
		middleware.WriteError(w, http.StatusUnsupportedMediaType, "Receipt must be a JPEG, PNG, WebP, HEIC image or a PDF")
		return
	}

	body := io.Reader(r.Body)
	if h.maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	ctx := r.Context()
	objectName, err := h.uploader.Upload(ctx, userID, contentType, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteError(w, http.StatusRequestEntityTooLarge, "Receipt is too large")
			return
		}
		h.log.Error().Err(err).Str("user_id", userID).Msg("Failed to upload receipt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload receipt")
		return
	}

	job, err := jobs.NewJob(jobs.JobTypeScanReceipt, userID, jobs.ScanReceiptPayload{
		ObjectName:  objectName,
		ContentType: contentType,
		AccountID:   r.URL.Query().Get("account_id"),
	})
	if err == nil {
		err = h.publisher.Publish(ctx, job)
	}
	if err != nil {
		h.log.Error().Err(err).Str("object_name", objectName).Msg("Failed to enqueue receipt scan")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue receipt scan")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("object_name", objectName).Msg("Receipt scan job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"object_name": objectName,
		"status":      string(job.Status),
	})
}
