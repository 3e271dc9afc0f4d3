package jobs

import (
	"context"
	"fmt"

	"github.com/dvloznov/finance-insights/internal/store"
)

// AnomalyFlagPublisher queues is_anomaly writes as flag_anomalies jobs.
type AnomalyFlagPublisher struct {
	publisher Publisher
}

// NewAnomalyFlagPublisher creates an AnomalyFlagPublisher.
func NewAnomalyFlagPublisher(publisher Publisher) *AnomalyFlagPublisher {
	return &AnomalyFlagPublisher{publisher: publisher}
}

// FlagAnomalies publishes a flag_anomalies job.
func (p *AnomalyFlagPublisher) FlagAnomalies(ctx context.Context, userID string, flags map[string]bool) error {
	job, err := NewJob(JobTypeFlagAnomalies, userID, FlagAnomaliesPayload{Flags: flags})
	if err != nil {
		return fmt.Errorf("FlagAnomalies: %w", err)
	}
	if err := p.publisher.Publish(ctx, job); err != nil {
		return fmt.Errorf("FlagAnomalies: publish: %w", err)
	}
	return nil
}

// FlagAnomaliesHandler applies flag_anomalies jobs to the transaction repository.
func FlagAnomaliesHandler(repo store.TransactionRepository) JobHandler {
	return func(ctx context.Context, job *Job) error {
		var payload FlagAnomaliesPayload
		if err := job.DecodePayload(&payload); err != nil {
			return err
		}
		if err := repo.SetAnomalyFlags(ctx, job.UserID, payload.Flags); err != nil {
			return fmt.Errorf("FlagAnomaliesHandler: %w", err)
		}
		return nil
	}
}
