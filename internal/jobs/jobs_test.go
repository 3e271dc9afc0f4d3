package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/dvloznov/finance-insights/internal/store/memory"
)

type recordingPublisher struct {
	published []*Job
	err       error
}

func (p *recordingPublisher) Publish(ctx context.Context, job *Job) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, job)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestJob_PayloadRoundTrip(t *testing.T) {
	job, err := NewJob(JobTypeScanReceipt, "u1", ScanReceiptPayload{ObjectName: "receipts/u1/a.jpg", ContentType: "image/jpeg"})
	require.NoError(t, err)

	var payload ScanReceiptPayload
	require.NoError(t, job.DecodePayload(&payload))
	assert.Equal(t, "receipts/u1/a.jpg", payload.ObjectName)

	job.Payload = []byte("{")
	assert.Error(t, job.DecodePayload(&payload))
}

func TestMux_Process(t *testing.T) {
	m := NewMux()
	var got JobType
	m.Handle(JobTypeScanReceipt, func(ctx context.Context, job *Job) error {
		got = job.Type
		return nil
	})

	require.NoError(t, m.Process(context.Background(), &Job{Type: JobTypeScanReceipt}))
	assert.Equal(t, JobTypeScanReceipt, got)

	err := m.Process(context.Background(), &Job{Type: "unknown"})
	assert.ErrorContains(t, err, "no handler")
}

func TestAnomalyFlagPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	flagger := NewAnomalyFlagPublisher(pub)

	require.NoError(t, flagger.FlagAnomalies(context.Background(), "u1", map[string]bool{"t1": true, "t2": false}))
	require.Len(t, pub.published, 1)
	assert.Equal(t, JobTypeFlagAnomalies, pub.published[0].Type)
	assert.Equal(t, "u1", pub.published[0].UserID)

	pub.err = errors.New("queue is closed")
	assert.Error(t, flagger.FlagAnomalies(context.Background(), "u1", map[string]bool{"t1": true}))
}

func TestFlagAnomaliesHandler(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	require.NoError(t, repo.InsertTransactions(ctx, []domain.Transaction{
		{ID: "t1", UserID: "u1", Amount: -10, Date: time.Now()},
		{ID: "t2", UserID: "u1", Amount: -10, Date: time.Now(), IsAnomaly: true},
	}))

	job, err := NewJob(JobTypeFlagAnomalies, "u1", FlagAnomaliesPayload{Flags: map[string]bool{"t1": true, "t2": false}})
	require.NoError(t, err)
	require.NoError(t, FlagAnomaliesHandler(repo)(ctx, job))

	txs, err := repo.ListTransactions(ctx, "u1", time.Time{}, time.Time{})
	require.NoError(t, err)
	for _, tx := range txs {
		assert.Equal(t, tx.ID == "t1", tx.IsAnomaly, tx.ID)
	}
}
