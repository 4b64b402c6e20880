package delivery

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

// fakeStatuses maps batch id to the raw status the gateway reports.
type fakeStatuses map[string]string

func (f fakeStatuses) BatchStatus(_ context.Context, batchID string) (string, string, error) {
	status, ok := f[batchID]
	if !ok {
		return "", "", fmt.Errorf("unknown batch %s", batchID)
	}
	return "sms", status, nil
}

func newReconciler(t *testing.T, gw StatusFetcher) *Reconciler {
	t.Helper()
	dir := t.TempDir()
	sent := store.NewJSON[models.SentRecord](filepath.Join(dir, "sent.json"))
	require.NoError(t, sent.EnsureCreated())
	deliveryStore := store.NewJSON[models.DeliveryRecord](filepath.Join(dir, "delivery.json"))
	return New(sent, deliveryStore, gw, filepath.Join(dir, "failed.csv"), nil)
}

func markSent(t *testing.T, r *Reconciler, name, batchID string) {
	t.Helper()
	require.NoError(t, r.Sent.Put(name, models.SentRecord{
		SMSBatchID: batchID,
		Contact:    "+255773422381",
		Status:     201,
	}))
}

func TestRunClassifiesAndCounts(t *testing.T) {
	gw := fakeStatuses{
		"b1": "delivered",
		"b2": "sent",
		"b3": "failed",
		"b4": "pending",
		"b5": "queued", // outside the known set
	}
	r := newReconciler(t, gw)
	markSent(t, r, "Jane", "b1")
	markSent(t, r, "Asha", "b2")
	markSent(t, r, "Baraka", "b3")
	markSent(t, r, "Neema", "b4")
	markSent(t, r, "Juma", "b5")

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, report.TotalChecked)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Pending)
	assert.Equal(t, 1, report.Unknown)

	records, err := r.Delivery.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryDelivered, records["Jane"].Status)
	assert.Equal(t, models.DeliveryUnknown, records["Juma"].Status)
	assert.Equal(t, "sms", records["Jane"].Type)

	// Failed and unknown outcomes land on the failure list.
	failures, err := store.CSVRows(r.FailedListPath)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Baraka", "failed"},
		{"Juma", "unknown"},
	}, failures)
	assert.Equal(t, 2, report.NewFailures)
}

func TestRunIdempotent(t *testing.T) {
	gw := fakeStatuses{"b1": "delivered", "b2": "failed"}
	r := newReconciler(t, gw)
	markSent(t, r, "Jane", "b1")
	markSent(t, r, "Baraka", "b2")

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	firstRecords, err := r.Delivery.ReadAll()
	require.NoError(t, err)

	second, err := r.Run(context.Background())
	require.NoError(t, err)
	secondRecords, err := r.Delivery.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, firstRecords, secondRecords)
	assert.Equal(t, first.TotalChecked, second.TotalChecked)
	assert.Equal(t, first.Failed, second.Failed)

	// The failure list does not grow on a rerun.
	failures, err := store.CSVRows(r.FailedListPath)
	require.NoError(t, err)
	assert.Len(t, failures, 1)
	assert.Zero(t, second.NewFailures)
}

func TestRunAbortsOnGatewayError(t *testing.T) {
	gw := fakeStatuses{"b1": "delivered"} // b2 unknown to the gateway
	r := newReconciler(t, gw)
	markSent(t, r, "Jane", "b1")
	markSent(t, r, "Asha", "b2")

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Asha")

	// Jane's record was written before the abort and survives.
	records, err := r.Delivery.ReadAll()
	require.NoError(t, err)
	assert.Contains(t, records, "Jane")
}

func TestReportPercentagesGuarded(t *testing.T) {
	var empty Report
	_, _, _, ok := empty.Percentages()
	assert.False(t, ok)

	rows := empty.Rows()
	last := rows[len(rows)-1]
	assert.Equal(t, "no sent clients yet", last[1])

	full := Report{TotalChecked: 4, Sent: 1, Delivered: 2, Failed: 1}
	sentPct, deliveredPct, failedPct, ok := full.Percentages()
	require.True(t, ok)
	assert.InDelta(t, 75.0, sentPct, 0.001)
	assert.InDelta(t, 50.0, deliveredPct, 0.001)
	assert.InDelta(t, 25.0, failedPct, 0.001)
}
