// Package delivery reconciles asynchronous gateway delivery status
// against the sent-log and reports the outcome per customer.
package delivery

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/render"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

// StatusFetcher queries the gateway for the current status of a batch.
type StatusFetcher interface {
	BatchStatus(ctx context.Context, batchID string) (msgType, status string, err error)
}

// FailureListHeader is the header of the failure list file.
var FailureListHeader = []string{"Name", "Status"}

// Report summarizes one reconciliation run.
type Report struct {
	TotalChecked int
	Sent         int
	Delivered    int
	Failed       int
	Pending      int
	Unknown      int
	// NewFailures is how many rows the run added to the failure list.
	NewFailures int
}

// Percentages returns the sent, delivered and failed rates against the
// total checked. ok is false when nothing has been sent yet, which the
// caller must report distinctly instead of dividing by zero.
func (r Report) Percentages() (sentPct, deliveredPct, failedPct float64, ok bool) {
	if r.TotalChecked == 0 {
		return 0, 0, 0, false
	}
	total := float64(r.TotalChecked)
	sentPct = float64(r.Sent+r.Delivered) / total * 100
	deliveredPct = float64(r.Delivered) / total * 100
	failedPct = float64(r.Failed) / total * 100
	return sentPct, deliveredPct, failedPct, true
}

// Rows renders the report for console display.
func (r Report) Rows() [][]string {
	rows := [][]string{
		{"Total Clients", fmt.Sprintf("%d", r.TotalChecked)},
		{"SMS Sent", fmt.Sprintf("%d", r.Sent+r.Delivered)},
		{"SMS Delivered", fmt.Sprintf("%d", r.Delivered)},
		{"SMS Failed", fmt.Sprintf("%d", r.Failed)},
		{"SMS Pending", fmt.Sprintf("%d", r.Pending)},
		{"Unknown Status", fmt.Sprintf("%d", r.Unknown)},
	}
	if sentPct, deliveredPct, failedPct, ok := r.Percentages(); ok {
		rows = append(rows,
			[]string{"Sent Percent", fmt.Sprintf("%.2f", sentPct)},
			[]string{"Delivered Percent", fmt.Sprintf("%.2f", deliveredPct)},
			[]string{"Failed Percent", fmt.Sprintf("%.2f", failedPct)},
		)
	} else {
		rows = append(rows, []string{"Percentages", "no sent clients yet"})
	}
	return rows
}

// Render returns the report as a console table.
func (r Report) Render() string {
	return render.Table([]string{"Details", "Amount"}, r.Rows())
}

// Reconciler polls the gateway for every batch id in the sent-log and
// overwrites the delivery store with the latest classification. Reruns
// are idempotent: an unchanged gateway response set yields an identical
// delivery store and report.
type Reconciler struct {
	Sent           *store.JSONStore[models.SentRecord]
	Delivery       *store.JSONStore[models.DeliveryRecord]
	Gateway        StatusFetcher
	FailedListPath string
	Logger         *zap.Logger
}

// New returns a reconciler writing failures to failedListPath.
func New(sent *store.JSONStore[models.SentRecord], deliveryStore *store.JSONStore[models.DeliveryRecord], gw StatusFetcher, failedListPath string, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		Sent:           sent,
		Delivery:       deliveryStore,
		Gateway:        gw,
		FailedListPath: failedListPath,
		Logger:         logger,
	}
}

// Run reconciles every sent-log entry. A gateway error aborts the run;
// the delivery records written so far stay valid and a rerun simply
// re-queries them.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	if err := r.Delivery.EnsureCreated(); err != nil {
		return nil, err
	}
	if _, err := store.EnsureCSV(r.FailedListPath, FailureListHeader); err != nil {
		return nil, err
	}

	entries, err := r.Sent.Entries()
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var failures [][]string
	for _, entry := range entries {
		msgType, raw, err := r.Gateway.BatchStatus(ctx, entry.Value.SMSBatchID)
		if err != nil {
			return nil, fmt.Errorf("batch status of %q: %w", entry.Key, err)
		}

		status := models.ClassifyDelivery(raw)
		record := models.DeliveryRecord{Type: msgType, Status: status}
		if err := r.Delivery.Put(entry.Key, record); err != nil {
			return nil, err
		}

		switch status {
		case models.DeliverySent:
			report.Sent++
		case models.DeliveryDelivered:
			report.Delivered++
		case models.DeliveryFailed:
			report.Failed++
			failures = append(failures, []string{entry.Key, string(status)})
		case models.DeliveryPending:
			report.Pending++
		case models.DeliveryUnknown:
			report.Unknown++
			failures = append(failures, []string{entry.Key, string(status)})
		}
		report.TotalChecked++

		r.Logger.Info("client checked",
			zap.String("customer", entry.Key),
			zap.String("status", string(status)))
	}

	added, err := store.AppendCSV(r.FailedListPath, failures)
	if err != nil {
		return nil, err
	}
	report.NewFailures = added

	return report, nil
}
