// Package dispatch drains the pending-send store through the SMS
// gateway and records acknowledgements in the sent-log.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

const (
	// DefaultBatchCap bounds one dispatch run.
	DefaultBatchCap = 40
	// DefaultDelay is the pause between consecutive sends; it exists
	// to respect the gateway's rate limit.
	DefaultDelay = time.Second
)

// Sender issues one outbound send request to the gateway.
type Sender interface {
	SendSMS(ctx context.Context, message, recipient string) (batchID string, statusCode int, err error)
}

// Dispatcher sends pending messages in their queued order. Each
// successfully acknowledged customer is written to the sent-log before
// being removed from the pending store, so a crash mid-batch leaves
// already-sent customers present in the sent-log and absent from
// pending.
type Dispatcher struct {
	Pending  *store.JSONStore[models.PendingMessage]
	Sent     *store.JSONStore[models.SentRecord]
	Gateway  Sender
	BatchCap int
	Delay    time.Duration
	// Tolerant makes a failed send skip to the next customer instead
	// of aborting the run.
	Tolerant bool
	Logger   *zap.Logger
}

// New returns a dispatcher with the default batch cap and delay.
func New(pending *store.JSONStore[models.PendingMessage], sent *store.JSONStore[models.SentRecord], gw Sender, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		Pending:  pending,
		Sent:     sent,
		Gateway:  gw,
		BatchCap: DefaultBatchCap,
		Delay:    DefaultDelay,
		Logger:   logger,
	}
}

// resolveLimit clamps a requested limit into a sendable batch size.
// Zero means unset and falls back to the cap. A request outside
// [1, cap] resolves to the available count when it exceeds it and to
// the cap otherwise. The result never exceeds the available count.
func resolveLimit(requested, batchCap, available int) int {
	limit := batchCap
	if requested != 0 {
		switch {
		case requested >= 1 && requested <= batchCap:
			limit = requested
		case requested > available:
			limit = available
		default:
			limit = batchCap
		}
	}
	if limit > available {
		limit = available
	}
	return limit
}

// Run sends up to limit pending messages (zero means the default cap).
// It returns the number of messages the gateway acknowledged. On a
// gateway error the run aborts unless the dispatcher is tolerant;
// customers processed before the error stay sent.
func (d *Dispatcher) Run(ctx context.Context, limit int) (int, error) {
	entries, err := d.Pending.Entries()
	if err != nil {
		return 0, err
	}
	acked, err := d.Sent.ReadAll()
	if err != nil {
		return 0, err
	}

	// A customer already acknowledged in the sent-log is never sent
	// again; a crash between the sent-log write and the pending delete
	// leaves them in both stores, so the stale pending entry is purged
	// here instead of re-sent. Failed deliveries re-enter pending
	// through the failure list at composition time.
	queue := entries[:0]
	for _, entry := range entries {
		if rec, ok := acked[entry.Key]; ok && accepted(rec.Status) {
			if err := d.Pending.Delete(entry.Key); err != nil {
				return 0, err
			}
			d.Logger.Info("already sent, purged from pending",
				zap.String("customer", entry.Key))
			continue
		}
		queue = append(queue, entry)
	}
	entries = queue

	if len(entries) == 0 {
		d.Logger.Info("no pending messages to send")
		return 0, nil
	}

	n := resolveLimit(limit, d.BatchCap, len(entries))
	d.Logger.Info("dispatching batch",
		zap.Int("requested", limit),
		zap.Int("resolved", n),
		zap.Int("pending", len(entries)))

	sent := 0
	for i, entry := range entries[:n] {
		if i > 0 {
			if err := wait(ctx, d.Delay); err != nil {
				return sent, err
			}
		}

		batchID, status, err := d.Gateway.SendSMS(ctx, entry.Value.Body, entry.Value.Contact)
		if err != nil {
			if d.Tolerant {
				d.Logger.Warn("send failed, continuing",
					zap.String("customer", entry.Key),
					zap.Error(err))
				continue
			}
			return sent, fmt.Errorf("send to %q: %w", entry.Key, err)
		}

		record := models.SentRecord{
			SMSBatchID: batchID,
			Contact:    entry.Value.Contact,
			Status:     status,
		}
		if err := d.Sent.Put(entry.Key, record); err != nil {
			return sent, err
		}
		if err := d.Pending.Delete(entry.Key); err != nil {
			return sent, err
		}
		sent++

		d.Logger.Info("request sent",
			zap.String("customer", entry.Key),
			zap.String("batch_id", batchID),
			zap.Int("status", status))
	}
	return sent, nil
}

// accepted reports whether a recorded send status counts as a gateway
// acknowledgement. The gateway answers accepted sends with 201.
func accepted(status int) bool {
	return status >= 200 && status < 300
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
