// Package compose renders billing records into message bodies and
// queues them for dispatch.
package compose

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/tnswater/emessaging/pkg/emessaging/models"
	"github.com/tnswater/emessaging/pkg/emessaging/render"
	"github.com/tnswater/emessaging/pkg/emessaging/store"
)

//go:embed templates
var defaultTemplates embed.FS

// deadlineLayout formats the payment deadline inside message bodies.
const deadlineLayout = "02-01-2006"

// paymentWindow is how long customers have to settle the bill.
const paymentWindow = 7 * 24 * time.Hour

// Payment carries the static payment identifiers rendered into every
// message body.
type Payment struct {
	AzamPesa     string
	LipaNamba    string
	TigoPesa     string
	ReceiverName string
}

// Composer renders location-specific messages for billable customers
// and upserts them into the pending store keyed by customer name.
type Composer struct {
	// TemplatesDir overrides the embedded templates when it contains a
	// smart_text.txt for the record's location.
	TemplatesDir string
	Payment      Payment
	Pending      *store.JSONStore[models.PendingMessage]
	Sent         *store.JSONStore[models.SentRecord]
}

// Fill composes a message for every billing record not yet in the
// sent-log. Customers named on the failure list are composed again even
// when already marked sent; that is the retry path after a failed
// delivery. It returns how many messages were queued.
func (c *Composer) Fill(billingDate time.Time, billingCSV, failedCSV string) (int, error) {
	failed, err := loadFailureNames(failedCSV)
	if err != nil {
		return 0, err
	}

	sent, err := c.Sent.ReadAll()
	if err != nil {
		return 0, err
	}

	rows, err := store.CSVRows(billingCSV)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, row := range rows {
		rec, err := models.FromRow(row)
		if err != nil {
			return queued, fmt.Errorf("billing log %q: %w", billingCSV, err)
		}

		_, alreadySent := sent[rec.CustomerName]
		if alreadySent && !failed[rec.CustomerName] {
			continue
		}

		body, err := c.Render(rec, billingDate)
		if err != nil {
			return queued, err
		}
		msg := models.PendingMessage{Contact: rec.Contact, Body: body}
		if err := c.Pending.Put(rec.CustomerName, msg); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

// Render fills the location-specific template for one record. Template
// rendering is strict: an unresolved placeholder is an error, never a
// silently blanked variable.
func (c *Composer) Render(rec models.BillingRecord, billingDate time.Time) (string, error) {
	text, err := c.templateText(rec.Location)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("smart_text").Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", rec.Location, err)
	}

	deadline := billingDate.Add(paymentWindow)
	vars := map[string]string{
		"Period":       models.PeriodLabel(billingDate),
		"CustomerName": rec.CustomerName,
		"LitersUsed":   render.FormatDecimal(rec.LitersUsed),
		"NetCharge":    render.FormatInt(rec.NetCharge),
		"Adjustments":  render.FormatInt(rec.Adjustments),
		"FinalBill":    render.FormatInt(rec.FinalBill),
		"DeadlineDate": deadline.Format(deadlineLayout),
		"AzamPesa":     c.Payment.AzamPesa,
		"LipaNamba":    c.Payment.LipaNamba,
		"TigoPesa":     c.Payment.TigoPesa,
		"ReceiverName": c.Payment.ReceiverName,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render %s message for %q: %w", rec.Location, rec.CustomerName, err)
	}
	return buf.String(), nil
}

// templateText loads the template for a location, preferring an
// on-disk override under TemplatesDir over the embedded default.
func (c *Composer) templateText(loc models.Location) (string, error) {
	name := strings.ToLower(string(loc))

	if c.TemplatesDir != "" {
		path := filepath.Join(c.TemplatesDir, name, "smart_text.txt")
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read template %q: %w", path, err)
		}
	}

	data, err := defaultTemplates.ReadFile("templates/" + name + "/smart_text.txt")
	if err != nil {
		return "", fmt.Errorf("no template for location %q: %w", loc, err)
	}
	return string(data), nil
}

// loadFailureNames reads customer names off the failure list. A missing
// file means no retries are pending.
func loadFailureNames(path string) (map[string]bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return map[string]bool{}, nil
	}

	rows, err := store.CSVRows(path)
	if err != nil {
		return nil, err
	}
	names := make(map[string]bool, len(rows))
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			names[row[0]] = true
		}
	}
	return names, nil
}
