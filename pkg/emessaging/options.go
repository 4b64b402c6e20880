// Package emessaging extracts water-billing records from formatted
// worksheets and drives SMS notification of customers through the
// TextBee gateway.
package emessaging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultBaseURL is the TextBee API root.
const DefaultBaseURL = "https://api.textbee.dev/api/v1"

// Config carries all environment-derived settings. Required fields are
// validated eagerly by the Require* methods before the operation that
// needs them runs; a missing value is fatal at that point.
type Config struct {
	// BaseURL is the gateway API root.
	BaseURL string
	// APIKey authenticates against the gateway.
	APIKey string
	// DeviceID selects the gateway device that sends the messages.
	DeviceID string
	// OwnerNumber is the fallback contact for customers without a
	// phone number on the sheet.
	OwnerNumber string

	// Payment identifiers rendered into every message body.
	AzamPesa     string
	LipaNamba    string
	TigoPesa     string
	ReceiverName string

	// SourcePath is the billing workbook to extract from.
	SourcePath string
	// SheetName selects the worksheet; empty means the active sheet.
	SheetName string
	// ResultsDir holds the tabular billing logs and the failure list.
	ResultsDir string
	// StorageDir holds the pending, sent and delivery stores.
	StorageDir string
	// TemplatesDir holds location-specific message templates. When a
	// template file is absent the embedded default is used.
	TemplatesDir string

	// ExcludedCustomers are billed manually and never messaged.
	ExcludedCustomers []string
}

// DefaultConfig returns the configuration with standard paths and the
// static exclusion list.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		SourcePath:   filepath.Join("docs", "source", "source_data.xlsx"),
		ResultsDir:   filepath.Join("docs", "results"),
		StorageDir:   "json_storage",
		TemplatesDir: "message_templates",
		ExcludedCustomers: []string{
			"Little Doves' Centre", // billed by hand, computations differ
		},
	}
}

// LoadFromEnv builds the configuration from process environment
// variables on top of the defaults.
func LoadFromEnv() Config {
	cfg := DefaultConfig()
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.DeviceID = os.Getenv("DEVICE_ID")
	cfg.OwnerNumber = os.Getenv("OWNER_NO")
	cfg.AzamPesa = os.Getenv("AZAMPESA")
	cfg.LipaNamba = os.Getenv("LIPA_NAMBA")
	cfg.TigoPesa = os.Getenv("TIGOPESA")
	cfg.ReceiverName = os.Getenv("RECEIVER_NAME")
	if v := os.Getenv("SOURCE_PATH"); v != "" {
		cfg.SourcePath = v
	}
	if v := os.Getenv("SHEET_NAME"); v != "" {
		cfg.SheetName = v
	}
	return cfg
}

// RequireOwner validates the settings extraction depends on.
func (c Config) RequireOwner() error {
	return requireAll(map[string]string{"OWNER_NO": c.OwnerNumber})
}

// RequireGateway validates the settings gateway calls depend on.
func (c Config) RequireGateway() error {
	return requireAll(map[string]string{
		"API_KEY":   c.APIKey,
		"DEVICE_ID": c.DeviceID,
	})
}

// RequireComposer validates the settings message composition depends on.
func (c Config) RequireComposer() error {
	return requireAll(map[string]string{
		"AZAMPESA":      c.AzamPesa,
		"LIPA_NAMBA":    c.LipaNamba,
		"TIGOPESA":      c.TigoPesa,
		"RECEIVER_NAME": c.ReceiverName,
	})
}

func requireAll(values map[string]string) error {
	var missing []string
	for name, v := range values {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required environment values: %s", strings.Join(missing, ", "))
	}
	return nil
}

// BillingLogPath returns the billing-log file for a period label.
func (c Config) BillingLogPath(label string) string {
	return filepath.Join(c.ResultsDir, label+".csv")
}

// FailedListPath returns the failure-list file shared by the delivery
// reconciler and the composer retry path.
func (c Config) FailedListPath() string {
	return filepath.Join(c.ResultsDir, "failed.csv")
}

// PendingStorePath returns the pending-send store file.
func (c Config) PendingStorePath() string {
	return filepath.Join(c.StorageDir, "data.json")
}

// SentStorePath returns the sent-log store file.
func (c Config) SentStorePath() string {
	return filepath.Join(c.StorageDir, "sent.json")
}

// DeliveryStorePath returns the delivery-record store file.
func (c Config) DeliveryStorePath() string {
	return filepath.Join(c.StorageDir, "delivery.json")
}
