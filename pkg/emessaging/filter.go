package emessaging

import "github.com/tnswater/emessaging/pkg/emessaging/models"

// MinimumBill is the threshold below which a record is not billable.
// The comparison is strictly greater-than: a final bill of exactly
// MinimumBill is excluded.
const MinimumBill = 50

// Billable filters extracted records down to the ones worth messaging:
// named customers whose final bill exceeds MinimumBill and who are not
// on the manual-billing exclusion list. Order is preserved.
func Billable(records []models.BillingRecord, excluded []string) []models.BillingRecord {
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	var kept []models.BillingRecord
	for _, rec := range records {
		if rec.CustomerName == "" {
			continue
		}
		if rec.FinalBill <= MinimumBill {
			continue
		}
		if _, ok := skip[rec.CustomerName]; ok {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
