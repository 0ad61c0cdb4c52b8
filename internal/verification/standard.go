package verification

import "github.com/wms-platform/fulfillment-service/internal/domain"

// StandardVerifier verifies one order by matching a multiset of scanned
// SKUs against the order's eligible line items. Used directly for the
// Standard/Order-by-Size protocol and per order by the Bulk protocol.
type StandardVerifier struct {
	expected map[string]int
	scanned  map[string]int
	overScan bool
}

// NewStandardVerifier builds a verifier for one order's lines
func NewStandardVerifier(lines []domain.OrderLine) *StandardVerifier {
	return &StandardVerifier{
		expected: expectedSet(lines),
		scanned:  make(map[string]int),
	}
}

// Scan feeds one barcode. A SKU absent from the order is rejected without
// mutating state; a scan beyond the expected quantity is accepted but
// flagged as an over-scan warning.
func (v *StandardVerifier) Scan(code string) ScanResult {
	sku := Normalize(code)

	expected, ok := v.expected[sku]
	if !ok {
		return ScanResult{Accepted: false, Reason: RejectNotInOrder, SKU: sku}
	}

	v.scanned[sku]++
	over := v.scanned[sku] > expected
	if over {
		v.overScan = true
	}

	return ScanResult{
		Accepted: true,
		OverScan: over,
		Verified: v.Verified(),
		SKU:      sku,
	}
}

// Verified reports whether every eligible line has been fully scanned.
// An order with zero eligible lines is immediately verified.
func (v *StandardVerifier) Verified() bool {
	for sku, qty := range v.expected {
		if v.scanned[sku] < qty {
			return false
		}
	}
	return true
}

// HadOverScan reports whether any scan exceeded an expected quantity
func (v *StandardVerifier) HadOverScan() bool {
	return v.overScan
}

// Remaining returns SKU -> outstanding quantity still to scan
func (v *StandardVerifier) Remaining() map[string]int {
	remaining := make(map[string]int)
	for sku, qty := range v.expected {
		if left := qty - v.scanned[sku]; left > 0 {
			remaining[sku] = left
		}
	}
	return remaining
}

// ScannedCounts returns a copy of the scanned multiset
func (v *StandardVerifier) ScannedCounts() map[string]int {
	counts := make(map[string]int, len(v.scanned))
	for sku, n := range v.scanned {
		counts[sku] = n
	}
	return counts
}
