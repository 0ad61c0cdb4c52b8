// Package verification implements the three scan-verification protocols
// that gate label issuance during shipping: Standard (one order at a time),
// Singles (one bin of identical single-SKU orders, with a randomized spot
// check), and Bulk (shelf-by-shelf order traversal with SKU-to-bin hints).
package verification

import (
	"errors"
	"strings"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

// Errors
var (
	ErrNotVerified     = errors.New("unit is not verified")
	ErrNotAwaitingScan = errors.New("unit is not awaiting a scan")
	ErrNoCurrentUnit   = errors.New("cart has no remaining units")
	ErrNotEmpty        = errors.New("unit is not empty")
)

// State is the verification state of the current unit
type State string

const (
	StateAwaitingScan State = "AWAITING_SCAN"
	StateVerified     State = "VERIFIED"
	StateLabelIssued  State = "LABEL_ISSUED"
	StateEmpty        State = "EMPTY"
	StateCartComplete State = "CART_COMPLETE"
)

// RejectReason explains a rejected scan
type RejectReason string

const (
	RejectNotInOrder RejectReason = "not_in_order"
	RejectWrongItem  RejectReason = "wrong_item"
)

// RandomSource supplies the [0,1) draws for the singles spot check. It is
// injected so tests can use deterministic sequences.
type RandomSource func() float64

// SpotCheckProbability is the chance a singles bin requires a second
// confirming scan, re-rolled on every bin entry.
const SpotCheckProbability = 0.20

// ScanResult reports the outcome of feeding one barcode to a verifier
type ScanResult struct {
	Accepted  bool         `json:"accepted"`
	Reason    RejectReason `json:"reason,omitempty"`
	OverScan  bool         `json:"overScan"`
	SpotCheck bool         `json:"spotCheck"` // one more confirming scan required
	Verified  bool         `json:"verified"`
	SKU       string       `json:"sku"`
}

// Normalize canonicalizes a scanned barcode: whitespace-trimmed and
// case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EligibleLines filters an order's lines to those that participate in
// verification. Insurance and shipping line items are always excluded.
func EligibleLines(lines []domain.OrderLine) []domain.OrderLine {
	eligible := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		if l.Kind == domain.LineKindInsurance || l.Kind == domain.LineKindShipping {
			continue
		}
		eligible = append(eligible, l)
	}
	return eligible
}

// expectedSet builds the normalized SKU -> quantity multiset for an order
func expectedSet(lines []domain.OrderLine) map[string]int {
	expected := make(map[string]int)
	for _, l := range EligibleLines(lines) {
		expected[Normalize(l.SKU)] += l.Quantity
	}
	return expected
}
