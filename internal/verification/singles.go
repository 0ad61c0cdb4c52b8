package verification

// SinglesVerifier verifies one flat-rate bin of N orders that are known by
// construction to contain the identical single SKU. One confirming scan
// verifies the bin, plus a second "spot check" scan with probability 0.20
// drawn once on bin entry.
type SinglesVerifier struct {
	expectedSKU   string
	orderCount    int
	requiredScans int
	confirmed     int
	spotCheck     bool
}

// NewSinglesVerifier builds a verifier for a bin. The spot-check draw
// happens here so it is re-rolled each time a new bin is entered.
func NewSinglesVerifier(sku string, orderCount int, random RandomSource) *SinglesVerifier {
	v := &SinglesVerifier{
		expectedSKU:   Normalize(sku),
		orderCount:    orderCount,
		requiredScans: 1,
	}
	if random() < SpotCheckProbability {
		v.requiredScans = 2
		v.spotCheck = true
	}
	return v
}

// Scan feeds one barcode. Any SKU other than the bin's expected SKU is
// rejected with an explicit wrong-item signal.
func (v *SinglesVerifier) Scan(code string) ScanResult {
	sku := Normalize(code)

	if sku != v.expectedSKU {
		return ScanResult{Accepted: false, Reason: RejectWrongItem, SKU: sku}
	}

	if v.confirmed < v.requiredScans {
		v.confirmed++
	}

	return ScanResult{
		Accepted:  true,
		SpotCheck: v.confirmed < v.requiredScans,
		Verified:  v.Verified(),
		SKU:       sku,
	}
}

// Verified reports whether the bin has received its required confirming
// scans. A bin with zero orders never reaches a verifier; see Session.
func (v *SinglesVerifier) Verified() bool {
	return v.confirmed >= v.requiredScans
}

// SpotCheckRequired reports whether this bin entry drew a spot check
func (v *SinglesVerifier) SpotCheckRequired() bool {
	return v.spotCheck
}

// OrderCount returns the number of orders whose labels print together
func (v *SinglesVerifier) OrderCount() int {
	return v.orderCount
}
