package verification

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fulfillment-service/internal/domain"
)

func neverSpotCheck() float64  { return 0.99 }
func alwaysSpotCheck() float64 { return 0.0 }

func createTestLines() []domain.OrderLine {
	return []domain.OrderLine{
		{SKU: "SKU-A", Name: "Widget A", Quantity: 2, Kind: domain.LineKindProduct},
		{SKU: "SKU-B", Name: "Widget B", Quantity: 1, Kind: domain.LineKindProduct},
		{SKU: "INS-1", Name: "Shipment Insurance", Quantity: 1, Kind: domain.LineKindInsurance},
		{SKU: "SHP-1", Name: "Express Shipping", Quantity: 1, Kind: domain.LineKindShipping},
	}
}

func TestStandardVerifier_FullScanSequence(t *testing.T) {
	v := NewStandardVerifier(createTestLines())

	assert.False(t, v.Verified())
	assert.Equal(t, map[string]int{"SKU-A": 2, "SKU-B": 1}, v.Remaining())

	result := v.Scan("sku-a")
	assert.True(t, result.Accepted)
	assert.False(t, result.Verified)

	result = v.Scan(" SKU-A ")
	assert.True(t, result.Accepted)
	assert.False(t, result.Verified)

	result = v.Scan("SKU-B")
	assert.True(t, result.Accepted)
	assert.True(t, result.Verified)
	assert.True(t, v.Verified())
	assert.Empty(t, v.Remaining())
}

func TestStandardVerifier_CaseInsensitiveMultiset(t *testing.T) {
	lines := []domain.OrderLine{
		{SKU: "a", Quantity: 2, Kind: domain.LineKindProduct},
		{SKU: "b", Quantity: 1, Kind: domain.LineKindProduct},
	}
	v := NewStandardVerifier(lines)

	assert.True(t, v.Scan("a").Accepted)
	assert.True(t, v.Scan("A").Accepted)
	result := v.Scan("b")
	assert.True(t, result.Accepted)
	assert.True(t, result.Verified)
}

func TestStandardVerifier_RejectsUnknownSKU(t *testing.T) {
	v := NewStandardVerifier(createTestLines())

	result := v.Scan("SKU-Z")
	assert.False(t, result.Accepted)
	assert.Equal(t, RejectNotInOrder, result.Reason)

	// rejected scan must not mutate progress
	assert.Empty(t, v.ScannedCounts())
	assert.Equal(t, map[string]int{"SKU-A": 2, "SKU-B": 1}, v.Remaining())
}

func TestStandardVerifier_ExcludedLinesRejected(t *testing.T) {
	v := NewStandardVerifier(createTestLines())

	result := v.Scan("INS-1")
	assert.False(t, result.Accepted)
	assert.Equal(t, RejectNotInOrder, result.Reason)

	result = v.Scan("SHP-1")
	assert.False(t, result.Accepted)
}

func TestStandardVerifier_OverScanWarns(t *testing.T) {
	v := NewStandardVerifier(createTestLines())

	v.Scan("SKU-B")
	result := v.Scan("SKU-B")
	assert.True(t, result.Accepted)
	assert.True(t, result.OverScan)
	assert.True(t, v.HadOverScan())
}

func TestStandardVerifier_ZeroEligibleLinesVerified(t *testing.T) {
	lines := []domain.OrderLine{
		{SKU: "INS-1", Quantity: 1, Kind: domain.LineKindInsurance},
	}
	v := NewStandardVerifier(lines)
	assert.True(t, v.Verified())
}

func TestSinglesVerifier_SingleScanNoSpotCheck(t *testing.T) {
	v := NewSinglesVerifier("SKU-A", 5, neverSpotCheck)

	assert.False(t, v.SpotCheckRequired())
	result := v.Scan("sku-a")
	assert.True(t, result.Accepted)
	assert.True(t, result.Verified)
	assert.Equal(t, 5, v.OrderCount())
}

func TestSinglesVerifier_SpotCheckRequiresSecondScan(t *testing.T) {
	v := NewSinglesVerifier("SKU-A", 3, alwaysSpotCheck)

	require.True(t, v.SpotCheckRequired())
	result := v.Scan("SKU-A")
	assert.True(t, result.Accepted)
	assert.True(t, result.SpotCheck)
	assert.False(t, result.Verified)

	result = v.Scan("SKU-A")
	assert.True(t, result.Accepted)
	assert.True(t, result.Verified)
}

func TestSinglesVerifier_WrongItemRejected(t *testing.T) {
	v := NewSinglesVerifier("SKU-A", 3, neverSpotCheck)

	result := v.Scan("SKU-B")
	assert.False(t, result.Accepted)
	assert.Equal(t, RejectWrongItem, result.Reason)
	assert.False(t, v.Verified())
}

func TestSinglesVerifier_SpotCheckFrequency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	trials := 10000
	spotChecks := 0
	for i := 0; i < trials; i++ {
		v := NewSinglesVerifier("SKU-A", 1, rng.Float64)
		if v.SpotCheckRequired() {
			spotChecks++
		}
	}

	ratio := float64(spotChecks) / float64(trials)
	assert.InDelta(t, SpotCheckProbability, ratio, 0.02)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "SKU-A", Normalize("  sku-a "))
	assert.Equal(t, "X", Normalize("x"))
}
