package recon

import (
	"fmt"
	"strings"
)

// Confidence grades how strongly an invoice was correlated to its order.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Correlation is the outcome of the vendor correlation waterfall.
type Correlation struct {
	Pass       bool       `json:"pass"`
	Confidence Confidence `json:"confidence"`
	Note       string     `json:"note"`
}

// nameSimilarityThreshold is the minimum Jaccard word overlap between the
// invoice vendor name and the order supplier name.
const nameSimilarityThreshold = 0.5

// skuOverlapThreshold is the minimum share of invoice SKUs that must appear
// on the order for the SKU signal to pass.
const skuOverlapThreshold = 0.5

// CorrelateVendor verifies that the invoice plausibly belongs to the target
// order. Three signals are tried in order, first match wins:
//
//  1. vendor/supplier name similarity (Jaccard word overlap): high confidence
//  2. invoice PO reference cross-matched against the order id: medium
//  3. invoice SKU overlap with order SKUs: medium
//
// A medium-confidence pass should surface a warning to the caller; a failed
// correlation must short-circuit the reconciliation.
func CorrelateVendor(invoiceVendor, orderSupplier, poReference, orderID string, invoiceSKUs, orderSKUs []string) Correlation {
	if sim := jaccardSimilarity(invoiceVendor, orderSupplier); sim >= nameSimilarityThreshold {
		return Correlation{
			Pass:       true,
			Confidence: ConfidenceHigh,
			Note:       fmt.Sprintf("vendor name %q matches supplier %q (similarity %.2f)", invoiceVendor, orderSupplier, sim),
		}
	}

	if poReference != "" && orderID != "" {
		ref := strings.ToLower(strings.TrimSpace(poReference))
		oid := strings.ToLower(strings.TrimSpace(orderID))
		if ref == oid || strings.Contains(ref, oid) || strings.Contains(oid, ref) {
			return Correlation{
				Pass:       true,
				Confidence: ConfidenceMedium,
				Note:       fmt.Sprintf("invoice references PO %q matching order %q", poReference, orderID),
			}
		}
	}

	if len(invoiceSKUs) > 0 {
		onOrder := make(map[string]bool, len(orderSKUs))
		for _, s := range orderSKUs {
			onOrder[strings.ToLower(s)] = true
		}
		hits := 0
		for _, s := range invoiceSKUs {
			if onOrder[strings.ToLower(s)] {
				hits++
			}
		}
		if float64(hits)/float64(len(invoiceSKUs)) >= skuOverlapThreshold {
			return Correlation{
				Pass:       true,
				Confidence: ConfidenceMedium,
				Note:       fmt.Sprintf("%d of %d invoice SKUs found on order", hits, len(invoiceSKUs)),
			}
		}
	}

	return Correlation{
		Pass:       false,
		Confidence: ConfidenceLow,
		Note:       fmt.Sprintf("vendor %q could not be correlated to supplier %q", invoiceVendor, orderSupplier),
	}
}

// jaccardSimilarity computes word-level Jaccard overlap between two names:
// |A ∩ B| / |A ∪ B| over lowercased, punctuation-stripped word sets.
func jaccardSimilarity(a, b string) float64 {
	wordsA := normalizeWords(a)
	wordsB := normalizeWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(wordsA))
	for _, w := range wordsA {
		setA[w] = true
	}
	setB := make(map[string]bool, len(wordsB))
	for _, w := range wordsB {
		setB[w] = true
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// normalizeWords lowercases, strips punctuation, and splits on whitespace.
func normalizeWords(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			b.WriteRune(' ')
		default:
			// Punctuation becomes a word boundary so "Acme, Inc." splits cleanly.
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
