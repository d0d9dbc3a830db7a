package config

import (
	"os"
	"strings"
)

// StrictCoercion surfaces per-field coercion failures (bad numbers, bad
// dates) as counts in the ingestion outcome instead of zeroing them silently.
// Defaults stay silent to keep uploads forgiving.
//
// Set via env:
// - STRICT_COERCION=true
func StrictCoercion() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STRICT_COERCION")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// SummaryDisabled short-circuits the AI summarization collaborator to the
// placeholder text without attempting a call.
//
// Set via env:
// - SUMMARY_DISABLED=true
func SummaryDisabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SUMMARY_DISABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
