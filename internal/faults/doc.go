// Package faults defines the error taxonomy shared across the scanning,
// deduplication, and staging pipelines.
//
// Errors are tagged with sentinel markers via Wrap and classified with
// errors.Is. Rejected operations (staging conflicts, validation failures,
// missing entities) carry display-ready reasons extractable with Reason;
// everything else is an internal failure surfaced to the caller as-is.
package faults
