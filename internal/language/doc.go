// Package language provides unified language code normalization and mapping.
//
// All language-related conversions (ISO 639-1, ISO 639-2, display names,
// stream-tag extraction) are consolidated here so the probe, duplicate
// engine, and staging surfaces agree on what counts as the same language.
package language
