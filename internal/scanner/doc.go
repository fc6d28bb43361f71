// Package scanner discovers media files under the configured library roots
// and keeps the inventory current. Discovery is a filesystem walk filtered
// by extension; fingerprinting and hashing run on a bounded worker pool, and
// every run is recorded in scan history.
package scanner
