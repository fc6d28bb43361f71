// Package dedupe detects duplicate media files. An exact pass groups files
// with identical content hashes; a fuzzy pass matches parsed titles with a
// token-sort similarity ratio and merges matching pairs into connected
// components. Each group is ranked to recommend a keeper, with an override
// that protects the only copy carrying English audio.
package dedupe
