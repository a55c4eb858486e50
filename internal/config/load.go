package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/superfaceai/one-sdk-go/internal/value"
)

// LoadConfig reads and normalizes super.json from path, grounded on the
// teacher's config.LoadConfig (internal/config) read-parse-validate shape.
// warn is forwarded to Normalize; see its doc comment.
func LoadConfig(path string, lookup value.EnvLookup, warn ...func(string)) (*NormalizedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return ParseConfig(data, lookup, warn...)
}

// ParseConfig parses and normalizes a super.json document already in
// memory (used by the watcher's reload path and by tests).
func ParseConfig(data []byte, lookup value.EnvLookup, warn ...func(string)) (*NormalizedDocument, error) {
	var raw RawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Code: "config.parse-error", Message: err.Error()}
	}
	return Normalize(&raw, lookup, warn...)
}

// LoadConfigHash reads, hashes, and normalizes super.json in one pass so
// a caller (the watcher) can detect whether the file's contents actually
// changed without normalizing twice.
func LoadConfigHash(path string, lookup value.EnvLookup, warn ...func(string)) (*NormalizedDocument, [sha256.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, [sha256.Size]byte{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	hash := sha256.Sum256(data)
	doc, err := ParseConfig(data, lookup, warn...)
	if err != nil {
		return nil, hash, err
	}
	return doc, hash, nil
}
