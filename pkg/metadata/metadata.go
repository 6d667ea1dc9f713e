// Package metadata fingerprints generated artifacts and stamps markdown reports
// with a verifiable metadata block.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END -->"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata contains the report status information.
type Metadata struct {
	LastModify time.Time
	Source     string
	RunID      string
	Hash       string
	Sites      int
	Validation bool
}

// Info is what the caller knows about a report when signing it.
type Info struct {
	Source    string
	RunID     string
	Sites     int
	Validated bool
}

// metadataRegex matches the entire metadata block including tags.
var metadataRegex = regexp.MustCompile(`(?s)<!--\s*METADATA_START\s*\n(.*?)\n\s*METADATA_END\s*-->`)

// Extract removes the metadata block from content and returns both the metadata and the cleaned content.
// The cleaned content is what gets hashed.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	cleanContent := metadataRegex.ReplaceAllString(content, "")
	cleanContent = strings.TrimRight(cleanContent, "\n")

	if len(match) < 2 {
		return nil, cleanContent
	}

	meta := &Metadata{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "VALIDATION":
			meta.Validation = strings.EqualFold(val, "TRUE")
		case "LAST_MODIFY":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.LastModify = t
			}
		case "HASH":
			meta.Hash = val
		case "SOURCE":
			meta.Source = val
		case "RUN_ID":
			meta.RunID = val
		case "SITES":
			if n, err := strconv.Atoi(val); err == nil {
				meta.Sites = n
			}
		}
	}

	return meta, cleanContent
}

// CalculateHash computes the SHA-256 hash of the content (excluding metadata).
func CalculateHash(content string) string {
	_, clean := Extract(content)

	return Fingerprint([]byte(clean))
}

// Fingerprint returns the hex SHA-256 of raw bytes.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// FileFingerprint returns the fingerprint of the file at path, or "" if it cannot be read.
func FileFingerprint(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return Fingerprint(data)
}

// Sign appends or replaces the metadata block with a fresh hash and timestamp.
func Sign(content string, info Info) string {
	return SignAt(content, info, time.Now())
}

// SignAt is Sign with an explicit timestamp.
func SignAt(content string, info Info, now time.Time) string {
	_, clean := Extract(content)
	hash := CalculateHash(clean)

	valStr := "FALSE"
	if info.Validated {
		valStr = "TRUE"
	}

	var b strings.Builder

	b.WriteString(clean)
	b.WriteString("\n\n")
	b.WriteString(TagStart + "\n")
	fmt.Fprintf(&b, "VALIDATION: %s\n", valStr)
	fmt.Fprintf(&b, "LAST_MODIFY: %s\n", now.UTC().Format(time.RFC3339))

	if info.Source != "" {
		fmt.Fprintf(&b, "SOURCE: %s\n", info.Source)
	}

	if info.RunID != "" {
		fmt.Fprintf(&b, "RUN_ID: %s\n", info.RunID)
	}

	fmt.Fprintf(&b, "SITES: %d\n", info.Sites)
	fmt.Fprintf(&b, "HASH: %s\n", hash)
	b.WriteString(TagEnd)

	return b.String()
}

// Verify checks if the content matches the hash in its metadata.
func Verify(content string) (bool, error) {
	meta, clean := Extract(content)
	if meta == nil {
		return false, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return false, ErrNoHashFound
	}

	calculated := CalculateHash(clean)
	if calculated != meta.Hash {
		return false, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return true, nil
}
