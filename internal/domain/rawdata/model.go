package rawdata

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const DefaultContentType = "json"

// Payload is an archived upstream document kept for replay and debugging.
type Payload struct {
	Source      string
	EntityType  string
	EntityKey   string
	SportSlug   string
	ContentType string
	Payload     string
	PayloadHash string
	ParseError  string
	FetchedAt   time.Time
}

// Hash is the content fingerprint stores compare to skip unchanged documents.
func Hash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// Prepare fills the hash, content type and fetch time left empty by the
// caller. FetchedAt is always returned in UTC.
func (p Payload) Prepare(now time.Time) Payload {
	if p.PayloadHash == "" {
		p.PayloadHash = Hash(p.Payload)
	}
	if p.ContentType == "" {
		p.ContentType = DefaultContentType
	}
	if p.FetchedAt.IsZero() {
		p.FetchedAt = now
	}
	p.FetchedAt = p.FetchedAt.UTC()
	return p
}
