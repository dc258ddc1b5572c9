package cache

import (
	"fmt"
	"time"

	"news-enricher/internal/fingerprint"
)

// Class is the kind of derived artifact cached for a fingerprint.
type Class string

const (
	ClassContent  Class = "content"
	ClassSummary  Class = "summary"
	ClassImage    Class = "image"
	ClassMetadata Class = "metadata"
)

// Default TTLs per artifact class. Images are expensive to regenerate and
// decay slower in relevance, so they live a week; everything else a day.
const (
	TTLContent  = 24 * time.Hour
	TTLSummary  = 24 * time.Hour
	TTLImage    = 7 * 24 * time.Hour
	TTLMetadata = 24 * time.Hour
)

// TTL returns the default time-to-live for entries of this class.
func (c Class) TTL() time.Duration {
	switch c {
	case ClassImage:
		return TTLImage
	case ClassContent:
		return TTLContent
	case ClassSummary:
		return TTLSummary
	case ClassMetadata:
		return TTLMetadata
	default:
		return TTLContent
	}
}

// Valid reports whether c is a known artifact class.
func (c Class) Valid() bool {
	switch c {
	case ClassContent, ClassSummary, ClassImage, ClassMetadata:
		return true
	default:
		return false
	}
}

// Key builds the cache key for a fingerprint and artifact class. The format
// is stable for interoperability and debugging: article:{fingerprint}:{class}.
func Key(fp fingerprint.Fingerprint, class Class) string {
	return fmt.Sprintf("article:%s:%s", fp, class)
}
