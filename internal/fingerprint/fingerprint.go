// Package fingerprint derives stable content-addressed keys from article
// identifiers. Two URLs that differ only in tracking parameters, case of the
// scheme/host, default ports, or a trailing slash map to the same fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"

	"news-enricher/internal/common/errors"
)

// Fingerprint is an opaque fixed-length identifier for a logical article.
type Fingerprint string

// String returns the hex form of the fingerprint.
func (f Fingerprint) String() string {
	return string(f)
}

// hexLength is the number of hex characters kept from the SHA-256 digest.
const hexLength = 16

// trackingParams are query parameters that identify a click, not an article.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"fbclid":       {},
	"gclid":        {},
}

// New canonicalizes the identifier and returns its fingerprint.
// The empty string and identifiers that fail to parse are rejected.
func New(identifier string) (Fingerprint, error) {
	canonical, err := Canonicalize(identifier)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(canonical))
	return Fingerprint(hex.EncodeToString(sum[:])[:hexLength]), nil
}

// Canonicalize normalizes an article identifier: lowercases the scheme and
// host, strips tracking query parameters, default ports, the fragment, and
// any trailing slash. The canonical form is what gets hashed, so any two
// identifiers with the same canonical form share a fingerprint.
func Canonicalize(identifier string) (string, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return "", errors.InvalidIdentifierError("identifier must be a non-empty string")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", errors.InvalidIdentifierError("identifier is not a valid URL").WithContext("identifier", identifier)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.InvalidIdentifierError("identifier must use http or https").WithContext("identifier", identifier)
	}
	if u.Host == "" {
		return "", errors.InvalidIdentifierError("identifier must include a host").WithContext("identifier", identifier)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Host = strings.TrimSuffix(u.Host, defaultPortSuffix(u.Scheme))
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawQuery = stripTrackingParams(u.Query())

	return u.String(), nil
}

func defaultPortSuffix(scheme string) string {
	switch scheme {
	case "http":
		return ":80"
	case "https":
		return ":443"
	default:
		return ""
	}
}

// stripTrackingParams re-encodes the query with tracking parameters removed,
// sorting keys so parameter order never changes the fingerprint.
func stripTrackingParams(values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if _, tracked := trackingParams[strings.ToLower(key)]; tracked {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		for _, value := range values[key] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(value))
		}
	}
	return b.String()
}
