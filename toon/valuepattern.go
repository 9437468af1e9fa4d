package toon

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ============================================================
// Value-Pattern Compression
// ============================================================
//
// Scalar strings are tested against a fixed-priority catalog of recognized
// shapes. The first match wins and the string is replaced by a sigil-tagged
// token carrying the original text verbatim, so the transform is lossless
// by construction. Matched strings are excluded from the string dictionary.

// Value-pattern tags. Each tag starts with '$', which no unescaped literal
// payload string may start with.
const (
	tagTimestamp = "$ts:"
	tagUUID      = "$uid:"
	tagURL       = "$url:"
	tagEmail     = "$eml:"
	tagIPv4      = "$ip4:"
	tagIPv6      = "$ip6:"
)

var (
	reTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
	reUUID      = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	reURL       = regexp.MustCompile(`^https?://\S+$`)
	reEmail     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	reIPv4      = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	reIPv6      = regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`)
)

// valuePattern is one catalog entry. Entries are evaluated in slice order;
// the order is part of the determinism contract.
type valuePattern struct {
	name  string
	tag   string
	match func(string) bool
}

var valuePatterns = []valuePattern{
	{"timestamp", tagTimestamp, reTimestamp.MatchString},
	{"uuid", tagUUID, func(s string) bool {
		if !reUUID.MatchString(s) {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	}},
	{"url", tagURL, reURL.MatchString},
	{"email", tagEmail, reEmail.MatchString},
	{"ipv4", tagIPv4, reIPv4.MatchString},
	{"ipv6", tagIPv6, reIPv6.MatchString},
}

// matchValuePattern returns the tag of the first catalog entry matching s.
func matchValuePattern(s string) (string, bool) {
	for _, p := range valuePatterns {
		if p.match(s) {
			return p.tag, true
		}
	}
	return "", false
}

// decodePatternToken strips a value-pattern tag, returning the original
// text. Returns false if s carries no known tag.
func decodePatternToken(s string) (string, bool) {
	if !strings.HasPrefix(s, "$") {
		return "", false
	}
	for _, p := range valuePatterns {
		if strings.HasPrefix(s, p.tag) {
			return s[len(p.tag):], true
		}
	}
	return "", false
}

// stringNeedsEscape reports whether a literal payload string would collide
// with a sigil or token and must be written with a leading '!'.
func stringNeedsEscape(s string) bool {
	switch s {
	case sigilNull, sigilTrue, sigilFalse, sigilAbsent:
		return true
	}
	if s == "" {
		return false
	}
	switch s[0] {
	case '$', '@', '!':
		return true
	}
	return false
}
