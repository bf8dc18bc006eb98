// Package security holds the IP access configuration and the request guard
// that enforces it.
package security

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/rfpdesk/rfpdesk/internal/platform/httpx"
)

var (
	ErrInvalidEntry   = fmt.Errorf("%w: enter an IPv4 address, IPv4 CIDR range or localhost", httpx.ErrValidation)
	ErrDuplicateEntry = fmt.Errorf("%w: entry already in list", httpx.ErrValidation)
)

// Localhost is the only hostname accepted in access lists.
const Localhost = "localhost"

// entryPattern accepts dotted quads with an optional prefix length. Octet and
// prefix ranges are not checked here; the guard ignores entries that do not
// parse.
var entryPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(/\d{1,2})?$`)

// ValidEntry reports whether s is an acceptable list entry.
func ValidEntry(s string) bool {
	return s == Localhost || entryPattern.MatchString(s)
}

// Add appends the trimmed candidate to list. The input slice is never modified.
func Add(list []string, candidate string) ([]string, error) {
	candidate = strings.TrimSpace(candidate)
	if !ValidEntry(candidate) {
		return list, ErrInvalidEntry
	}
	if slices.Contains(list, candidate) {
		return list, ErrDuplicateEntry
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, candidate), nil
}

// Remove returns list without any occurrence of entry.
func Remove(list []string, entry string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		if e != entry {
			out = append(out, e)
		}
	}
	return out
}
