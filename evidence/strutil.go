package evidence

import (
	"net/url"

	"github.com/google/uuid"
)

// LongestCommonPrefix of a sorted, distinct literal set. With the set sorted,
// the prefix of the whole set equals the prefix of its first and last entry.
func LongestCommonPrefix(lits []string) string {
	if len(lits) == 0 {
		return ""
	}
	return lcp2(lits[0], lits[len(lits)-1])
}

func lcp2(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

func looksLikeURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != ""
}

func looksLikeUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
