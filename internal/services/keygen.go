package services

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// tokenAlphabet omits 0/O and 1/I so keys survive being read aloud or retyped.
const tokenAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// tokenSuffixLen random symbols give 32^10 ≈ 1.1e15 combinations per prefix.
const tokenSuffixLen = 10

// newKeyToken returns a human-enterable token: a base36 millisecond timestamp
// prefix followed by a random suffix, e.g. "LQ2X8F1K-7H3M9QWZ4T".
func newKeyToken(now time.Time) (string, error) {
	prefix := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	max := big.NewInt(int64(len(tokenAlphabet)))
	var b strings.Builder
	b.Grow(len(prefix) + 1 + tokenSuffixLen)
	b.WriteString(prefix)
	b.WriteByte('-')
	for i := 0; i < tokenSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// normalizeToken trims surrounding space and folds compatibility forms
// (full-width digits, ligatures) with NFKC. Case is preserved: tokens are
// case-sensitive.
func normalizeToken(s string) string {
	return norm.NFKC.String(strings.TrimSpace(s))
}
