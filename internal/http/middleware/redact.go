// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the scrubbing rules applied to request metadata before it
// is logged. Bodies are never logged. Query parameters that carry
// credentials (download tickets, presigned signatures, access keys) are
// replaced wholesale; free text is scanned for IDs, emails and phone numbers.
package middleware

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)

	// Digits only, so UUID hex segments are never mistaken for a number.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)

	// Compact JWS as used by bearer tokens and download tickets.
	jwtRE = regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]*`)
)

// RedactOptions configures additional scrub behavior.
//
// MaskHeaders and MaskParams extend the built-in sets; matching is
// case-insensitive. LogHeaders adds the scrubbed request headers to the
// access log line.
type RedactOptions struct {
	MaskHeaders []string
	MaskParams  []string
	LogHeaders  bool
}

type redactor struct {
	maskHeaders map[string]struct{}
	maskParams  map[string]struct{}
}

func newRedactor(opts RedactOptions) redactor {
	rd := redactor{maskHeaders: set("authorization", "cookie", "set-cookie")}
	rd.maskParams = set(
		"ticket", "token", "key", "access_key",
		"x-amz-signature", "x-amz-credential", "x-amz-security-token",
	)
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			rd.maskHeaders[h] = struct{}{}
		}
	}
	for _, p := range opts.MaskParams {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			rd.maskParams[p] = struct{}{}
		}
	}
	return rd
}

// scrub masks identifiers in free text. Order matters: tokens, then IDs,
// then emails, then the loosest phone pattern.
func (rd redactor) scrub(s string) string {
	if s == "" {
		return s
	}
	s = jwtRE.ReplaceAllString(s, "[REDACTED:token]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// query masks credential parameters and scrubs the remaining values. An
// unparsable query is scrubbed as plain text.
func (rd redactor) query(raw string) string {
	if raw == "" {
		return raw
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return rd.scrub(raw)
	}
	for k, vv := range vals {
		_, secret := rd.maskParams[strings.ToLower(k)]
		for i := range vv {
			if secret {
				vv[i] = redacted
			} else {
				vv[i] = rd.scrub(vv[i])
			}
		}
	}
	// Encode escapes the brackets; keep the log readable.
	out, _ := url.QueryUnescape(vals.Encode())
	return out
}

func (rd redactor) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := rd.maskHeaders[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = rd.scrub(strings.Join(vv, ", "))
	}
	return out
}

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
