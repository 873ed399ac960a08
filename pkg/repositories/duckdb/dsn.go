package duckdb

import (
	"net/url"
	"strings"
)

const (
	motherDuckPrefix    = "md:"
	motherDuckURLPrefix = "motherduck://"
	motherDuckTokenKey  = "motherduck_token"
	redacted            = "redacted"
)

// IsMotherDuckDSN reports whether the DSN targets MotherDuck.
func IsMotherDuckDSN(dsn string) bool {
	return strings.HasPrefix(dsn, motherDuckPrefix) || strings.HasPrefix(dsn, motherDuckURLPrefix)
}

// ResolveDSN rewrites motherduck:// URIs to the md: form DuckDB understands
// and adds token as motherduck_token unless the DSN already carries one.
// Local DSNs are returned unchanged.
func ResolveDSN(dsn, token string) string {
	if strings.HasPrefix(dsn, motherDuckURLPrefix) {
		dsn = motherDuckPrefix + strings.TrimPrefix(dsn, motherDuckURLPrefix)
	}
	if token == "" || !strings.HasPrefix(dsn, motherDuckPrefix) {
		return dsn
	}

	base, query, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(query)
	if err != nil {
		return dsn
	}
	if q.Get(motherDuckTokenKey) != "" {
		return dsn
	}
	q.Set(motherDuckTokenKey, token)
	return base + "?" + q.Encode()
}

// MaskDSN hides secret query parameters so the DSN can be logged.
func MaskDSN(dsn string) string {
	base, query, ok := strings.Cut(dsn, "?")
	if !ok {
		return dsn
	}
	q, err := url.ParseQuery(query)
	if err != nil {
		return base + "?" + redacted
	}
	for k := range q {
		if isSensitiveKey(k) {
			q.Set(k, redacted)
		}
	}
	return base + "?" + q.Encode()
}

// isSensitiveKey reports whether a query key should have its value masked.
func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	switch {
	case strings.Contains(key, "pass"),
		strings.Contains(key, "token"),
		strings.Contains(key, "secret"),
		strings.HasSuffix(key, "key"):
		return true
	default:
		return false
	}
}
