package pagination

import (
	"net/http"
	"strings"
)

// BaseURL is the public address of the current request path, honouring a
// reverse-proxy prefix when one is configured.
func BaseURL(r *http.Request, proxyPass string) string {
	if proxyPass != "" {
		return strings.TrimRight(proxyPass, "/") + "/" + strings.Trim(r.URL.Path, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host + r.URL.Path
}

// NextURL rebuilds the request url without its `last` parameter and
// appends the new cursor. Parameter order and escaping are kept verbatim.
// A terminal cursor yields the empty string.
func NextURL(base string, rawQuery string, cursor Cursor) string {
	if !cursor.HasNext() {
		return ""
	}

	kept := make([]string, 0)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" || pair == "last" || strings.HasPrefix(pair, "last=") {
			continue
		}
		kept = append(kept, pair)
	}
	kept = append(kept, "last="+cursor.String())

	return base + "?" + strings.Join(kept, "&")
}
