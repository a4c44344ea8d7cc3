package handler

import (
	"net/http"
	"strings"

	"github.com/sakif/snippets/internal/serializer"
)

// LinkerFromRequest builds absolute resource links for the host the client
// actually called. Behind a TLS-terminating proxy X-Forwarded-Proto decides
// the scheme.
func LinkerFromRequest(r *http.Request) serializer.Linker {
	return serializer.Linker{BaseURL: baseURL(r)}
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		// "https, http" when several proxies are chained; the first is the client's.
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	return scheme + "://" + r.Host
}
