package routes

import (
	"net/http"
	"strings"
)

// RequestContext supplies the externally visible base URL that links in API documents are built on.
type RequestContext interface {
	BaseURL() string
}

// HTTPRequestCtx derives the base URL from an incoming request, honouring proxy headers so links
// point at the address the caller actually used.
type HTTPRequestCtx struct {
	scheme string
	host   string
}

func RequestCtx(r *http.Request) *HTTPRequestCtx {
	ctx := &HTTPRequestCtx{scheme: "http", host: r.Host}
	if r.TLS != nil || r.URL.Scheme == "https" {
		ctx.scheme = "https"
	}
	if proto, host, ok := parseForwarded(r.Header.Get("Forwarded")); ok {
		if proto != "" {
			ctx.scheme = proto
		}
		if host != "" {
			ctx.host = host
		}
		return ctx
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		ctx.scheme = "https"
	}
	if host := r.Header.Get("X-Forwarded-Host"); host != "" {
		ctx.host = host
	}
	return ctx
}

func (r *HTTPRequestCtx) BaseURL() string {
	return r.scheme + "://" + r.host
}

func (r *HTTPRequestCtx) String() string {
	return r.BaseURL()
}

// parseForwarded reads proto and host from the first (client-nearest) element of an RFC 7239
// Forwarded header. ok is false if the header is absent or names neither.
func parseForwarded(header string) (proto string, host string, ok bool) {
	if header == "" {
		return "", "", false
	}
	first, _, _ := strings.Cut(header, ",")
	for _, pair := range strings.Split(first, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		value = strings.Trim(value, `"`)
		switch strings.ToLower(key) {
		case "proto":
			if p := strings.ToLower(value); p == "http" || p == "https" {
				proto = p
			}
		case "host":
			host = value
		}
	}
	return proto, host, proto != "" || host != ""
}
