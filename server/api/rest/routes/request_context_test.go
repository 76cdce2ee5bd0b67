package routes

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestCtxBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		tls     bool
		want    string
	}{
		{name: "Direct", want: "http://connections.local"},
		{name: "DirectTLS", tls: true, want: "https://connections.local"},
		{
			name:    "XForwarded",
			headers: map[string]string{"X-Forwarded-Proto": "HTTPS", "X-Forwarded-Host": "api.example.com"},
			want:    "https://api.example.com",
		},
		{
			name:    "Forwarded",
			headers: map[string]string{"Forwarded": `for=10.0.0.1;proto=https;host="api.example.com", for=10.0.0.2;host=inner`},
			want:    "https://api.example.com",
		},
		{
			name: "ForwardedWinsOverXForwarded",
			headers: map[string]string{
				"Forwarded":        "host=front.example.com",
				"X-Forwarded-Host": "ignored.example.com",
			},
			want: "http://front.example.com",
		},
		{name: "ForwardedWithoutHostOrProto", headers: map[string]string{"Forwarded": "for=10.0.0.1"}, want: "http://connections.local"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://connections.local/api/v1/", nil)
			for k, v := range test.headers {
				r.Header.Set(k, v)
			}
			if test.tls {
				r.TLS = &tls.ConnectionState{}
			}
			require.Equal(t, test.want, RequestCtx(r).BaseURL())
		})
	}
}
