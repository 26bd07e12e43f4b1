package auth

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// NewHTTPClient builds a client for downloading protected Earthdata assets.
// Data servers redirect unauthenticated requests to the Earthdata Login
// host; the transport presents Basic credentials only on that hop, and the
// cookie jar carries the resulting session so later requests skip the
// round trip. Token credentials are sent as a bearer header instead.
func NewHTTPClient(creds Credentials, timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Jar:     jar,
		Timeout: timeout,
		Transport: &ursTransport{
			creds: creds,
			base:  http.DefaultTransport,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 15 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// ursTransport injects credentials appropriate to the request host.
type ursTransport struct {
	creds Credentials
	base  http.RoundTripper
}

func (t *ursTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.creds.HasToken() && isEarthdataHost(req.URL.Host) {
		clone := req.Clone(req.Context())
		clone.Header.Set("Authorization", "Bearer "+t.creds.Token)
		return t.base.RoundTrip(clone)
	}
	if t.creds.HasBasic() && req.URL.Host == URSHost {
		clone := req.Clone(req.Context())
		clone.SetBasicAuth(t.creds.Username, t.creds.Password)
		return t.base.RoundTrip(clone)
	}
	return t.base.RoundTrip(req)
}

func isEarthdataHost(host string) bool {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host == URSHost || strings.HasSuffix(host, ".earthdata.nasa.gov") || strings.HasSuffix(host, ".earthdatacloud.nasa.gov")
}
