package http

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const userAgent = "interview-emotion"

// headerTransport stamps outgoing requests with the service identity and
// the id of the inbound request that caused them
type headerTransport struct {
	token     string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	reqCopy := req.Clone(req.Context())

	if t.token != "" {
		reqCopy.Header.Set("Authorization", "Bearer "+t.token)
	}
	if reqCopy.Header.Get("User-Agent") == "" {
		reqCopy.Header.Set("User-Agent", userAgent)
	}
	if id := middleware.GetReqID(req.Context()); id != "" && reqCopy.Header.Get(middleware.RequestIDHeader) == "" {
		reqCopy.Header.Set(middleware.RequestIDHeader, id)
	}

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken authorizes requests with a bearer token when token is set
func WithAuthToken(token string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{
			token:     token,
			transport: rt,
		}
	})
}
