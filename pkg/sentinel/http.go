package sentinel

import (
	"context"
	"errors"
	"io"
	"net/http"
)

type transport struct {
	base     http.RoundTripper
	sentinel *Sentinel
}

// Transport wraps base so that every request is guarded and recorded.
// Responses with a 5xx status count as breaker failures but are still
// returned to the caller. A nil base uses http.DefaultTransport.
func (s *Sentinel) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, sentinel: s}
}

// Client returns a copy of base whose transport is guarded by s.
func (s *Sentinel) Client(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	c := *base
	c.Transport = s.Transport(base.Transport)
	return &c
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := Call(req.Context(), t.sentinel, requestOf(req), func(context.Context) (*http.Response, error) {
		return failOnServerError(t.base.RoundTrip(req))
	})
	if errors.Is(err, ErrCircuitOpen) && req.Body != nil {
		req.Body.Close()
	}
	return unwrapStatus(resp, err)
}

// Fetch issues a request with the sentinel's HTTP client. Like Transport,
// a 5xx response is returned without error.
func (s *Sentinel) Fetch(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	method = normalizeMethod(method)
	return unwrapStatus(Call(ctx, s, Request{URL: url, Method: method}, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
		return failOnServerError(s.client.Do(req))
	}))
}

// Do sends req with the sentinel's HTTP client.
func (s *Sentinel) Do(req *http.Request) (*http.Response, error) {
	return unwrapStatus(Call(req.Context(), s, requestOf(req), func(context.Context) (*http.Response, error) {
		return failOnServerError(s.client.Do(req))
	}))
}

func requestOf(req *http.Request) Request {
	return Request{URL: req.URL.String(), Method: req.Method}
}

func failOnServerError(resp *http.Response, err error) (*http.Response, error) {
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return resp, &StatusError{Response: resp}
	}
	return resp, nil
}

func unwrapStatus(resp *http.Response, err error) (*http.Response, error) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Response, nil
	}
	return resp, err
}
