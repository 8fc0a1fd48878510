// Package portal talks to the brokerage web portal.
//
// The portal has no API: every call is a plain HTTPS request authenticated by
// the cookies of a Session, answered by HTML or small JSON documents. This
// package only deals with the network; HTML extraction lives in package
// scrape.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultUserAgent is sent on every request unless Client.UserAgent is set.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_14_6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/81.0.4044.132 Safari/537.36"

// clockSkew is subtracted from the cache-busting timestamp to tolerate the
// server clock running late.
const clockSkew = 1000

// Client issues requests to the portal. Its zero value is not usable: use
// NewClient.
type Client struct {
	base      *url.URL
	http      *http.Client
	UserAgent string
	// Now is the clock used for cache-busting parameters.
	Now func() time.Time
}

// NewClient returns a Client for the portal at host.
//
// host is either a bare hostname (https is assumed) or a full base URL.
// Redirects are never followed: a 302 is returned to the caller as is.
func NewClient(host string, transport http.RoundTripper) (*Client, error) {
	if host == "" {
		return nil, fmt.Errorf("portal host is required")
	}
	raw := host
	if u, err := url.Parse(host); err != nil || u.Scheme == "" || u.Host == "" {
		raw = "https://" + host
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid portal host %q: %w", host, err)
	}
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		base: base,
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		UserAgent: DefaultUserAgent,
		Now:       time.Now,
	}, nil
}

// Response is a fully read portal response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError is returned for any status other than 200 and 302.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d", e.Method, e.Path, e.Code)
}

// TransportError is returned when the request could not complete: DNS, TLS,
// connection reset, and so on.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Do sends a request to path (which may carry a query) with the session
// cookies, and reads the whole response.
//
// A non nil body is sent as JSON if it is valid JSON, as a url-encoded form
// otherwise.
func (c *Client) Do(ctx context.Context, method, path string, session Session, body []byte) (*Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	addr := c.base.ResolveReference(ref)

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, addr.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("cannot create http request %q: %w", path, err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	if cookie := session.Header(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType(body))
		req.ContentLength = int64(len(body))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusFound {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("cannot read http body: %w", err)}
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       buf.Bytes(),
	}, nil
}

func (c *Client) userAgent() string {
	if c.UserAgent == "" {
		return DefaultUserAgent
	}
	return c.UserAgent
}

// contentType derives the request content type from the body encoding.
func contentType(body []byte) string {
	if json.Valid(body) {
		return "application/json; charset=UTF-8"
	}
	return "application/x-www-form-urlencoded; charset=UTF-8"
}

// epoch returns the cache-busting timestamp: unix seconds minus clockSkew.
func (c *Client) epoch() int64 {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().Unix() - clockSkew
}
