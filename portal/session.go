package portal

import (
	"fmt"
	"slices"
	"strings"
)

// Session is the ordered set of cookies authenticating a run.
//
// It is a value: With returns a new Session and never modifies the receiver.
type Session struct {
	cookies []string
}

// NewSession returns a Session made of raw Set-Cookie entries.
func NewSession(cookies ...string) Session {
	return Session{cookies: slices.Clone(cookies)}
}

// With returns a copy of s with cookies appended.
func (s Session) With(cookies ...string) Session {
	return Session{cookies: append(append([]string(nil), s.cookies...), cookies...)}
}

// Cookies returns a copy of the raw Set-Cookie entries.
func (s Session) Cookies() []string { return slices.Clone(s.cookies) }

// Len returns the number of cookies in the session.
func (s Session) Len() int { return len(s.cookies) }

// Header returns the value of the Cookie request header: the name=value part
// of each entry joined by "; ".
func (s Session) Header() string {
	pairs := make([]string, 0, len(s.cookies))
	for _, c := range s.cookies {
		pair, _, _ := strings.Cut(c, ";")
		if pair = strings.TrimSpace(pair); pair != "" {
			pairs = append(pairs, pair)
		}
	}
	return strings.Join(pairs, "; ")
}

// CookieNotFoundError is returned when a response carries no expected cookie.
type CookieNotFoundError struct {
	Name string
}

func (e *CookieNotFoundError) Error() string {
	return fmt.Sprintf("unable to find a cookie named %q", e.Name)
}

// ExtractCookie returns the first Set-Cookie entry of resp containing name.
//
// The match is a plain substring match on the raw header value: the portal
// cookie names are matched the same way its own scripts do.
func ExtractCookie(resp *Response, name string) (string, error) {
	if resp == nil {
		return "", &CookieNotFoundError{Name: name}
	}
	for _, c := range resp.Header.Values("Set-Cookie") {
		if strings.Contains(c, name) {
			return c, nil
		}
	}
	return "", &CookieNotFoundError{Name: name}
}

// extractCookies returns the cookies named names, in order, or the first error.
func extractCookies(resp *Response, names ...string) ([]string, error) {
	cookies := make([]string, 0, len(names))
	for _, name := range names {
		c, err := ExtractCookie(resp, name)
		if err != nil {
			return nil, err
		}
		cookies = append(cookies, c)
	}
	return cookies, nil
}
