package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// Cookie names set by the portal during sign in.
const (
	SessionIDCookie = "ASP.NET_SessionId"
	AffinityCookie  = "srv_id"
	AuthCookie      = "EasyEquities"
)

// SignInPath is the login form endpoint.
const SignInPath = "/Account/SignIn"

// ErrMissingCredentials is returned when the username or the password is empty.
var ErrMissingCredentials = errors.New("missing username or password")

// Credentials to sign in the portal.
type Credentials struct {
	Username string
	Password string
}

// Authenticate performs the login handshake and returns the authenticated
// Session.
//
//  1. GET landing anonymously to obtain the session id and server affinity
//     cookies. landing defaults to SignInPath.
//  2. POST the credentials to SignInPath with those two cookies, to obtain
//     the authentication cookie.
//
// The returned Session holds the three cookies. Any missing cookie aborts the
// handshake: there is no usable partial session.
func (c *Client) Authenticate(ctx context.Context, creds Credentials, landing string) (Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return Session{}, ErrMissingCredentials
	}
	if landing == "" {
		landing = SignInPath
	}
	log := zerolog.Ctx(ctx)

	resp, err := c.Do(ctx, http.MethodGet, landing, Session{}, nil)
	if err != nil {
		return Session{}, fmt.Errorf("cannot open sign in page: %w", err)
	}
	anonymous, err := extractCookies(resp, SessionIDCookie, AffinityCookie)
	if err != nil {
		return Session{}, fmt.Errorf("cannot start a session: %w", err)
	}
	session := NewSession(anonymous...)

	resp, err = c.Do(ctx, http.MethodPost, SignInPath, session, signInForm(creds))
	if err != nil {
		return Session{}, fmt.Errorf("cannot sign in: %w", err)
	}
	auth, err := ExtractCookie(resp, AuthCookie)
	if err != nil {
		return Session{}, fmt.Errorf("sign in rejected: %w", err)
	}
	log.Info().Str("user", creds.Username).Msg("signed in")
	return session.With(auth), nil
}

// signInForm encodes the login form, keeping the field order of the portal's
// own form.
func signInForm(creds Credentials) []byte {
	return []byte("UserIdentifier=" + url.QueryEscape(creds.Username) +
		"&Password=" + url.QueryEscape(creds.Password) +
		"&ReturnUrl=&OneSignalGameId=")
}
