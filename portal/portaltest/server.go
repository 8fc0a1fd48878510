// Package portaltest provides an in-memory portal for tests.
//
// The Server speaks the same endpoints, cookies and status codes as the
// brokerage portal: a sign in handshake setting the session, affinity and
// authentication cookies, the account overview, the usability check, the
// account switch, the holdings view and the holding detail pages.
package portaltest

import (
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Cookie values handed out by the Server.
const (
	SessionID = "ASP.NET_SessionId=sess-1"
	Affinity  = "srv_id=node-7"
	Auth      = "EasyEquities=auth-token"
)

// Account served by the portal.
type Account struct {
	ID         string
	CurrencyID string
	CanUse     bool
	// Holdings is the holdings view HTML returned once the account is
	// selected.
	Holdings []byte
}

// Request is a request received by the Server.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Cookie string
	Body   string
}

// Server is a fake portal. Configure the exported fields before issuing
// requests.
type Server struct {
	*httptest.Server

	Username string
	Password string
	Accounts []Account
	// Details maps a detail URL (path and query) to its HTML.
	Details map[string][]byte

	mu       sync.Mutex
	selected string
	requests []Request
}

// NewServer starts a portal accepting username and password.
func NewServer(username, password string, accounts ...Account) *Server {
	s := &Server{
		Username: username,
		Password: password,
		Accounts: accounts,
		Details:  make(map[string][]byte),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.landing)
	mux.HandleFunc("GET /Account/SignIn", s.landing)
	mux.HandleFunc("POST /Account/SignIn", s.signIn)
	mux.HandleFunc("GET /AccountOverview", s.authenticated(s.overview))
	mux.HandleFunc("GET /Menu/CanUseSelectedAccount", s.authenticated(s.canUse))
	mux.HandleFunc("POST /Menu/UpdateCurrency", s.authenticated(s.updateCurrency))
	mux.HandleFunc("GET /AccountOverview/GetHoldingsView", s.authenticated(s.holdingsView))
	mux.HandleFunc("GET /AccountOverview/HoldingDetail", s.authenticated(s.detail))
	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Selected returns the id of the account last selected.
func (s *Server) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Cookie: r.Header.Get("Cookie"),
			Body:   string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// hasCookie reports whether the request carries the name=value pair.
func hasCookie(r *http.Request, pair string) bool {
	name, value, _ := strings.Cut(pair, "=")
	c, err := r.Cookie(name)
	return err == nil && c.Value == value
}

// authenticated rejects requests without the three cookies the way the portal
// does: with a redirect to the sign in page.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasCookie(r, SessionID) || !hasCookie(r, Affinity) || !hasCookie(r, Auth) {
			http.Redirect(w, r, "/Account/SignIn", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (s *Server) landing(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Set-Cookie", SessionID+"; path=/; HttpOnly; SameSite=Lax")
	w.Header().Add("Set-Cookie", Affinity+"; path=/")
	fmt.Fprint(w, `<html><body><form method="post" action="/Account/SignIn"></form></body></html>`)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	if !hasCookie(r, SessionID) || !hasCookie(r, Affinity) {
		http.Error(w, "no session", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("UserIdentifier") != s.Username || r.PostForm.Get("Password") != s.Password {
		// the portal renders the form again, with no authentication cookie.
		fmt.Fprint(w, `<html><body><div class="validation-summary-errors">Invalid login</div></body></html>`)
		return
	}
	w.Header().Add("Set-Cookie", Auth+"; path=/; secure; HttpOnly")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) overview(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"account-selector\">\n")
	for _, a := range s.Accounts {
		fmt.Fprintf(&b, "<div id=\"selector-tab\" data-id=\"%s\" data-tradingcurrencyid=\"%s\"></div>\n",
			html.EscapeString(a.ID), html.EscapeString(a.CurrencyID))
	}
	b.WriteString("</div></body></html>")
	fmt.Fprint(w, b.String())
}

func (s *Server) canUse(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("tradingCurrencyId")
	for _, a := range s.Accounts {
		if a.CurrencyID == currency {
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"CanUse":%t,"Message":null}`, a.CanUse)
			return
		}
	}
	http.Error(w, "unknown currency", http.StatusInternalServerError)
}

func (s *Server) updateCurrency(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := r.PostForm.Get("trustAccountId")
	for _, a := range s.Accounts {
		if a.ID == id {
			s.mu.Lock()
			s.selected = id
			s.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"Success":true}`)
			return
		}
	}
	http.Error(w, "unknown account", http.StatusInternalServerError)
}

func (s *Server) holdingsView(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("stockViewCategoryId") != "12" {
		http.Error(w, "unknown category", http.StatusBadRequest)
		return
	}
	selected := s.Selected()
	for _, a := range s.Accounts {
		if a.ID == selected {
			w.Write(a.Holdings)
			return
		}
	}
	http.Error(w, "no account selected", http.StatusInternalServerError)
}

func (s *Server) detail(w http.ResponseWriter, r *http.Request) {
	page, ok := s.Details[r.URL.RequestURI()]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(page)
}
