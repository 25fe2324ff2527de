package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

// HTTPBackend talks to the comments backend over its REST API. It is
// authenticated by the public project key on every request, plus the bearer
// token of the current session once one exists.
//
// Auth state transitions are emitted locally when the backend's own calls
// create or destroy the session, which is how the hosted client the page glue
// was written against behaves.
type HTTPBackend struct {
	baseURL string
	apiKey  string
	httpc   *http.Client

	mu      sync.Mutex
	session *Session

	subMu sync.Mutex
	subs  map[chan AuthChange]bool
}

// NewHTTPBackend creates a backend adapter for the service at baseURL.
func NewHTTPBackend(baseURL, apiKey string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc:   &http.Client{},
		subs:    make(map[chan AuthChange]bool),
	}
}

// Session returns the current session. With a stored token it is revalidated
// against the backend; a rejected token clears the stored session.
func (b *HTTPBackend) Session(ctx context.Context) (*Session, error) {
	b.mu.Lock()
	current := b.session
	b.mu.Unlock()
	if current == nil {
		return nil, nil
	}

	var user User
	err := b.do(ctx, http.MethodGet, "/api/v1/auth/session", nil, &user)
	if err != nil {
		if be, ok := err.(*BackendError); ok && be.Status == http.StatusUnauthorized {
			b.setSession(nil)
			return nil, nil
		}
		return nil, err
	}
	return &Session{Token: current.Token, User: user}, nil
}

func (b *HTTPBackend) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := b.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}

	b.setSession(&session)
	b.emit(AuthChange{Event: SignedIn, Session: &session})
	return &session, nil
}

func (b *HTTPBackend) SignUp(ctx context.Context, params SignUpParams) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := b.do(ctx, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    params.Email,
		"password": params.Password,
		"fullName": params.FullName,
	}, &resp)
	if err != nil {
		return nil, err
	}
	// No session yet: the account must be confirmed out of band first.
	return &resp.User, nil
}

func (b *HTTPBackend) SignInWithOTP(ctx context.Context, email string) error {
	return b.do(ctx, http.MethodPost, "/api/v1/auth/magiclink", map[string]string{"email": email}, nil)
}

func (b *HTTPBackend) RedeemToken(ctx context.Context, token string) (*Session, error) {
	var session Session
	err := b.do(ctx, http.MethodGet, "/api/v1/auth/verify?token="+url.QueryEscape(token), nil, &session)
	if err != nil {
		return nil, err
	}

	b.setSession(&session)
	b.emit(AuthChange{Event: SignedIn, Session: &session})
	return &session, nil
}

func (b *HTTPBackend) SignOut(ctx context.Context) error {
	err := b.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	b.setSession(nil)
	b.emit(AuthChange{Event: SignedOut})
	return err
}

// SelectInto reads rows from a table into dest, which must be a pointer to a
// slice of row structs tagged with the table's column names.
func (b *HTTPBackend) SelectInto(ctx context.Context, table string, q Query, dest interface{}) error {
	params := url.Values{}
	for col, val := range q.Eq {
		params.Set(col, "eq."+val)
	}
	if q.Order != "" {
		dir := ".asc"
		if q.Desc {
			dir = ".desc"
		}
		params.Set("order", q.Order+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.EmbedProfiles {
		params.Set("embed", "profiles")
	}

	path := "/api/v1/db/" + url.PathEscape(table)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return b.do(ctx, http.MethodGet, path, nil, dest)
}

// InsertInto appends a row to a table; the created row, with its
// server-assigned fields, is decoded into dest when dest is non-nil.
func (b *HTTPBackend) InsertInto(ctx context.Context, table string, row, dest interface{}) error {
	return b.do(ctx, http.MethodPost, "/api/v1/db/"+url.PathEscape(table), row, dest)
}

// AuthChanges subscribes to auth state transitions.
func (b *HTTPBackend) AuthChanges() *Subscription {
	ch := make(chan AuthChange, 8)

	b.subMu.Lock()
	b.subs[ch] = true
	b.subMu.Unlock()

	return &Subscription{
		C: ch,
		cancel: func() {
			b.subMu.Lock()
			if b.subs[ch] {
				delete(b.subs, ch)
				close(ch)
			}
			b.subMu.Unlock()
		},
	}
}

func (b *HTTPBackend) setSession(s *Session) {
	b.mu.Lock()
	b.session = s
	b.mu.Unlock()
}

func (b *HTTPBackend) emit(change AuthChange) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- change:
		default:
			// A subscriber that stopped draining loses transitions rather
			// than blocking everyone else.
		}
	}
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", b.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	b.mu.Lock()
	if b.session != nil {
		req.Header.Set("Authorization", "Bearer "+b.session.Token)
	}
	b.mu.Unlock()

	resp, err := b.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &BackendError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
