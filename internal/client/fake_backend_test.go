package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// fakeBackend is an in-memory Backend used to exercise the UI glue without a
// server. Every call is counted so tests can assert which operations were
// never attempted.
type fakeBackend struct {
	mu sync.Mutex

	session  *Session
	users    map[string]*User // by email
	profiles map[string]profileRow
	comments []Comment

	sessionErr error
	signInErr  error
	signUpErr  error
	otpErr     error
	profileErr error
	selectErr  error

	calls map[string]int

	subs []chan AuthChange
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		users:    map[string]*User{},
		profiles: map[string]profileRow{},
		calls:    map[string]int{},
	}
}

func (f *fakeBackend) count(op string) {
	f.calls[op]++
}

func (f *fakeBackend) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) Session(_ context.Context) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("Session")
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeBackend) SignInWithPassword(_ context.Context, email, _ string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SignInWithPassword")
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	user, ok := f.users[email]
	if !ok {
		return nil, &BackendError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	session := &Session{Token: "tok-" + user.ID, User: *user}
	f.session = session
	f.emitLocked(AuthChange{Event: SignedIn, Session: session})
	return session, nil
}

func (f *fakeBackend) SignUp(_ context.Context, params SignUpParams) (*User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SignUp")
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	user := &User{ID: fmt.Sprintf("u%d", len(f.users)+1), Email: params.Email}
	f.users[params.Email] = user
	return user, nil
}

func (f *fakeBackend) SignInWithOTP(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SignInWithOTP")
	return f.otpErr
}

func (f *fakeBackend) RedeemToken(_ context.Context, _ string) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("RedeemToken")
	if f.session == nil {
		return nil, &BackendError{Status: http.StatusUnauthorized, Message: "Invalid or expired token"}
	}
	return f.session, nil
}

func (f *fakeBackend) SignOut(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SignOut")
	f.session = nil
	f.emitLocked(AuthChange{Event: SignedOut})
	return nil
}

func (f *fakeBackend) SelectInto(_ context.Context, table string, q Query, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("SelectInto:" + table)
	if f.selectErr != nil {
		return f.selectErr
	}

	var rows interface{}
	switch table {
	case "profiles":
		matched := []profileRow{}
		for _, p := range f.profiles {
			if id, ok := q.Eq["id"]; !ok || p.ID == id {
				matched = append(matched, p)
			}
		}
		rows = matched
	case "comments":
		matched := []Comment{}
		for _, c := range f.comments {
			if id, ok := q.Eq["item_id"]; !ok || c.ItemID == id {
				matched = append(matched, c)
			}
		}
		rows = matched
	default:
		return &BackendError{Status: http.StatusNotFound, Message: "Unknown table"}
	}
	return roundTrip(rows, dest)
}

func (f *fakeBackend) InsertInto(_ context.Context, table string, row, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("InsertInto:" + table)

	switch table {
	case "profiles":
		if f.profileErr != nil {
			return f.profileErr
		}
		if f.session == nil {
			return &BackendError{Status: http.StatusUnauthorized, Message: "Missing auth token"}
		}
		id := f.session.User.ID
		if _, exists := f.profiles[id]; exists {
			return &BackendError{Status: http.StatusConflict, Message: "Profile already exists"}
		}
		var payload map[string]string
		if err := roundTrip(row, &payload); err != nil {
			return err
		}
		f.profiles[id] = profileRow{ID: id, FullName: payload["full_name"], Role: "collaborator"}
		return nil
	case "comments":
		if f.session == nil {
			return &BackendError{Status: http.StatusUnauthorized, Message: "Missing auth token"}
		}
		var payload map[string]string
		if err := roundTrip(row, &payload); err != nil {
			return err
		}
		created := Comment{
			ID:         fmt.Sprintf("c%d", len(f.comments)+1),
			ItemID:     payload["item_id"],
			UserID:     f.session.User.ID,
			Body:       payload["body"],
			Kind:       payload["kind"],
			CreatedAt:  "2025-05-12 18:30:00",
			AuthorName: f.profiles[f.session.User.ID].FullName,
		}
		// Newest first, like the backend's default read.
		f.comments = append([]Comment{created}, f.comments...)
		if dest != nil {
			return roundTrip(created, dest)
		}
		return nil
	default:
		return &BackendError{Status: http.StatusNotFound, Message: "Unknown table"}
	}
}

func (f *fakeBackend) AuthChanges() *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan AuthChange, 8)
	f.subs = append(f.subs, ch)
	return &Subscription{C: ch, cancel: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, sub := range f.subs {
			if sub == ch {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}}
}

func (f *fakeBackend) emitLocked(change AuthChange) {
	for _, ch := range f.subs {
		select {
		case ch <- change:
		default:
		}
	}
}

// seedUser adds an account with a profile name and returns it.
func (f *fakeBackend) seedUser(email, fullName string) *User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &User{ID: fmt.Sprintf("u%d", len(f.users)+1), Email: email}
	f.users[email] = user
	if fullName != "" {
		f.profiles[user.ID] = profileRow{ID: user.ID, FullName: fullName, Role: "collaborator"}
	}
	return user
}

// openSession marks the user as signed in without going through the flows.
func (f *fakeBackend) openSession(user *User) *Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	session := &Session{Token: "tok-" + user.ID, User: *user}
	f.session = session
	return session
}

func roundTrip(src, dest interface{}) error {
	encoded, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(encoded, dest)
}
