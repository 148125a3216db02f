package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/votapp/internal/core/domain"
)

const testToken = "test-token"

// fakeAuthority serves the authority's REST contract from memory.
type fakeAuthority struct {
	mu     sync.Mutex
	polls  map[string]*domain.Poll
	votes  map[string]map[string]bool
	seq    int
	server *httptest.Server
}

func newFakeAuthority(t *testing.T) *fakeAuthority {
	t.Helper()
	a := &fakeAuthority{
		polls: make(map[string]*domain.Poll),
		votes: make(map[string]map[string]bool),
	}

	r := chi.NewRouter()
	r.Post("/auth/login", a.login)
	r.Group(func(r chi.Router) {
		r.Use(a.requireToken)
		r.Get("/auth/me", a.me)
		r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) { writeEnvelope(w, http.StatusOK, nil) })
		r.Get("/votings", a.listPolls)
		r.Post("/votings", a.createPoll)
		r.Get("/votings/code/{code}", a.getByCode)
		r.Put("/votings/{id}", a.updatePoll)
		r.Patch("/votings/{id}/close", a.closePoll)
		r.Delete("/votings/{id}", a.deletePoll)
		r.Post("/votes", a.castVote)
		r.Get("/votes/voting/code/{code}/results", a.results)
		r.Get("/votes/user/{id}/has-voted", a.hasVoted)
	})

	a.server = httptest.NewServer(r)
	t.Cleanup(a.server.Close)
	return a
}

func (a *fakeAuthority) client() *Client {
	return NewClient(a.server.URL+"/", 2*time.Second)
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": status < 400, "data": data})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

func (a *fakeAuthority) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			writeFailure(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *fakeAuthority) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&body)
	if body.Password != "secret" {
		writeFailure(w, http.StatusBadRequest, "invalid credentials")
		return
	}
	writeEnvelope(w, http.StatusOK, map[string]any{
		"token": testToken,
		"user":  domain.Identity{ID: "user-1", Name: body.Name, Role: domain.RoleAdmin, VotedIn: []string{}},
	})
}

func (a *fakeAuthority) me(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusOK, domain.Identity{ID: "user-1", Name: "alice", Role: domain.RoleAdmin, VotedIn: []string{"p-1"}})
}

func (a *fakeAuthority) createPoll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Options     []string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Options) < 2 {
		writeFailure(w, http.StatusBadRequest, "invalid poll")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	p := &domain.Poll{
		ID:          fmt.Sprintf("p-%d", a.seq),
		Title:       body.Title,
		Description: body.Description,
		Code:        fmt.Sprintf("ABC%03d", a.seq),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	for i, text := range body.Options {
		p.Options = append(p.Options, domain.PollOption{ID: fmt.Sprintf("%s-o%d", p.ID, i), Text: text})
	}
	a.polls[p.ID] = p
	writeEnvelope(w, http.StatusCreated, p)
}

func (a *fakeAuthority) listPolls(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := make([]*domain.Poll, 0, len(a.polls))
	for _, p := range a.polls {
		list = append(list, p)
	}
	writeEnvelope(w, http.StatusOK, list)
}

func (a *fakeAuthority) find(w http.ResponseWriter, id string) (*domain.Poll, bool) {
	p, ok := a.polls[id]
	if !ok {
		writeFailure(w, http.StatusNotFound, "voting not found")
	}
	return p, ok
}

func (a *fakeAuthority) getByCode(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	code := chi.URLParam(r, "code")
	for _, p := range a.polls {
		if strings.EqualFold(p.Code, code) {
			writeEnvelope(w, http.StatusOK, p)
			return
		}
	}
	writeFailure(w, http.StatusNotFound, "voting not found")
}

func (a *fakeAuthority) updatePoll(w http.ResponseWriter, r *http.Request) {
	var update domain.PollUpdate
	json.NewDecoder(r.Body).Decode(&update)

	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.find(w, chi.URLParam(r, "id")); ok {
		p.Apply(update)
		writeEnvelope(w, http.StatusOK, p)
	}
}

func (a *fakeAuthority) closePoll(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.find(w, chi.URLParam(r, "id")); ok {
		now := time.Now().UTC()
		p.IsActive = false
		p.ClosedAt = &now
		writeEnvelope(w, http.StatusOK, p)
	}
}

func (a *fakeAuthority) deletePoll(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := a.find(w, id); ok {
		delete(a.polls, id)
		writeEnvelope(w, http.StatusOK, nil)
	}
}

func (a *fakeAuthority) castVote(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VotingID string `json:"votingId"`
		OptionID string `json:"optionId"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.find(w, body.VotingID)
	if !ok {
		return
	}
	if !p.IsActive {
		writeFailure(w, http.StatusBadRequest, "voting is closed")
		return
	}
	if a.votes[p.ID]["user-1"] {
		writeFailure(w, http.StatusConflict, "already voted")
		return
	}
	for i := range p.Options {
		if p.Options[i].ID == body.OptionID {
			p.Options[i].Votes++
			if a.votes[p.ID] == nil {
				a.votes[p.ID] = make(map[string]bool)
			}
			a.votes[p.ID]["user-1"] = true
			writeEnvelope(w, http.StatusCreated, nil)
			return
		}
	}
	writeFailure(w, http.StatusBadRequest, "invalid option")
}

func (a *fakeAuthority) results(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	code := chi.URLParam(r, "code")
	for _, p := range a.polls {
		if strings.EqualFold(p.Code, code) {
			writeEnvelope(w, http.StatusOK, domain.ComputeResults(p))
			return
		}
	}
	writeFailure(w, http.StatusNotFound, "voting not found")
}

func (a *fakeAuthority) hasVoted(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	writeEnvelope(w, http.StatusOK, a.votes[chi.URLParam(r, "id")]["user-1"])
}
