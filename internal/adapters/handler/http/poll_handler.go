package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/votapp/internal/core/domain"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type PollHandler struct {
	service    ports.VotingService
	reconciler ports.ReconcileService
}

func NewPollHandler(service ports.VotingService, reconciler ports.ReconcileService) *PollHandler {
	return &PollHandler{
		service:    service,
		reconciler: reconciler,
	}
}

type createPollRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
}

type pollResponse struct {
	*domain.Poll
	SyncState    string `json:"syncState"`
	VotingClosed bool   `json:"votingClosed"`
}

func newPollResponse(poll *domain.Poll) pollResponse {
	return pollResponse{Poll: poll, SyncState: poll.Sync.String(), VotingClosed: !poll.IsActive}
}

func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	poll, err := h.service.CreatePoll(r.Context(), sessionFromContext(r.Context()), ports.CreatePollInput{
		Title:       req.Title,
		Description: req.Description,
		Options:     req.Options,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newPollResponse(poll))
}

func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.service.ListPolls(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}

	resp := make([]pollResponse, 0, len(polls))
	for _, poll := range polls {
		resp = append(resp, newPollResponse(poll))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPollByCode answers 200 for closed polls too; the body carries
// votingClosed so the caller can show the results instead of the ballot.
func (h *PollHandler) GetPollByCode(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.FindPollByCode(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "code"))
	if err != nil && !(errors.Is(err, domain.ErrVotingClosed) && poll != nil) {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPollResponse(poll))
}

func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	var update domain.PollUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	poll, err := h.service.UpdatePoll(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "id"), update)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPollResponse(poll))
}

func (h *PollHandler) ClosePoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.ClosePoll(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPollResponse(poll))
}

func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePoll(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PollHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "code"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// Sync runs a reconciliation pass for the caller's session.
func (h *PollHandler) Sync(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.Reconcile(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
