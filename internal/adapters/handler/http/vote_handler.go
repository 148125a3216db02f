package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/votapp/internal/core/ports"
)

type VoteHandler struct {
	service ports.VotingService
}

func NewVoteHandler(service ports.VotingService) *VoteHandler {
	return &VoteHandler{
		service: service,
	}
}

type voteRequest struct {
	OptionID string `json:"optionId"`
}

func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil || req.OptionID == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pollID := chi.URLParam(r, "id")
	if err := h.service.CastVote(r.Context(), sessionFromContext(r.Context()), pollID, req.OptionID); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"votingId": pollID, "optionId": req.OptionID, "voted": true})
}

func (h *VoteHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	voted, err := h.service.HasVoted(r.Context(), sessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasVoted": voted})
}
