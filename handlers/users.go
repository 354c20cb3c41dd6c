package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mini-planner/auth"
	"mini-planner/models"
	"mini-planner/services"
)

// userHandler serves the caller's own account. There is no id in the path.
type userHandler struct {
	svc      *services.UserService
	sessions auth.Sessions
	log      *zap.Logger
}

func (h *userHandler) routes(r chi.Router) {
	r.Get("/", h.get)
	r.Patch("/", h.update)
	r.Patch("/password-reset", h.resetPassword)
	r.Delete("/", h.remove)
}

func (h *userHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	user, err := h.svc.Find(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, "User Found Successfully", envelope{"user": user})
}

func (h *userHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var in userInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	patch, err := in.patch()
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.apply(w, r, id, patch)
}

func (h *userHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var in passwordInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := password(in.Password); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	hash, err := auth.HashPassword(*in.Password)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.apply(w, r, id, models.UserPatch{PasswordHash: &hash})
}

func (h *userHandler) apply(w http.ResponseWriter, r *http.Request, id string, patch models.UserPatch) {
	n, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, "User Updated Successfully", envelope{"modifiedCount": n})
}

// remove deletes the account with everything it owns and ends every session.
func (h *userHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.svc.Remove(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.sessions.RevokeAll(r.Context(), id); err != nil {
		writeError(w, r, h.log, fmt.Errorf("revoke sessions: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, "User Deleted Successfully", envelope{"deletedCount": n})
}
