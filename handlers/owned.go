package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mini-planner/apperr"
	"mini-planner/middleware"
	"mini-planner/models"
	"mini-planner/services"
)

func callerID(r *http.Request) (string, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return "", apperr.New(apperr.Unauthenticated)
	}
	return id, nil
}

// ownedHandler serves the CRUD and count routes of lists, tags and sticky notes.
// I is the request body type.
type ownedHandler[T any, P any, E services.Entity[T], I any] struct {
	name   string // "List"
	one    string // payload key of a single entity
	many   string
	svc    *services.OwnedService[T, P, E]
	build  func(in *I, ownerID string) (*T, error)
	change func(in *I) (P, error)
	log    *zap.Logger
}

func (h *ownedHandler[T, P, E, I]) routes(r chi.Router) {
	r.Get("/", h.getAll)
	r.Post("/", h.add)
	r.Get("/count", h.count)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
}

func (h *ownedHandler[T, P, E, I]) getAll(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	page, err := pageOf(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	found, err := h.svc.GetAll(r.Context(), page, owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.name+"s Found Successfully", envelope{h.many: found})
}

func (h *ownedHandler[T, P, E, I]) count(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.svc.Count(r.Context(), owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.name+"s Counted Successfully", envelope{"count": n})
}

func (h *ownedHandler[T, P, E, I]) get(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	e, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.name+" Found Successfully", envelope{h.one: e})
}

func (h *ownedHandler[T, P, E, I]) add(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var in I
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	e, err := h.build(&in, owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	id, err := h.svc.Add(r.Context(), e)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.name+" Added Successfully", envelope{"id": id})
}

func (h *ownedHandler[T, P, E, I]) update(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	var in I
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	patch, err := h.change(&in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch, owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.name+" Updated Successfully", envelope{"modifiedCount": n})
}

func (h *ownedHandler[T, P, E, I]) remove(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, h.name+" Deleted Successfully", envelope{"deletedCount": n})
}

func newListHandler(svc *services.ListService, log *zap.Logger) *ownedHandler[models.List, models.ListPatch, *models.List, headedInput] {
	return &ownedHandler[models.List, models.ListPatch, *models.List, headedInput]{
		name: "List", one: "list", many: "lists",
		svc: svc,
		log: log,
		build: func(in *headedInput, ownerID string) (*models.List, error) {
			if err := in.validate("List", true); err != nil {
				return nil, err
			}
			return &models.List{UserID: ownerID, Heading: *in.Heading, Color: deref(in.Color)}, nil
		},
		change: func(in *headedInput) (models.ListPatch, error) {
			if err := in.validate("List", false); err != nil {
				return models.ListPatch{}, err
			}
			return models.ListPatch{Heading: in.Heading, Color: in.Color}, nil
		},
	}
}

func newTagHandler(svc *services.TagService, log *zap.Logger) *ownedHandler[models.Tag, models.TagPatch, *models.Tag, headedInput] {
	return &ownedHandler[models.Tag, models.TagPatch, *models.Tag, headedInput]{
		name: "Tag", one: "tag", many: "tags",
		svc: svc,
		log: log,
		build: func(in *headedInput, ownerID string) (*models.Tag, error) {
			if err := in.validate("Tag", true); err != nil {
				return nil, err
			}
			return &models.Tag{UserID: ownerID, Heading: *in.Heading, Color: deref(in.Color)}, nil
		},
		change: func(in *headedInput) (models.TagPatch, error) {
			if err := in.validate("Tag", false); err != nil {
				return models.TagPatch{}, err
			}
			return models.TagPatch{Heading: in.Heading, Color: in.Color}, nil
		},
	}
}

func newStickyNoteHandler(svc *services.StickyNoteService, log *zap.Logger) *ownedHandler[models.StickyNote, models.StickyNotePatch, *models.StickyNote, stickyNoteInput] {
	return &ownedHandler[models.StickyNote, models.StickyNotePatch, *models.StickyNote, stickyNoteInput]{
		name: "Sticky Note", one: "stickyNote", many: "stickyNotes",
		svc: svc,
		log: log,
		build: func(in *stickyNoteInput, ownerID string) (*models.StickyNote, error) {
			if err := in.validate(true); err != nil {
				return nil, err
			}
			return &models.StickyNote{UserID: ownerID, Content: *in.Content, Color: deref(in.Color)}, nil
		},
		change: func(in *stickyNoteInput) (models.StickyNotePatch, error) {
			if err := in.validate(false); err != nil {
				return models.StickyNotePatch{}, err
			}
			return models.StickyNotePatch{Content: in.Content, Color: in.Color}, nil
		},
	}
}
