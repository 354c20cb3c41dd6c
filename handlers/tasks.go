package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mini-planner/models"
	"mini-planner/services"
)

type taskHandler struct {
	svc *services.TaskService
	log *zap.Logger
}

func (h *taskHandler) routes(r chi.Router) {
	r.Get("/", h.getAll)
	r.Post("/", h.add)
	r.Get("/count", h.count)
	r.Get("/lists/{listId}", h.getAllByList)
	r.Get("/tags/{tagId}", h.getAllByTag)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Patch("/{id}/toggle-done", h.toggleDone)
	r.Delete("/{id}", h.remove)
}

func (h *taskHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log, err)
}

func (h *taskHandler) found(w http.ResponseWriter, tasks []*models.Task) {
	writeJSON(w, http.StatusOK, "Tasks Found Successfully", envelope{"tasks": tasks})
}

func (h *taskHandler) getAll(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := pageOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := taskQuery(r, owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tasks, err := h.svc.GetAll(r.Context(), page, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.found(w, tasks)
}

func (h *taskHandler) count(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := taskQuery(r, owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.svc.Count(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Tasks Counted Successfully", envelope{"count": n})
}

func (h *taskHandler) getAllByList(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := pageOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tasks, err := h.svc.GetAllByList(r.Context(), page, owner, chi.URLParam(r, "listId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.found(w, tasks)
}

func (h *taskHandler) getAllByTag(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := pageOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tasks, err := h.svc.GetAllByTag(r.Context(), page, owner, chi.URLParam(r, "tagId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.found(w, tasks)
}

func (h *taskHandler) get(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	task, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Task Found Successfully", envelope{"task": task})
}

func (h *taskHandler) add(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in taskInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	task, err := in.task(owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.svc.Add(r.Context(), task)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Task Added Successfully", envelope{"id": id})
}

func (h *taskHandler) update(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in taskInput
	if err := decode(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	patch, err := in.patch(false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch, owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Task Updated Successfully", envelope{"modifiedCount": n})
}

func (h *taskHandler) toggleDone(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.svc.ChangeDoneStatus(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Task Updated Successfully", envelope{"modifiedCount": n})
}

func (h *taskHandler) remove(w http.ResponseWriter, r *http.Request) {
	owner, err := callerID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Task Deleted Successfully", envelope{"deletedCount": n})
}
