package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"project-planner/internal/service"
)

const (
	kindNotFound   = "not_found"
	kindValidation = "validation"
	kindBadRequest = "bad_request"
	kindInternal   = "internal"
)

// Handler serves Service over JSON/HTTP.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
	mux *http.ServeMux
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	h := &Handler{svc: svc, log: log, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /projects", h.listProjects)
	h.mux.HandleFunc("POST /projects", h.createProject)
	h.mux.HandleFunc("GET /projects/{id}", h.getProject)
	h.mux.HandleFunc("POST /projects/{id}/categories", h.createCategory)
	h.mux.HandleFunc("POST /projects/{id}/tasks", h.createTask)
	h.mux.HandleFunc("POST /tasks/{id}/category", h.reassignTask)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// listProjects is flat unless ?include= names relations for every project.
func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	if include, ok := r.URL.Query()["include"]; ok {
		sel, err := service.ParseSelection(include[0])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		views, err := h.svc.ResolveList(r.Context(), sel)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		out := make([]map[string]interface{}, 0, len(views))
		for i := range views {
			out = append(out, shapedProject(&views[i], sel))
		}
		h.respond(w, http.StatusOK, out)
		return
	}

	list, err := h.svc.ListProjects(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, list)
}

// getProject returns the full shape unless ?include= names the relations.
func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if include, ok := r.URL.Query()["include"]; ok {
		sel, err := service.ParseSelection(include[0])
		if err != nil {
			h.fail(w, r, err)
			return
		}
		view, err := h.svc.Resolve(r.Context(), id, sel)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		h.respond(w, http.StatusOK, shapedProject(view, sel))
		return
	}

	project, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, project)
}

func (h *Handler) reassignTask(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.svc.ReassignTask(r.Context(), r.PathValue("id"), req.CategoryID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, res)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	project, err := h.svc.CreateProject(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, project)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	category, err := h.svc.CreateCategory(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, category)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	task, err := h.svc.CreateTask(r.Context(), r.PathValue("id"), req.CategoryID, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, task)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: kindBadRequest})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var nf *service.NotFoundError
	var ve *service.ValidationError
	switch {
	case errors.As(err, &nf):
		h.respond(w, http.StatusNotFound, errorResponse{Error: nf.Error(), Kind: kindNotFound, ID: nf.ID})
	case errors.As(err, &ve):
		h.respond(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Error(), Kind: kindValidation})
	default:
		h.log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		h.respond(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: kindInternal})
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Warn("write response")
	}
}
