package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/studentaffairs/portal/internal/api/middleware"
	"github.com/studentaffairs/portal/internal/api/problem"
	"github.com/studentaffairs/portal/internal/audit"
	"github.com/studentaffairs/portal/internal/clock"
	"github.com/studentaffairs/portal/internal/domain/events"
)

const imageFormField = "file"

type AdminHandler struct {
	Service *events.AdminService
	Clock   clock.Clock
	Audit   *audit.Logger
	Env     string
}

func NewAdminHandler(service *events.AdminService, clk clock.Clock, auditLog *audit.Logger, env string) *AdminHandler {
	if clk == nil {
		clk = clock.System()
	}
	return &AdminHandler{Service: service, Clock: clk, Audit: auditLog, Env: env}
}

type adminListResponse struct {
	Items []events.Listed `json:"items"`
	Count int             `json:"count"`
}

type categoriesResponse struct {
	Items []events.CategoryRecord `json:"items"`
}

type uploadResponse struct {
	Path string `json:"path"`
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context(), h.Clock.Now())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, adminListResponse{Items: items, Count: len(items)})
}

func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	created, err := h.Service.Create(r.Context(), payload)
	h.audit(r, "event.create", created.ID, err)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	w.Header().Set("Location", "/api/v1/events/"+strconv.FormatInt(created.ID, 10))
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	payload, ok := h.decodePayload(w, r)
	if !ok {
		return
	}
	updated, err := h.Service.Update(r.Context(), id, payload)
	h.audit(r, "event.update", id, err)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	err = h.Service.Delete(r.Context(), id)
	h.audit(r, "event.delete", id, err)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.Categories(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	if categories == nil {
		categories = []events.CategoryRecord{}
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Items: categories})
}

// UploadImage accepts a multipart form with the image in the "file" field
// and returns the stored path for use as image_filename.
func (h *AdminHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid image", err, h.Env,
			problem.WithErrors(map[string]string{imageFormField: "An image file is required."}))
		return
	}
	defer file.Close()

	path, err := h.Service.UploadImage(r.Context(), header.Filename, header.Size, file)
	h.audit(r, "image.upload", 0, err)
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{Path: path})
}

func (h *AdminHandler) decodePayload(w http.ResponseWriter, r *http.Request) (events.Payload, bool) {
	var payload events.Payload
	if err := decodeJSON(r, &payload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, err, h.Env)
			return events.Payload{}, false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env,
			problem.WithDetail("Request body must be a JSON event."))
		return events.Payload{}, false
	}
	return payload, true
}

func (h *AdminHandler) audit(r *http.Request, action string, id int64, err error) {
	entry := audit.Entry{Action: action, Status: audit.StatusSuccess}
	if id > 0 {
		entry.ResourceType = "event"
		entry.ResourceID = strconv.FormatInt(id, 10)
	}
	if claims := middleware.Claims(r); claims != nil {
		entry.Actor = claims.Subject
	}
	if err != nil {
		entry.Status = audit.StatusFailure
		entry.Details = map[string]string{"error": err.Error()}
	}
	h.Audit.LogRequest(r, entry)
}
