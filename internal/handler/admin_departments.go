package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"jccadmin/internal/department"
	"jccadmin/internal/renumber"
)

// AdminDepartmentsHandler handles admin operations for departments.
type AdminDepartmentsHandler struct {
	manager  *department.Manager
	renumber *renumber.Coordinator
}

// NewAdminDepartmentsHandler creates a new admin departments handler.
func NewAdminDepartmentsHandler(manager *department.Manager, coord *renumber.Coordinator) *AdminDepartmentsHandler {
	return &AdminDepartmentsHandler{manager: manager, renumber: coord}
}

type departmentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

func toDepartmentResponse(d *department.Department) departmentResponse {
	return departmentResponse{
		ID:        d.ID,
		Name:      d.Name,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// List handles GET /admin/departments
func (h *AdminDepartmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	depts := h.manager.List(r.Context())

	response := make([]departmentResponse, len(depts))
	for i, d := range depts {
		response[i] = toDepartmentResponse(d)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"departments": response,
		"count":       len(response),
	})
}

// Get handles GET /admin/departments/{id}
func (h *AdminDepartmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.manager.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, department.ErrNotFound) {
			writeAdminError(w, http.StatusNotFound, "department not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get department", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to get department")
		return
	}

	writeJSON(w, http.StatusOK, toDepartmentResponse(d))
}

type departmentRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// Create handles POST /admin/departments
func (h *AdminDepartmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.manager.Create(r.Context(), req.Name)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create department", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to create department")
		return
	}

	switch result.Status {
	case department.RejectedInvalid:
		writeAdminError(w, http.StatusBadRequest, "name is required")
	case department.RejectedDuplicate:
		writeAdminError(w, http.StatusConflict, "department already exists")
	default:
		writeJSON(w, http.StatusCreated, toDepartmentResponse(result.Department))
	}
}

// Update handles PUT /admin/departments/{id}
func (h *AdminDepartmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req departmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.manager.Update(r.Context(), id, req.Name); err != nil {
		switch {
		case errors.Is(err, department.ErrNotFound):
			writeAdminError(w, http.StatusNotFound, "department not found")
		case errors.Is(err, department.ErrInvalidName):
			writeAdminError(w, http.StatusBadRequest, "name is required")
		default:
			slog.ErrorContext(r.Context(), "failed to update department", "error", err)
			writeAdminError(w, http.StatusInternalServerError, "failed to update department")
		}
		return
	}

	d, err := h.manager.GetByID(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get updated department", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to get department")
		return
	}

	writeJSON(w, http.StatusOK, toDepartmentResponse(d))
}

// Delete handles DELETE /admin/departments/{id}
func (h *AdminDepartmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, department.ErrNotFound) {
			writeAdminError(w, http.StatusNotFound, "department not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete department", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to delete department")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Renumber handles POST /admin/departments/renumber
func (h *AdminDepartmentsHandler) Renumber(w http.ResponseWriter, r *http.Request) {
	summary, err := h.renumber.Run(r.Context())
	if err != nil {
		writeAdminError(w, http.StatusInternalServerError, "failed to renumber departments")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
