package handler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jccadmin/internal/member"
)

// AdminMembersHandler handles admin operations for members.
type AdminMembersHandler struct {
	manager *member.Manager
}

// NewAdminMembersHandler creates a new admin members handler.
func NewAdminMembersHandler(manager *member.Manager) *AdminMembersHandler {
	return &AdminMembersHandler{manager: manager}
}

type personalDetailsRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	MiddleName  string `json:"middleName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"max=32"`
	HouseNumber string `json:"houseNumber"`
	StreetName  string `json:"streetName"`
	BusStop     string `json:"busStop"`
	City        string `json:"city"`
	State       string `json:"state"`
	Photo       string `json:"photo"`
}

type departmentRoleRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
	Role string `json:"role"`
}

type churchDetailsRequest struct {
	MemberType  string                  `json:"memberType" validate:"required"`
	Status      string                  `json:"status"`
	Departments []departmentRoleRequest `json:"departments" validate:"dive"`
}

type memberRequest struct {
	PersonalDetails personalDetailsRequest `json:"personalDetails"`
	ChurchDetails   churchDetailsRequest   `json:"churchDetails"`
}

func (req memberRequest) toMember(id string) *member.Member {
	p, c := req.PersonalDetails, req.ChurchDetails

	roles := make([]member.DepartmentRole, len(c.Departments))
	for i, d := range c.Departments {
		roles[i] = member.DepartmentRole{ID: d.ID, Name: d.Name, Role: d.Role}
	}

	return &member.Member{
		ID: id,
		PersonalDetails: member.PersonalDetails{
			FirstName:   p.FirstName,
			MiddleName:  p.MiddleName,
			LastName:    p.LastName,
			Phone:       p.Phone,
			HouseNumber: p.HouseNumber,
			StreetName:  p.StreetName,
			BusStop:     p.BusStop,
			City:        p.City,
			State:       p.State,
			Photo:       p.Photo,
		},
		ChurchDetails: member.ChurchDetails{
			MemberType:  c.MemberType,
			Status:      c.Status,
			Departments: roles,
		},
	}
}

// List handles GET /admin/members. Query parameters filter by column.
func (h *AdminMembersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := member.Filter{
		ID:          q.Get("id"),
		Name:        q.Get("name"),
		Phone:       q.Get("phone"),
		Address:     q.Get("address"),
		MemberType:  q.Get("memberType"),
		Status:      q.Get("status"),
		Departments: q.Get("departments"),
	}

	members := h.manager.Search(r.Context(), filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"members": members,
		"count":   len(members),
	})
}

// Get handles GET /admin/members/{id}
func (h *AdminMembersHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			writeAdminError(w, http.StatusNotFound, "member not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to get member", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to get member")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// Create handles POST /admin/members
func (h *AdminMembersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.manager.Create(r.Context(), req.toMember(""))
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create member", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	writeJSON(w, http.StatusCreated, m)
}

// Update handles PUT /admin/members/{id}
func (h *AdminMembersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.manager.Update(r.Context(), req.toMember(id)); err != nil {
		if errors.Is(err, member.ErrNotFound) {
			writeAdminError(w, http.StatusNotFound, "member not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to update member", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	m, err := h.manager.GetByID(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get updated member", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to get member")
		return
	}

	writeJSON(w, http.StatusOK, m)
}

// Delete handles DELETE /admin/members/{id}
func (h *AdminMembersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, member.ErrNotFound) {
			writeAdminError(w, http.StatusNotFound, "member not found")
			return
		}
		slog.ErrorContext(r.Context(), "failed to delete member", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to delete member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /admin/members/export?ids=a,b. Without ids every member
// is exported.
func (h *AdminMembersHandler) Export(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}

	// Buffered so a store failure can still become a JSON error.
	var buf bytes.Buffer
	n, err := h.manager.Export(r.Context(), &buf, ids)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to export members", "error", err)
		writeAdminError(w, http.StatusInternalServerError, "failed to export members")
		return
	}

	filename := fmt.Sprintf("jcc-members-%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Member-Count", fmt.Sprint(n))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}
