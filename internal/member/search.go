package member

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// Filter selects members by per-column substring. Empty fields match
// everything; all non-empty fields must match.
type Filter struct {
	ID          string
	Name        string
	Phone       string
	Address     string
	MemberType  string
	Status      string
	Departments string
}

// IsZero reports whether f has no column set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches reports whether mem satisfies every non-empty column of f,
// compared case-insensitively. Departments matches on either a department
// name or the member's role in it.
func (f Filter) Matches(mem *Member) bool {
	fold := cases.Fold()
	contains := func(haystack, needle string) bool {
		needle = strings.TrimSpace(needle)
		if needle == "" {
			return true
		}
		return strings.Contains(fold.String(haystack), fold.String(needle))
	}

	p, c := mem.PersonalDetails, mem.ChurchDetails
	if !contains(mem.ID, f.ID) ||
		!contains(p.FullName(), f.Name) ||
		!contains(p.Phone, f.Phone) ||
		!contains(p.Address(), f.Address) ||
		!contains(c.MemberType, f.MemberType) ||
		!contains(c.EffectiveStatus(), f.Status) {
		return false
	}

	if strings.TrimSpace(f.Departments) == "" {
		return true
	}
	for _, d := range c.Departments {
		if contains(d.Name, f.Departments) || contains(d.Role, f.Departments) {
			return true
		}
	}
	return false
}

// Search returns the members matching f, newest first. It reads through List
// and so fails open.
func (m *Manager) Search(ctx context.Context, f Filter) []*Member {
	all := m.List(ctx)
	if f.IsZero() {
		return all
	}

	matched := []*Member{}
	for _, mem := range all {
		if f.Matches(mem) {
			matched = append(matched, mem)
		}
	}
	return matched
}
