package member

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportHeader is the first CSV record written by Export.
var ExportHeader = []string{
	"ID", "First Name", "Middle Name", "Last Name", "Phone", "Address",
	"Member Type", "Status", "Departments", "Created At",
}

// Export writes members as CSV to w. When ids is empty every member is
// written; otherwise only the listed ones, in list order. Unknown ids are
// skipped. Unlike List, a store failure is returned so a partial file is
// never mistaken for a complete one.
func (m *Manager) Export(ctx context.Context, w io.Writer, ids []string) (int, error) {
	members, err := m.ds.List(ctx)
	m.metrics.ObserveStore(table, "list", err)
	if err != nil {
		return 0, fmt.Errorf("failed to list members: %w", err)
	}

	var want map[string]bool
	if len(ids) > 0 {
		want = make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	written := 0
	for _, mem := range members {
		if want != nil && !want[mem.ID] {
			continue
		}
		if err := cw.Write(exportRecord(mem)); err != nil {
			return written, fmt.Errorf("failed to write member %s: %w", mem.ID, err)
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, fmt.Errorf("failed to flush csv: %w", err)
	}
	return written, nil
}

func exportRecord(mem *Member) []string {
	p, c := mem.PersonalDetails, mem.ChurchDetails

	depts := make([]string, 0, len(c.Departments))
	for _, d := range c.Departments {
		if d.Role != "" {
			depts = append(depts, fmt.Sprintf("%s (%s)", d.Name, d.Role))
		} else {
			depts = append(depts, d.Name)
		}
	}

	return []string{
		mem.ID,
		p.FirstName,
		p.MiddleName,
		p.LastName,
		p.Phone,
		p.Address(),
		c.MemberType,
		c.EffectiveStatus(),
		strings.Join(depts, "; "),
		mem.CreatedAt.UTC().Format(time.RFC3339),
	}
}
