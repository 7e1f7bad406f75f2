// Package idalloc derives sequential, prefix-scoped identifiers such as
// JCC-DEPT-001 or JCC-WRK-014 from the identifiers already in a table.
//
// The allocator holds no state. Callers pass the current identifiers on every
// call, so two callers working from the same snapshot get the same answer.
// Serializing allocate+insert is the caller's job.
package idalloc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MinWidth is the minimum number of digits in a sequence number.
const MinWidth = 3

// DepartmentPrefix is the identifier prefix for every department.
const DepartmentPrefix = "JCC-DEPT-"

// Member type codes, keyed by the member type they are derived from.
const (
	CodeWorker    = "WRK"
	CodeVolunteer = "VOL"
	CodeMember    = "MBR"
)

// TypeCode maps a member type onto its identifier code. Any type other than
// Worker or Volunteer is a plain member.
func TypeCode(memberType string) string {
	switch memberType {
	case "Worker":
		return CodeWorker
	case "Volunteer":
		return CodeVolunteer
	default:
		return CodeMember
	}
}

// MemberPrefix returns the identifier prefix for a member type, e.g. "JCC-WRK-".
func MemberPrefix(memberType string) string {
	return "JCC-" + TypeCode(memberType) + "-"
}

// TypeSegment returns the second hyphen-delimited segment of id, or "" when
// there is none.
func TypeSegment(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// Format renders prefix followed by n, zero-padded to MinWidth digits. Values
// that need more digits are rendered in full.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s%0*d", prefix, MinWidth, n)
}

// Parse extracts the sequence number from id. It reports false when id is not
// prefix followed by digits only.
func Parse(prefix, id string) (int, bool) {
	m := pattern(prefix).FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Max returns the largest sequence number among ids that pass inScope.
// Identifiers that do not parse count as 0. A nil inScope accepts everything.
func Max(prefix string, ids []string, inScope func(id string) bool) int {
	re := pattern(prefix)
	highest := 0
	for _, id := range ids {
		if inScope != nil && !inScope(id) {
			continue
		}
		m := re.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// Next returns the identifier that follows the highest in-scope identifier, or
// the first identifier (sequence 1) when none exists.
func Next(prefix string, ids []string, inScope func(id string) bool) string {
	return Format(prefix, Max(prefix, ids, inScope)+1)
}

// SegmentScope returns a scope that accepts identifiers whose TypeSegment is code.
func SegmentScope(code string) func(id string) bool {
	return func(id string) bool {
		return TypeSegment(id) == code
	}
}

func pattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)$`)
}
