package member

import (
	"strings"
	"time"
)

// Member types recognised when deriving an ID prefix. Any other value is
// filed under the plain member prefix.
const (
	TypeWorker    = "Worker"
	TypeVolunteer = "Volunteer"
	TypeMember    = "Member"
)

// DefaultStatus is reported for members whose status was never set.
const DefaultStatus = "Active"

// PersonalDetails is stored as an opaque JSON document.
type PersonalDetails struct {
	FirstName   string `json:"firstName"`
	MiddleName  string `json:"middleName"`
	LastName    string `json:"lastName"`
	Phone       string `json:"phone"`
	HouseNumber string `json:"houseNumber"`
	StreetName  string `json:"streetName"`
	BusStop     string `json:"busStop"`
	City        string `json:"city"`
	State       string `json:"state"`
	Photo       string `json:"photo,omitempty"`
}

// FullName joins the non-empty name parts with single spaces.
func (p PersonalDetails) FullName() string {
	return joinNonEmpty(p.FirstName, p.MiddleName, p.LastName)
}

// Address joins the non-empty address parts with single spaces.
func (p PersonalDetails) Address() string {
	return joinNonEmpty(p.HouseNumber, p.StreetName, p.BusStop, p.City, p.State)
}

// DepartmentRole is a member's copy of a department membership. It is
// embedded in the member row, so department renumbering must rewrite it.
type DepartmentRole struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// ChurchDetails holds church-side attributes. MemberType fixes the ID prefix
// at creation; changing it later leaves the ID as it was.
type ChurchDetails struct {
	MemberType  string           `json:"memberType"`
	Status      string           `json:"status,omitempty"`
	Departments []DepartmentRole `json:"departments"`
}

// EffectiveStatus returns the trimmed status, or DefaultStatus when unset.
func (c ChurchDetails) EffectiveStatus() string {
	if s := strings.TrimSpace(c.Status); s != "" {
		return s
	}
	return DefaultStatus
}

// Member is one row of the members table.
type Member struct {
	ID              string          `json:"id"`
	PersonalDetails PersonalDetails `json:"personalDetails"`
	ChurchDetails   ChurchDetails   `json:"churchDetails"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
