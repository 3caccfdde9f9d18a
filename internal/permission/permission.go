// Package permission resolves project roles into capability sets.
//
// Sets are derived on every call and never stored, so a role change is
// visible on the very next request.
package permission

import "strings"

// Set is the fixed list of capabilities a role grants inside a project.
type Set struct {
	CanAddMember     bool `json:"canAddMember"`
	CanCreateTask    bool `json:"canCreateTask"`
	CanAssignTask    bool `json:"canAssignTask"`
	CanUpdateTask    bool `json:"canUpdateTask"`
	CanViewTask      bool `json:"canViewTask"`
	CanViewDashboard bool `json:"canViewDashboard"`
	CanBeNotified    bool `json:"canBeNotified"`
	CanViewHistory   bool `json:"canViewHistory"`
}

// Capability names a single field of Set.
type Capability string

const (
	AddMember     Capability = "canAddMember"
	CreateTask    Capability = "canCreateTask"
	AssignTask    Capability = "canAssignTask"
	UpdateTask    Capability = "canUpdateTask"
	ViewTask      Capability = "canViewTask"
	ViewDashboard Capability = "canViewDashboard"
	BeNotified    Capability = "canBeNotified"
	ViewHistory   Capability = "canViewHistory"
)

// Capabilities returns every capability in Set field order.
func Capabilities() []Capability {
	return []Capability{
		AddMember, CreateTask, AssignTask, UpdateTask,
		ViewTask, ViewDashboard, BeNotified, ViewHistory,
	}
}

// ParseCapability returns the capability with the given JSON name.
func ParseCapability(name string) (Capability, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Capabilities() {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

// readOnly is granted to observers and to any role we do not recognize.
var readOnly = Set{
	CanViewTask:      true,
	CanViewDashboard: true,
	CanBeNotified:    true,
	CanViewHistory:   true,
}

// ForRole returns the capability set of r.
func ForRole(r Role) Set {
	switch r {
	case RoleAdministrator:
		return Set{
			CanAddMember:     true,
			CanCreateTask:    true,
			CanAssignTask:    true,
			CanUpdateTask:    true,
			CanViewTask:      true,
			CanViewDashboard: true,
			CanBeNotified:    true,
			CanViewHistory:   true,
		}
	case RoleMember:
		return Set{
			CanCreateTask:    true,
			CanAssignTask:    true,
			CanUpdateTask:    true,
			CanViewTask:      true,
			CanViewDashboard: true,
			CanBeNotified:    true,
			CanViewHistory:   true,
		}
	case RoleObserver:
		return readOnly
	case RoleUnknown:
		return readOnly
	default:
		return readOnly
	}
}

// ByRole resolves a raw role label, as stored on a membership, into its set.
func ByRole(label string) Set {
	return ForRole(ParseRole(label))
}

// CanPerform reports whether the role label grants capability c.
func CanPerform(label string, c Capability) bool {
	return ByRole(label).Has(c)
}

// Has reports the value of the field named by c. Unknown capabilities are
// never granted.
func (s Set) Has(c Capability) bool {
	switch c {
	case AddMember:
		return s.CanAddMember
	case CreateTask:
		return s.CanCreateTask
	case AssignTask:
		return s.CanAssignTask
	case UpdateTask:
		return s.CanUpdateTask
	case ViewTask:
		return s.CanViewTask
	case ViewDashboard:
		return s.CanViewDashboard
	case BeNotified:
		return s.CanBeNotified
	case ViewHistory:
		return s.CanViewHistory
	default:
		return false
	}
}

// Count returns the number of granted capabilities.
func (s Set) Count() int {
	n := 0
	for _, c := range Capabilities() {
		if s.Has(c) {
			n++
		}
	}
	return n
}
