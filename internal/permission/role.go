package permission

import "strings"

// Role is a project-scoped role label.
type Role string

const (
	RoleAdministrator Role = "ADMINISTRATEUR"
	RoleMember        Role = "MEMBRE"
	RoleObserver      Role = "OBSERVATEUR"

	// RoleUnknown covers empty and unrecognized labels. It resolves to the
	// most restrictive permission set.
	RoleUnknown Role = ""
)

// English spellings accepted alongside the canonical ones.
var roleAliases = map[string]Role{
	"ADMINISTRATEUR": RoleAdministrator,
	"ADMINISTRATOR":  RoleAdministrator,
	"MEMBRE":         RoleMember,
	"MEMBER":         RoleMember,
	"OBSERVATEUR":    RoleObserver,
	"OBSERVER":       RoleObserver,
}

// Roles returns the known roles from most to least privileged.
func Roles() []Role {
	return []Role{RoleAdministrator, RoleMember, RoleObserver}
}

// ParseRole matches label case-insensitively against the known roles.
// Anything else, including the empty string, is RoleUnknown.
func ParseRole(label string) Role {
	if r, ok := roleAliases[strings.ToUpper(strings.TrimSpace(label))]; ok {
		return r
	}
	return RoleUnknown
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdministrator, RoleMember, RoleObserver:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "UNKNOWN"
	}
	return string(r)
}
