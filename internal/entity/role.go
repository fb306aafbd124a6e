package entity

import "strings"

// Role is the user's access level. Higher levels include the lower ones.
type Role int

const (
	RoleVisitor    Role = 1
	RoleMember     Role = 2
	RoleResearcher Role = 3
	RoleAdmin      Role = 4
)

var roleNames = map[Role]string{
	RoleVisitor:    "Visitor",
	RoleMember:     "Member",
	RoleResearcher: "Researcher",
	RoleAdmin:      "Admin",
}

// Effective treats a missing role as Visitor.
func (r Role) Effective() Role {
	if r < RoleVisitor {
		return RoleVisitor
	}
	return r
}

func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) Name() string {
	if name, ok := roleNames[r.Effective()]; ok {
		return name
	}
	return "Unknown"
}

func (r Role) AtLeast(required Role) bool {
	return r.Effective() >= required
}

// ParseRole accepts a role name in any case.
func ParseRole(name string) (Role, bool) {
	for role, n := range roleNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return role, true
		}
	}
	return 0, false
}

// Roles lists every level in ascending order.
func Roles() []Role {
	return []Role{RoleVisitor, RoleMember, RoleResearcher, RoleAdmin}
}
