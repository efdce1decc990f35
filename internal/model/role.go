package model

// Role is the closed set of account types in the portal
type Role string

const (
	RoleVisitor     Role = "visitor"
	RoleCandidate   Role = "candidate"
	RoleNewEmployee Role = "new_employee"
	RoleEmployee    Role = "employee"
	RoleManager     Role = "manager"
	RoleCEO         Role = "ceo"
	RoleAdmin       Role = "admin"
)

// landingPaths maps each role to its dashboard entry point
var landingPaths = map[Role]string{
	RoleVisitor:     "/dashboard/visitor",
	RoleCandidate:   "/dashboard/candidate",
	RoleNewEmployee: "/dashboard/new-employee",
	RoleEmployee:    "/dashboard/employee",
	RoleManager:     "/dashboard/manager",
	RoleCEO:         "/dashboard/ceo",
	RoleAdmin:       "/admin",
}

// LandingPath returns the dashboard path for the role. Unknown or empty
// roles land on the visitor dashboard.
func (r Role) LandingPath() string {
	if path, ok := landingPaths[r]; ok {
		return path
	}
	return landingPaths[RoleVisitor]
}

// Valid reports whether r is a member of the role enum.
func (r Role) Valid() bool {
	_, ok := landingPaths[r]
	return ok
}

// CanDecideLeave reports whether the role may approve or reject leave requests.
func (r Role) CanDecideLeave() bool {
	switch r {
	case RoleManager, RoleCEO, RoleAdmin:
		return true
	}
	return false
}

// ParseRole converts a stored role string to a Role, defaulting to visitor.
func ParseRole(s string) Role {
	r := Role(s)
	if r.Valid() {
		return r
	}
	return RoleVisitor
}
