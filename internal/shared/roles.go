package shared

// Role tags the closed set of principal kinds known to the portal.
type Role string

const (
	RoleStudent        Role = "student"
	RolePlacementStaff Role = "placement_staff"
	RoleAlumni         Role = "alumni"
	RoleAdmin          Role = "admin"
)

// Dashboard paths per role. HomePath is the single source for the
// role-to-redirect mapping consumed by the guard, the login flow, and the
// onboarding redirect.
const (
	StudentHome   = "/student/dashboard"
	PlacementHome = "/placement/dashboard"
	AlumniHome    = "/alumni/dashboard"
	LoginPath     = "/auth/login"
	RootPath      = "/"
)

var roleHomes = map[Role]string{
	RoleStudent:        StudentHome,
	RolePlacementStaff: PlacementHome,
	RoleAlumni:         AlumniHome,
}

// HomePath returns the dashboard path for a role. Unmapped roles land on
// the application root.
func HomePath(role Role) string {
	if path, ok := roleHomes[role]; ok {
		return path
	}
	return RootPath
}

// ParseRole validates a raw role tag against the closed set.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleStudent, RolePlacementStaff, RoleAlumni, RoleAdmin:
		return Role(raw), true
	}
	return "", false
}

// AllRoles lists every known role tag.
func AllRoles() []Role {
	return []Role{RoleStudent, RolePlacementStaff, RoleAlumni, RoleAdmin}
}
