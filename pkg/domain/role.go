package domain

import dErrors "notaria/pkg/domain-errors"

// Role is the authorization role carried by an authenticated principal.
// Invariant: the value is one of the roles below.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleGestor       Role = "gestor"
	RoleCliente      Role = "cliente"
	RoleCertificador Role = "certificador"
)

var validRoles = map[Role]bool{
	RoleAdmin:        true,
	RoleGestor:       true,
	RoleCliente:      true,
	RoleCertificador: true,
}

// ParseRole validates a role read from a token or request.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeValidation, "unknown role: "+s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role bypasses every permission table.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   UserID
	Role Role
}

// IsZero reports whether no principal was resolved.
func (p Principal) IsZero() bool {
	return p.ID.IsNil() && p.Role == ""
}
