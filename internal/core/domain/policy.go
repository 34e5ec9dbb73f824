package domain

// Policy is the authorization requirement attached to an operation. A public
// policy bypasses authentication entirely; a restricted policy requires the
// authenticated identity to hold at least one of the required roles.
type Policy struct {
	public   bool
	required RoleSet
}

// Public returns a policy that allows every request without authentication.
func Public() Policy {
	return Policy{public: true}
}

// Restricted returns a policy satisfied by any one of the given roles.
func Restricted(roles ...string) Policy {
	return Policy{required: NewRoleSet(roles...)}
}

// IsPublic reports whether the policy skips authentication.
func (p Policy) IsPublic() bool {
	return p.public
}

// RequiredRoles returns the roles that satisfy the policy.
func (p Policy) RequiredRoles() []string {
	return p.required.Names()
}

// Authorize decides whether an identity holding the given roles may invoke
// the operation. The intersection test gives OR semantics: holding any single
// required role is enough.
func (p Policy) Authorize(roles RoleSet) error {
	if p.public {
		return nil
	}
	if roles.Intersects(p.required) {
		return nil
	}
	return ErrForbidden
}
