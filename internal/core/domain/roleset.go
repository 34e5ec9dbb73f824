package domain

import "encoding/json"

// RoleSet holds an identity's granted roles. It preserves grant order so that
// role listings stay stable across reads, while rejecting duplicate grants
// and absent revocations explicitly instead of silently no-opping.
type RoleSet struct {
	names []string
}

// NewRoleSet builds a set from the given roles, dropping duplicates.
func NewRoleSet(roles ...string) RoleSet {
	var rs RoleSet
	for _, r := range roles {
		_ = rs.Add(r)
	}
	return rs
}

// Has reports whether the role is held.
func (rs RoleSet) Has(role string) bool {
	for _, r := range rs.names {
		if r == role {
			return true
		}
	}
	return false
}

// Add grants a role. Granting an already-held role is an error, not a no-op.
func (rs *RoleSet) Add(role string) error {
	if rs.Has(role) {
		return ErrRoleAlreadyGranted
	}
	rs.names = append(rs.names, role)
	return nil
}

// Remove revokes a role. Revoking an absent role is an error, not a no-op.
func (rs *RoleSet) Remove(role string) error {
	for i, r := range rs.names {
		if r == role {
			rs.names = append(rs.names[:i], rs.names[i+1:]...)
			return nil
		}
	}
	return ErrRoleNotHeld
}

// Intersects reports whether any role in the set is also in other.
func (rs RoleSet) Intersects(other RoleSet) bool {
	for _, r := range other.names {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

// Names returns the roles in grant order. The slice is a copy.
func (rs RoleSet) Names() []string {
	out := make([]string, len(rs.names))
	copy(out, rs.names)
	return out
}

// Len returns the number of roles held.
func (rs RoleSet) Len() int {
	return len(rs.names)
}

// Clone returns an independent copy of the set.
func (rs RoleSet) Clone() RoleSet {
	return NewRoleSet(rs.names...)
}

// MarshalJSON renders the set as a plain JSON array of role names.
func (rs RoleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(rs.Names())
}

// UnmarshalJSON rebuilds the set from a JSON array of role names.
func (rs *RoleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*rs = NewRoleSet(names...)
	return nil
}
