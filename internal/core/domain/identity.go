package domain

import (
	"errors"
	"time"
)

const (
	// RoleUser is granted to every identity at creation.
	RoleUser = "USER"
	// RoleAdmin gates the credential administration endpoints.
	RoleAdmin = "ADMIN"
)

// DefaultRoles is the allowed role vocabulary when none is configured.
var DefaultRoles = []string{RoleUser, RoleAdmin}

var ErrIdentityNotFound = errors.New("identity not found")
var ErrDuplicateKey = errors.New("identity key already exists")
var ErrInvalidInput = errors.New("invalid input")
var ErrInvalidRole = errors.New("invalid role")
var ErrRoleAlreadyGranted = errors.New("role already granted")
var ErrRoleNotHeld = errors.New("role not held")
var ErrAuthFailed = errors.New("authentication failed")
var ErrForbidden = errors.New("access forbidden")
var ErrVersionConflict = errors.New("identity version conflict")

// Identity is an API credential record. The key is the public identifier a
// client sends with each request; the secret never leaves the server and is
// only used to recompute request digests.
type Identity struct {
	Key       string    `json:"key"`
	Secret    string    `json:"-"`
	Email     string    `json:"email"`
	Enabled   bool      `json:"enabled"`
	Roles     RoleSet   `json:"roles"`
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// View projects the identity into its externally visible shape. The secret is
// deliberately absent.
func (i *Identity) View() IdentityView {
	return IdentityView{
		Key:     i.Key,
		Email:   i.Email,
		Roles:   i.Roles.Names(),
		Enabled: i.Enabled,
	}
}

// Clone returns a deep copy so callers can mutate freely.
func (i *Identity) Clone() *Identity {
	clone := *i
	clone.Roles = i.Roles.Clone()
	return &clone
}

// IdentityView is the read model returned by lookups and listings.
type IdentityView struct {
	Key     string   `json:"key"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	Enabled bool     `json:"enabled"`
}
