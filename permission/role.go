package permission

import (
	"errors"
	"strings"
)

// Role is the single role assigned to an account.
type Role uint8

const (
	// RoleInvalid is the zero value and never assigned to an account.
	RoleInvalid Role = iota
	// RoleCliente is a customer placing orders.
	RoleCliente
	// RoleRestaurante is a restaurant operator.
	RoleRestaurante
	// RoleEntregador is a courier.
	RoleEntregador
	// RoleAdmin is a platform administrator.
	RoleAdmin
)

const authorityPrefix = "ROLE_"

// ErrUnknownRole is returned when a role name is outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

var roleNames = [...]string{
	RoleInvalid:     "",
	RoleCliente:     "CLIENTE",
	RoleRestaurante: "RESTAURANTE",
	RoleEntregador:  "ENTREGADOR",
	RoleAdmin:       "ADMIN",
}

// Roles returns every valid role in declaration order.
func Roles() []Role {
	return []Role{RoleCliente, RoleRestaurante, RoleEntregador, RoleAdmin}
}

// ParseRole resolves a role name. Matching is case-insensitive and accepts the
// ROLE_ authority prefix, so both "cliente" and "ROLE_CLIENTE" yield RoleCliente.
func ParseRole(name string) (Role, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, authorityPrefix)
	if name == "" {
		return RoleInvalid, ErrUnknownRole
	}
	for _, r := range Roles() {
		if roleNames[r] == name {
			return r, nil
		}
	}
	return RoleInvalid, ErrUnknownRole
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r > RoleInvalid && int(r) < len(roleNames)
}

// String returns the role name, or "INVALID" for values outside the set.
func (r Role) String() string {
	if !r.Valid() {
		return "INVALID"
	}
	return roleNames[r]
}

// Authority returns the string authority carried by downstream authorization,
// e.g. "ROLE_ADMIN". Invalid roles have no authority.
func (r Role) Authority() string {
	if !r.Valid() {
		return ""
	}
	return authorityPrefix + roleNames[r]
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrUnknownRole
	}
	return []byte(roleNames[r]), nil
}

// UnmarshalText decodes a role name produced by MarshalText or ParseRole input.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
