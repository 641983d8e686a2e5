package accesscontrol

import (
	"errors"
	"strings"

	"thebutton/sdk"
)

// RoleKind discriminates the capability a role grants.
type RoleKind uint8

const (
	// KindInitializer may instantiate contracts built from a code hash.
	KindInitializer RoleKind = 1
	// KindAdmin may perform operational actions on an instance.
	KindAdmin RoleKind = 2
	// KindOwner may reconfigure or retire an instance.
	KindOwner RoleKind = 3
)

var ErrBadRole = errors.New("malformed role")

// Role is a capability bound to a scope. Initializer roles carry a
// code-hash scope, Admin and Owner roles a contract-address scope.
type Role struct {
	Kind RoleKind
	Code sdk.CodeHash // set for KindInitializer
	Addr sdk.Address  // set for KindAdmin / KindOwner
}

func Initializer(code sdk.CodeHash) Role { return Role{Kind: KindInitializer, Code: code} }
func Admin(addr sdk.Address) Role        { return Role{Kind: KindAdmin, Addr: addr} }
func Owner(addr sdk.Address) Role        { return Role{Kind: KindOwner, Addr: addr} }

// String renders the wire form "kind:scope" used in payloads and
// storage keys.
func (r Role) String() string {
	switch r.Kind {
	case KindInitializer:
		return "initializer:" + r.Code.String()
	case KindAdmin:
		return "admin:" + r.Addr.String()
	case KindOwner:
		return "owner:" + r.Addr.String()
	}
	return "invalid"
}

// ParseRole reads the wire form back into a Role.
func ParseRole(s string) (Role, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return Role{}, ErrBadRole
	}
	kind, scope := s[:i], s[i+1:]
	if scope == "" {
		return Role{}, ErrBadRole
	}
	switch kind {
	case "initializer":
		return Initializer(sdk.CodeHash(scope)), nil
	case "admin":
		return Admin(sdk.Address(scope)), nil
	case "owner":
		return Owner(sdk.Address(scope)), nil
	}
	return Role{}, ErrBadRole
}
