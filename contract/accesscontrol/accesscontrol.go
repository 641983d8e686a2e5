// Package accesscontrol is the authorization ledger the whole button
// family is gated on. One instance governs many contracts: Initializer
// roles are scoped to code hashes so future instances need no
// redeployment, Admin and Owner roles are scoped to instance addresses
// so operational and ownership privileges can be delegated separately.
package accesscontrol

import (
	"errors"
	"fmt"

	"thebutton/codec"
	"thebutton/sdk"
)

var (
	// ErrUnauthorized means the caller does not hold Admin over the
	// access control instance itself.
	ErrUnauthorized = errors.New("unauthorized")

	ErrUnknownMethod = errors.New("unknown method")
	ErrBadPayload    = errors.New("malformed payload")
)

// AccessControl dispatches the contract's entrypoints. The ledger
// holds one account per role: granting a held role to a new account
// displaces the previous holder.
type AccessControl struct{}

func New() sdk.Contract { return &AccessControl{} }

func roleKey(r Role) string { return "role:" + r.String() }

// Init makes the deployer the super-admin: the holder of Admin over
// this instance, which is the privilege grant_role and revoke_role
// check for.
func (ac *AccessControl) Init(h sdk.Host, payload string) error {
	deployer := h.Env().Sender
	self := Admin(h.Env().Contract)
	h.StateSet(roleKey(self), deployer.String())
	emitRoleGranted(h, deployer, self)
	return nil
}

func (ac *AccessControl) Call(h sdk.Host, method, payload string) (string, error) {
	switch method {
	case "grant_role":
		account, role, err := parseAccountRole(payload)
		if err != nil {
			return "", err
		}
		return "", ac.grantRole(h, account, role)
	case "revoke_role":
		account, role, err := parseAccountRole(payload)
		if err != nil {
			return "", err
		}
		return "", ac.revokeRole(h, account, role)
	case "has_role":
		account, role, err := parseAccountRole(payload)
		if err != nil {
			return "", err
		}
		return codec.FormatBool(ac.hasRole(h, account, role)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

func (ac *AccessControl) grantRole(h sdk.Host, account sdk.Address, role Role) error {
	if err := ac.requireSuperAdmin(h); err != nil {
		return err
	}
	key := roleKey(role)
	if prev := h.StateGet(key); prev != nil {
		if sdk.Address(*prev) == account {
			// idempotent: the account already holds the role
			return nil
		}
		emitRoleRevoked(h, sdk.Address(*prev), role)
	}
	h.StateSet(key, account.String())
	emitRoleGranted(h, account, role)
	return nil
}

func (ac *AccessControl) revokeRole(h sdk.Host, account sdk.Address, role Role) error {
	if err := ac.requireSuperAdmin(h); err != nil {
		return err
	}
	key := roleKey(role)
	prev := h.StateGet(key)
	if prev == nil || sdk.Address(*prev) != account {
		// revoking a role the account never held is a no-op success
		return nil
	}
	h.StateDelete(key)
	emitRoleRevoked(h, account, role)
	return nil
}

func (ac *AccessControl) hasRole(h sdk.Host, account sdk.Address, role Role) bool {
	holder := h.StateGet(roleKey(role))
	return holder != nil && sdk.Address(*holder) == account
}

func (ac *AccessControl) requireSuperAdmin(h sdk.Host) error {
	if !ac.hasRole(h, h.Env().Sender, Admin(h.Env().Contract)) {
		return ErrUnauthorized
	}
	return nil
}

func parseAccountRole(payload string) (sdk.Address, Role, error) {
	in := payload
	account := codec.NextField(&in)
	if account == "" || in == "" {
		return "", Role{}, ErrBadPayload
	}
	role, err := ParseRole(in)
	if err != nil {
		return "", Role{}, err
	}
	return sdk.Address(account), role, nil
}

// HasRole queries an access control instance from inside another
// contract. Every privileged entrypoint in the family goes through
// this read before touching state.
func HasRole(h sdk.Host, ac sdk.Address, account sdk.Address, role Role) (bool, error) {
	res, err := h.Call(ac, "has_role", account.String()+"|"+role.String())
	if err != nil {
		return false, fmt.Errorf("has_role query: %w", err)
	}
	return res == "true", nil
}
