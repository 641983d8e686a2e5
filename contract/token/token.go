// Package token is the fungible reward token shared by the button
// games. Amounts are u128 on the wire; every mutation is gated on a
// role held in the access control instance injected at construction,
// and all arithmetic is checked: the ledger fails closed instead of
// wrapping.
package token

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"thebutton/codec"
	"thebutton/contract/accesscontrol"
	"thebutton/sdk"
)

var (
	ErrMissingRole           = errors.New("missing role")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrOverflow              = errors.New("amount overflow")
	ErrPaused                = errors.New("token paused")
	ErrUnknownMethod         = errors.New("unknown method")
	ErrBadPayload            = errors.New("malformed payload")
)

const cfgVersion uint8 = 1

const (
	cfgKey    = "cfg"
	pausedKey = "paused"
	supplyKey = "supply"
)

func balanceKey(a sdk.Address) string { return "bal:" + a.String() }

func allowanceKey(owner, spender sdk.Address) string {
	return "alw:" + owner.String() + "|" + spender.String()
}

// Token dispatches the contract's entrypoints; all state lives in the
// host KV.
type Token struct{}

func New() sdk.Contract { return &Token{} }

// Init expects "access_control|initial_supply". Only the holder of
// Initializer over this code hash may instantiate; the initial supply
// is minted to the instantiator.
func (t *Token) Init(h sdk.Host, payload string) error {
	in := payload
	acAddr := sdk.Address(codec.NextField(&in))
	supplyField := codec.NextField(&in)
	if acAddr == "" || supplyField == "" || in != "" {
		return ErrBadPayload
	}
	supply, err := parseAmount(supplyField)
	if err != nil {
		return err
	}

	caller := h.Env().Sender
	ok, err := accesscontrol.HasRole(h, acAddr, caller, accesscontrol.Initializer(h.Env().Code))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: initializer(%s)", ErrMissingRole, h.Env().Code)
	}

	var cfg []byte
	cfg = codec.AppendByte(cfg, cfgVersion)
	cfg = codec.AppendString16(cfg, acAddr.String())
	h.StateSet(cfgKey, string(cfg))

	putAmount(h, supplyKey, supply)
	putAmount(h, balanceKey(caller), supply)
	emitMinted(h, caller, supply)
	return nil
}

func (t *Token) Call(h sdk.Host, method, payload string) (string, error) {
	switch method {
	case "mint":
		return "", t.mint(h, payload)
	case "transfer":
		return "", t.transfer(h, payload)
	case "approve":
		return "", t.approve(h, payload)
	case "transfer_from":
		return "", t.transferFrom(h, payload)
	case "set_paused":
		return "", t.setPaused(h, payload)
	case "balance_of":
		return getAmount(h, balanceKey(sdk.Address(payload))).Dec(), nil
	case "allowance":
		in := payload
		owner := sdk.Address(codec.NextField(&in))
		spender := sdk.Address(codec.NextField(&in))
		return getAmount(h, allowanceKey(owner, spender)).Dec(), nil
	case "total_supply":
		return getAmount(h, supplyKey).Dec(), nil
	case "paused":
		return codec.FormatBool(isPaused(h)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

// mint requires Admin over this instance and expands both the
// recipient's balance and the total supply.
func (t *Token) mint(h sdk.Host, payload string) error {
	in := payload
	to := sdk.Address(codec.NextField(&in))
	amount, err := parseAmount(in)
	if err != nil {
		return err
	}
	if isPaused(h) {
		return ErrPaused
	}
	if err := t.requireRole(h, accesscontrol.Admin(h.Env().Contract)); err != nil {
		return err
	}

	newSupply, err := checkedAdd(getAmount(h, supplyKey), amount)
	if err != nil {
		return err
	}
	newBalance, err := checkedAdd(getAmount(h, balanceKey(to)), amount)
	if err != nil {
		return err
	}

	putAmount(h, supplyKey, newSupply)
	putAmount(h, balanceKey(to), newBalance)
	emitMinted(h, to, amount)
	return nil
}

func (t *Token) transfer(h sdk.Host, payload string) error {
	in := payload
	to := sdk.Address(codec.NextField(&in))
	amount, err := parseAmount(in)
	if err != nil {
		return err
	}
	return t.move(h, h.Env().Sender, to, amount)
}

// approve sets (not adjusts) the caller's allowance for the spender.
func (t *Token) approve(h sdk.Host, payload string) error {
	in := payload
	spender := sdk.Address(codec.NextField(&in))
	amount, err := parseAmount(in)
	if err != nil {
		return err
	}
	if isPaused(h) {
		return ErrPaused
	}
	owner := h.Env().Sender
	putAmount(h, allowanceKey(owner, spender), amount)
	emitApproved(h, owner, spender, amount)
	return nil
}

func (t *Token) transferFrom(h sdk.Host, payload string) error {
	in := payload
	from := sdk.Address(codec.NextField(&in))
	to := sdk.Address(codec.NextField(&in))
	amount, err := parseAmount(in)
	if err != nil {
		return err
	}
	if isPaused(h) {
		return ErrPaused
	}

	spender := h.Env().Sender
	allowance := getAmount(h, allowanceKey(from, spender))
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := t.move(h, from, to, amount); err != nil {
		return err
	}
	putAmount(h, allowanceKey(from, spender), new(uint256.Int).Sub(allowance, amount))
	return nil
}

// move performs the balance-sheet update shared by transfer and
// transfer_from. All checks run before either balance is touched.
func (t *Token) move(h sdk.Host, from, to sdk.Address, amount *uint256.Int) error {
	if isPaused(h) {
		return ErrPaused
	}
	fromBal := getAmount(h, balanceKey(from))
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	toBal, err := checkedAdd(getAmount(h, balanceKey(to)), amount)
	if err != nil {
		return err
	}

	putAmount(h, balanceKey(from), new(uint256.Int).Sub(fromBal, amount))
	putAmount(h, balanceKey(to), toBal)
	emitTransferred(h, from, to, amount)
	return nil
}

// setPaused freezes or unfreezes every mutating operation. Owner-only;
// this is the switch that makes an in-flight reward distribution fail
// and exercise the retry path.
func (t *Token) setPaused(h sdk.Host, payload string) error {
	if payload != "true" && payload != "false" {
		return ErrBadPayload
	}
	if err := t.requireRole(h, accesscontrol.Owner(h.Env().Contract)); err != nil {
		return err
	}
	if payload == "true" {
		h.StateSet(pausedKey, "1")
	} else {
		h.StateDelete(pausedKey)
	}
	emitPaused(h, payload == "true")
	return nil
}

func (t *Token) requireRole(h sdk.Host, role accesscontrol.Role) error {
	ok, err := accesscontrol.HasRole(h, accessControlAddr(h), h.Env().Sender, role)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingRole, role)
	}
	return nil
}

func accessControlAddr(h sdk.Host) sdk.Address {
	ptr := h.StateGet(cfgKey)
	if ptr == nil {
		panic(codec.Corrupt("token config missing"))
	}
	r := codec.NewReader([]byte(*ptr))
	if r.U8() != cfgVersion {
		panic(codec.Corrupt("unsupported token config version"))
	}
	addr := sdk.Address(r.Str())
	r.MustEnd()
	return addr
}

func isPaused(h sdk.Host) bool {
	return h.StateGet(pausedKey) != nil
}
