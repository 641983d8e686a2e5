// Package button is the round state machine shared by the game family.
// One implementation serves every variant; the scoring policy is
// selected by the code the instance was built from. A round is a
// bounded lifetime of presses ending in a single terminal death
// transition that finalizes scores and pays out the token pool.
package button

import (
	"errors"
	"fmt"

	"thebutton/codec"
	"thebutton/contract/accesscontrol"
	"thebutton/sdk"
)

var (
	ErrMissingRole    = errors.New("missing role")
	ErrBeforeStart    = errors.New("round not started")
	ErrAlreadyDead    = errors.New("round already dead")
	ErrNotDead        = errors.New("round still alive")
	ErrNotWhitelisted = errors.New("not whitelisted")
	ErrOverflow       = errors.New("score overflow")
	ErrTransferFailed = errors.New("reward transfer failed")
	ErrUnknownMethod  = errors.New("unknown method")
	ErrBadPayload     = errors.New("malformed payload")
)

// Button dispatches one round. The variant is burned into the code the
// instance was built from, not stored state.
type Button struct {
	variant Variant
}

func New(v Variant) sdk.Contract { return &Button{variant: v} }

// Factory adapts New for code registration.
func Factory(v Variant) func() sdk.Contract {
	return func() sdk.Contract { return New(v) }
}

// Init expects "access_control|token|lifetime[|start_delay]" with
// durations in seconds. Only the holder of Initializer over this code
// hash may instantiate. The round is alive from start to deadline.
func (b *Button) Init(h sdk.Host, payload string) error {
	in := payload
	acAddr := sdk.Address(codec.NextField(&in))
	tokenAddr := sdk.Address(codec.NextField(&in))
	lifetimeField := codec.NextField(&in)
	if acAddr == "" || tokenAddr == "" || lifetimeField == "" {
		return ErrBadPayload
	}
	lifetime, err := codec.ParseU64(lifetimeField)
	if err != nil || lifetime == 0 {
		return ErrBadPayload
	}
	var startDelay uint64
	if in != "" {
		startDelay, err = codec.ParseU64(codec.NextField(&in))
		if err != nil || in != "" {
			return ErrBadPayload
		}
	}

	caller := h.Env().Sender
	ok, err := accesscontrol.HasRole(h, acAddr, caller, accesscontrol.Initializer(h.Env().Code))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: initializer(%s)", ErrMissingRole, h.Env().Code)
	}

	now := codec.ParseISO8601(h.Env().Timestamp)
	m := &meta{
		accessControl: acAddr,
		token:         tokenAddr,
		start:         now + startDelay,
		deadline:      now + startDelay + lifetime,
		lifetime:      lifetime,
	}
	saveMeta(h, m)
	saveState(h, &state{owner: caller})

	emitCreated(h, b.variant, m)
	return nil
}

func (b *Button) Call(h sdk.Host, method, payload string) (string, error) {
	switch method {
	case "press":
		return "", b.press(h)
	case "distribute":
		return "", b.distribute(h)
	case "allow":
		return "", b.setAllowed(h, payload, true)
	case "disallow":
		return "", b.setAllowed(h, payload, false)
	case "bulk_allow":
		return "", b.bulkAllow(h, payload)
	case "transfer_ownership":
		return "", b.transferOwnership(h, payload)
	case "is_dead":
		return codec.FormatBool(loadState(h).isDead), nil
	case "deadline":
		return codec.FormatU64(loadMeta(h).deadline), nil
	case "start":
		return codec.FormatU64(loadMeta(h).start), nil
	case "score_of":
		return codec.FormatU64(scoreOf(h, sdk.Address(payload))), nil
	case "last_presser":
		return loadState(h).lastPresser.String(), nil
	case "press_count":
		return codec.FormatU64(loadState(h).pressCount), nil
	case "distribution_pending":
		plan := loadPlan(h)
		return codec.FormatBool(plan != nil && !plan.completed), nil
	case "owner":
		return loadState(h).owner.String(), nil
	case "variant":
		return b.variant.String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownMethod, method)
}

// press is the core transition. While the round is alive and the
// deadline has not passed, it records a scored press; the first press
// observed at or after the deadline triggers death instead, and is
// itself not scored.
func (b *Button) press(h sdk.Host) error {
	m := loadMeta(h)
	st := loadState(h)
	caller := h.Env().Sender
	now := codec.ParseISO8601(h.Env().Timestamp)

	if st.isDead {
		return ErrAlreadyDead
	}
	if now < m.start {
		return ErrBeforeStart
	}
	if st.whitelistSize > 0 && !isWhitelisted(h, caller) {
		return ErrNotWhitelisted
	}
	if now >= m.deadline {
		return b.die(h, m, st, now)
	}

	weight := b.variant.weight(now, m.start, m.deadline)
	// the caller's score is bounded by the total, so checking the
	// total covers both accumulators
	if st.totalScores+weight < st.totalScores {
		return ErrOverflow
	}
	if h.StateGet(scoreKey(caller)) == nil {
		// first press by this account: record its position so the
		// distribution order and the tie-break stay stable
		h.StateSet(presserKey(st.presserCount), caller.String())
		st.presserCount++
	}
	setScore(h, caller, scoreOf(h, caller)+weight)

	st.lastPresser = caller
	st.pressCount++
	st.totalScores += weight
	saveState(h, st)

	emitPressed(h, caller, now, weight)
	return nil
}

// die commits the terminal transition, persists the payout plan, and
// then attempts the payouts. The commit is unconditional: a failed
// transfer halts the distribution for this call but never un-triggers
// death, and the press that caused it still succeeds.
func (b *Button) die(h sdk.Host, m *meta, st *state, now uint64) error {
	st.isDead = true
	saveState(h, st)

	plan, pool, pressiah, err := b.buildPlan(h, m, st)
	if err != nil {
		return err
	}
	savePlan(h, plan)
	emitDied(h, now, pool, pressiah, st)

	// best effort; a halt is observable via distribution_pending and
	// retriable through distribute
	_ = b.runPlan(h, m, plan)
	return nil
}

// distribute re-attempts a halted payout plan from its cursor. The
// attempt is atomic: if a transfer fails, the frame discards both the
// transfers and the cursor advance of this attempt, so a later retry
// can never double-pay.
func (b *Button) distribute(h sdk.Host) error {
	st := loadState(h)
	if !st.isDead {
		return ErrNotDead
	}
	plan := loadPlan(h)
	if plan == nil || plan.completed {
		return nil
	}
	m := loadMeta(h)
	if err := b.runPlan(h, m, plan); err != nil {
		return err
	}
	return nil
}

// runPlan pays entries from the cursor forward, persisting progress
// after every success so a mid-plan halt resumes where it stopped.
func (b *Button) runPlan(h sdk.Host, m *meta, plan *payoutPlan) error {
	for int(plan.cursor) < len(plan.entries) {
		e := plan.entries[plan.cursor]
		_, err := h.Call(m.token, "transfer", e.account.String()+"|"+e.amount.Dec())
		if err != nil {
			savePlan(h, plan)
			emitDistributionHalted(h, plan.cursor, err)
			return fmt.Errorf("%w: %s: %v", ErrTransferFailed, e.account, err)
		}
		plan.cursor++
	}
	plan.completed = true
	savePlan(h, plan)
	emitDistributionCompleted(h, uint16(len(plan.entries)))
	return nil
}

// setAllowed adds or removes one account from the whitelist. Admin
// only; once the round is dead the call is a no-op success, since it
// cannot affect the outcome anymore.
func (b *Button) setAllowed(h sdk.Host, payload string, allowed bool) error {
	account := sdk.Address(payload)
	if account == "" {
		return ErrBadPayload
	}
	if err := b.requireRole(h, accesscontrol.Admin(h.Env().Contract)); err != nil {
		return err
	}
	st := loadState(h)
	if st.isDead {
		return nil
	}
	if b.applyAllowed(h, st, account, allowed) {
		saveState(h, st)
	}
	return nil
}

func (b *Button) bulkAllow(h sdk.Host, payload string) error {
	if payload == "" {
		return ErrBadPayload
	}
	if err := b.requireRole(h, accesscontrol.Admin(h.Env().Contract)); err != nil {
		return err
	}
	st := loadState(h)
	if st.isDead {
		return nil
	}
	changed := false
	in := payload
	for in != "" {
		account := sdk.Address(codec.NextField(&in))
		if account == "" {
			return ErrBadPayload
		}
		if b.applyAllowed(h, st, account, true) {
			changed = true
		}
	}
	if changed {
		saveState(h, st)
	}
	return nil
}

func (b *Button) applyAllowed(h sdk.Host, st *state, account sdk.Address, allowed bool) bool {
	key := whitelistKey(account)
	present := h.StateGet(key) != nil
	switch {
	case allowed && !present:
		h.StateSet(key, "1")
		st.whitelistSize++
		emitAllowed(h, account)
		return true
	case !allowed && present:
		h.StateDelete(key)
		st.whitelistSize--
		emitDisallowed(h, account)
		return true
	}
	return false
}

// transferOwnership re-points the stored owner reference. The Owner
// role itself lives in access control and moves by re-grant there;
// this keeps the instance's own record in step with the original's
// OwnershipTransferred event.
func (b *Button) transferOwnership(h sdk.Host, payload string) error {
	to := sdk.Address(payload)
	if to == "" {
		return ErrBadPayload
	}
	if err := b.requireRole(h, accesscontrol.Owner(h.Env().Contract)); err != nil {
		return err
	}
	st := loadState(h)
	from := st.owner
	st.owner = to
	saveState(h, st)
	emitOwnershipTransferred(h, from, to)
	return nil
}

func (b *Button) requireRole(h sdk.Host, role accesscontrol.Role) error {
	m := loadMeta(h)
	ok, err := accesscontrol.HasRole(h, m.accessControl, h.Env().Sender, role)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingRole, role)
	}
	return nil
}
