package button

import (
	"fmt"

	"github.com/holiman/uint256"

	"thebutton/codec"
	"thebutton/sdk"
)

// The payout plan is computed once at death from the round's token
// balance and persisted with a cursor, so the physical transfers can
// halt and resume without ever re-scoring or double-paying.

const planVersion uint8 = 1

const planKey = "plan"

type payoutEntry struct {
	account sdk.Address
	amount  *uint256.Int
}

type payoutPlan struct {
	completed bool
	cursor    uint16
	entries   []payoutEntry
}

// buildPlan fixes the distribution: the Pressiah bonus is half the
// pool, the remainder goes to participants pro rata by score with
// truncating division, and the truncation dust is folded into the
// Pressiah transfer so the paid total equals the pool exactly.
func (b *Button) buildPlan(h sdk.Host, m *meta, st *state) (*payoutPlan, *uint256.Int, sdk.Address, error) {
	res, err := h.Call(m.token, "balance_of", h.Env().Contract.String())
	if err != nil {
		return nil, nil, "", fmt.Errorf("pool query: %w", err)
	}
	pool, err := uint256.FromDecimal(res)
	if err != nil {
		return nil, nil, "", fmt.Errorf("pool query: %w", err)
	}

	plan := &payoutPlan{}
	if pool.IsZero() || st.presserCount == 0 {
		plan.completed = true
		return plan, pool, "", nil
	}

	pressiah := b.pressiah(h, st)
	bonus := new(uint256.Int).Div(pool, uint256.NewInt(2))
	remaining := new(uint256.Int).Sub(pool, bonus)
	totalScores := uint256.NewInt(st.totalScores)

	distributed := uint256.NewInt(0)
	for i := uint64(0); i < st.presserCount; i++ {
		account := presserAt(h, i)
		score := uint256.NewInt(scoreOf(h, account))
		amount := new(uint256.Int).Div(new(uint256.Int).Mul(remaining, score), totalScores)
		if amount.IsZero() {
			continue
		}
		plan.entries = append(plan.entries, payoutEntry{account: account, amount: amount})
		distributed.Add(distributed, amount)
	}

	// bonus + truncation dust, paid last
	dust := new(uint256.Int).Sub(remaining, distributed)
	bonus.Add(bonus, dust)
	if !bonus.IsZero() {
		plan.entries = append(plan.entries, payoutEntry{account: pressiah, amount: bonus})
	}
	return plan, pool, pressiah, nil
}

// pressiah picks the bonus recipient: the last presser for the yellow
// button, otherwise the top scorer with ties broken by press order.
func (b *Button) pressiah(h sdk.Host, st *state) sdk.Address {
	if b.variant.pressiahIsLastPresser() {
		return st.lastPresser
	}
	var best sdk.Address
	var bestScore uint64
	for i := uint64(0); i < st.presserCount; i++ {
		account := presserAt(h, i)
		if score := scoreOf(h, account); score > bestScore {
			best, bestScore = account, score
		}
	}
	return best
}

func savePlan(h sdk.Host, plan *payoutPlan) {
	if len(plan.entries) > 65535 {
		// would silently truncate the u16 count and drop payouts
		panic(codec.Corrupt("payout plan too large"))
	}
	out := make([]byte, 0, 8+len(plan.entries)*40)
	out = codec.AppendByte(out, planVersion)
	out = codec.AppendBool(out, plan.completed)
	out = codec.AppendU16(out, plan.cursor)
	out = codec.AppendU16(out, uint16(len(plan.entries)))
	for _, e := range plan.entries {
		out = codec.AppendString16(out, e.account.String())
		b32 := e.amount.Bytes32()
		out = append(out, b32[16:]...)
	}
	h.StateSet(planKey, string(out))
}

// loadPlan returns nil while the round is alive.
func loadPlan(h sdk.Host) *payoutPlan {
	ptr := h.StateGet(planKey)
	if ptr == nil {
		return nil
	}
	r := codec.NewReader([]byte(*ptr))
	if r.U8() != planVersion {
		panic(codec.Corrupt("unsupported plan version"))
	}
	plan := &payoutPlan{
		completed: r.Bool(),
		cursor:    r.U16(),
	}
	n := int(r.U16())
	for i := 0; i < n; i++ {
		account := sdk.Address(r.Str())
		amount := new(uint256.Int).SetBytes(r.Bytes(16))
		plan.entries = append(plan.entries, payoutEntry{account: account, amount: amount})
	}
	r.MustEnd()
	return plan
}
