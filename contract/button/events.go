package button

import (
	"encoding/json"

	"github.com/holiman/uint256"

	"thebutton/codec"
	"thebutton/sdk"
)

func emitEvent(h sdk.Host, eventType string, attributes map[string]string) {
	b, err := json.Marshal(sdk.Event{Type: eventType, Attributes: attributes})
	if err != nil {
		return
	}
	h.Log(string(b))
}

func emitCreated(h sdk.Host, v Variant, m *meta) {
	emitEvent(h, "buttonCreated", map[string]string{
		"variant":  v.String(),
		"start":    codec.FormatU64(m.start),
		"deadline": codec.FormatU64(m.deadline),
	})
}

func emitPressed(h sdk.Host, by sdk.Address, when, weight uint64) {
	emitEvent(h, "buttonPressed", map[string]string{
		"by":     by.String(),
		"when":   codec.FormatU64(when),
		"weight": codec.FormatU64(weight),
	})
}

func emitDied(h sdk.Host, when uint64, pool *uint256.Int, pressiah sdk.Address, st *state) {
	emitEvent(h, "buttonDied", map[string]string{
		"when":         codec.FormatU64(when),
		"pool":         pool.Dec(),
		"pressiah":     pressiah.String(),
		"participants": codec.FormatU64(st.presserCount),
		"presses":      codec.FormatU64(st.pressCount),
	})
}

func emitDistributionHalted(h sdk.Host, cursor uint16, cause error) {
	emitEvent(h, "distributionHalted", map[string]string{
		"cursor": codec.FormatU64(uint64(cursor)),
		"cause":  cause.Error(),
	})
}

func emitDistributionCompleted(h sdk.Host, payouts uint16) {
	emitEvent(h, "distributionCompleted", map[string]string{
		"payouts": codec.FormatU64(uint64(payouts)),
	})
}

func emitAllowed(h sdk.Host, account sdk.Address) {
	emitEvent(h, "playerAllowed", map[string]string{"account": account.String()})
}

func emitDisallowed(h sdk.Host, account sdk.Address) {
	emitEvent(h, "playerDisallowed", map[string]string{"account": account.String()})
}

func emitOwnershipTransferred(h sdk.Host, from, to sdk.Address) {
	emitEvent(h, "ownershipTransferred", map[string]string{
		"from": from.String(),
		"to":   to.String(),
	})
}
