package token

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

func emitMinted(h sdk.Host, to sdk.Address, amount *uint256.Int) {
	emitEvent(h, "tokenMinted", map[string]string{
		"to":     to.String(),
		"amount": amount.Dec(),
	})
}

func emitTransferred(h sdk.Host, from, to sdk.Address, amount *uint256.Int) {
	emitEvent(h, "tokenTransferred", map[string]string{
		"from":   from.String(),
		"to":     to.String(),
		"amount": amount.Dec(),
	})
}

func emitApproved(h sdk.Host, owner, spender sdk.Address, amount *uint256.Int) {
	emitEvent(h, "tokenApproved", map[string]string{
		"owner":   owner.String(),
		"spender": spender.String(),
		"amount":  amount.Dec(),
	})
}

func emitPaused(h sdk.Host, paused bool) {
	emitEvent(h, "tokenPaused", map[string]string{"paused": codec.FormatBool(paused)})
}
