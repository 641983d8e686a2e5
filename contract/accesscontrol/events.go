package accesscontrol

import (
	"encoding/json"

	"thebutton/sdk"
)

// emitEvent writes the event as JSON to the host log for off-chain
// observers.
func emitEvent(h sdk.Host, eventType string, attributes map[string]string) {
	b, err := json.Marshal(sdk.Event{Type: eventType, Attributes: attributes})
	if err != nil {
		return
	}
	h.Log(string(b))
}

func emitRoleGranted(h sdk.Host, account sdk.Address, role Role) {
	emitEvent(h, "roleGranted", map[string]string{
		"account": account.String(),
		"role":    role.String(),
	})
}

func emitRoleRevoked(h sdk.Host, account sdk.Address, role Role) {
	emitEvent(h, "roleRevoked", map[string]string{
		"account": account.String(),
		"role":    role.String(),
	})
}
