package chain

import (
	"encoding/json"

	"thebutton/sdk"
)

// DecodeEvents parses committed log lines back into events, skipping
// anything that is not event JSON.
func DecodeEvents(logs []LogEntry) []sdk.Event {
	var out []sdk.Event
	for _, l := range logs {
		var evt sdk.Event
		if err := json.Unmarshal([]byte(l.Message), &evt); err != nil {
			continue
		}
		if evt.Type == "" {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// Events returns the decoded events of a contract, in emission order.
func (c *Chain) Events(addr sdk.Address) []sdk.Event {
	return DecodeEvents(c.Logs(addr))
}
