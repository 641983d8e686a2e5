package chain

import (
	"fmt"

	"thebutton/sdk"
)

// frame buffers the writes and logs of one call. Reads fall through to
// the parent frame and then to committed state, so a contract always
// observes its own uncommitted writes.
type frame struct {
	parent *frame
	writes map[sdk.Address]map[string]*string // nil value = delete
	logs   []LogEntry
}

func newFrame(parent *frame) *frame {
	return &frame{
		parent: parent,
		writes: make(map[sdk.Address]map[string]*string),
	}
}

func (f *frame) set(addr sdk.Address, key string, val *string) {
	w := f.writes[addr]
	if w == nil {
		w = make(map[string]*string)
		f.writes[addr] = w
	}
	w[key] = val
}

// get reports (value, known); known is false when this frame chain has
// no opinion and the caller must consult committed state.
func (f *frame) get(addr sdk.Address, key string) (*string, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if w, ok := cur.writes[addr]; ok {
			if v, ok := w[key]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// mergeInto folds a successful child frame into its parent.
func (f *frame) mergeInto(parent *frame) {
	for addr, w := range f.writes {
		for key, val := range w {
			parent.set(addr, key, val)
		}
	}
	parent.logs = append(parent.logs, f.logs...)
}

// host binds a frame and an env into the sdk.Host a contract sees.
type host struct {
	chain *Chain
	frame *frame
	env   sdk.Env
}

func (h *host) StateGet(key string) *string {
	if v, known := h.frame.get(h.env.Contract, key); known {
		return v
	}
	return h.chain.committedGet(h.env.Contract, key)
}

func (h *host) StateSet(key, value string) {
	h.frame.set(h.env.Contract, key, &value)
}

func (h *host) StateDelete(key string) {
	h.frame.set(h.env.Contract, key, nil)
}

func (h *host) Env() sdk.Env { return h.env }

func (h *host) Log(msg string) {
	h.frame.logs = append(h.frame.logs, LogEntry{
		Contract: h.env.Contract,
		TxID:     h.env.TxID,
		Message:  msg,
	})
}

// Call runs a sub-call in a child frame. The child commits into this
// frame only on success; on error the caller decides whether to fail
// or carry on with its own writes intact.
func (h *host) Call(to sdk.Address, method, payload string) (string, error) {
	inst, ok := h.chain.instances[to]
	if !ok {
		return "", fmt.Errorf("call %s: %w", to, ErrUnknownContract)
	}

	child := newFrame(h.frame)
	env := h.env
	env.Sender = h.env.Contract
	env.Contract = to
	env.Code = inst.code

	res, err := h.chain.invoke(child, inst, env, method, payload)
	if err != nil {
		return "", err
	}
	child.mergeInto(h.frame)
	return res, nil
}
