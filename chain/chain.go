// Package chain is the in-memory host ledger the contracts run on. It
// owns the committed key/value state of every instance, serializes all
// calls, and journals writes per call frame so a failed call leaves no
// trace while a parent call can survive a failed sub-call.
package chain

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"thebutton/codec"
	"thebutton/sdk"
)

var (
	ErrUnknownCode     = errors.New("unknown code hash")
	ErrUnknownContract = errors.New("unknown contract address")
	ErrUnknownMethod   = errors.New("unknown method")
)

// Code pairs uploaded bytecode with the factory that builds a fresh
// dispatcher for each instantiation.
type Code struct {
	Name    string
	Hash    sdk.CodeHash
	factory func() sdk.Contract
}

type instance struct {
	code sdk.CodeHash
	impl sdk.Contract
}

// LogEntry is one line a contract wrote during a committed call.
type LogEntry struct {
	Contract sdk.Address
	TxID     string
	Message  string
}

// Chain executes one call at a time to completion, the way the host
// ledger serializes transactions per block.
type Chain struct {
	codes     map[sdk.CodeHash]*Code
	instances map[sdk.Address]*instance
	state     map[sdk.Address]map[string]string
	logs      []LogEntry

	height uint64
	now    uint64 // unix seconds
}

func New() *Chain {
	return &Chain{
		codes:     make(map[sdk.CodeHash]*Code),
		instances: make(map[sdk.Address]*instance),
		state:     make(map[sdk.Address]map[string]string),
		height:    1,
		now:       1, // genesis; tests and the deployer set their own clock
	}
}

// SetBlock pins the block height and timestamp for subsequent calls.
func (c *Chain) SetBlock(height, unixTime uint64) {
	c.height = height
	c.now = unixTime
}

// Advance moves the clock forward by the given blocks and seconds.
func (c *Chain) Advance(blocks, seconds uint64) {
	c.height += blocks
	c.now += seconds
}

func (c *Chain) Height() uint64 { return c.height }
func (c *Chain) Now() uint64    { return c.now }

// Upload registers contract code and returns its hash. The hash scopes
// Initializer roles, so two uploads of identical bytes collapse to one
// code entry.
func (c *Chain) Upload(name string, code []byte, factory func() sdk.Contract) sdk.CodeHash {
	sum := blake3.Sum256(code)
	hash := sdk.CodeHash(hex.EncodeToString(sum[:]))
	c.codes[hash] = &Code{Name: name, Hash: hash, factory: factory}
	return hash
}

// Instantiate builds a new instance of the given code and runs its
// constructor in its own frame. On error nothing is committed and no
// instance exists.
func (c *Chain) Instantiate(code sdk.CodeHash, sender sdk.Address, payload string) (sdk.Address, error) {
	entry, ok := c.codes[code]
	if !ok {
		return "", fmt.Errorf("instantiate: %w", ErrUnknownCode)
	}

	addr := sdk.Address("ct:" + uuid.NewString())
	inst := &instance{code: code, impl: entry.factory()}

	f := newFrame(nil)
	env := c.envFor(addr, code, sender, sender)
	err := c.invokeInit(f, inst, env, payload)
	if err != nil {
		return "", fmt.Errorf("instantiate %s: %w", entry.Name, err)
	}

	c.instances[addr] = inst
	c.commit(f)
	return addr, nil
}

// Call is the top-level entry for external accounts. The whole call,
// including sub-calls that returned successfully to their parent,
// commits atomically; any returned error means no state changed.
func (c *Chain) Call(to, sender sdk.Address, method, payload string) (string, error) {
	inst, ok := c.instances[to]
	if !ok {
		return "", fmt.Errorf("call %s: %w", to, ErrUnknownContract)
	}

	f := newFrame(nil)
	env := c.envFor(to, inst.code, sender, sender)
	res, err := c.invoke(f, inst, env, method, payload)
	if err != nil {
		return "", err
	}
	c.commit(f)
	return res, nil
}

// Query is Call for read-only entrypoints; it never commits, so a
// misbehaving read cannot mutate state.
func (c *Chain) Query(to, sender sdk.Address, method, payload string) (string, error) {
	inst, ok := c.instances[to]
	if !ok {
		return "", fmt.Errorf("query %s: %w", to, ErrUnknownContract)
	}
	f := newFrame(nil)
	env := c.envFor(to, inst.code, sender, sender)
	return c.invoke(f, inst, env, method, payload)
}

// Logs returns every committed log line for the given contract, in
// emission order. An empty address returns all logs.
func (c *Chain) Logs(addr sdk.Address) []LogEntry {
	if addr == "" {
		return c.logs
	}
	var out []LogEntry
	for _, l := range c.logs {
		if l.Contract == addr {
			out = append(out, l)
		}
	}
	return out
}

func (c *Chain) envFor(contract sdk.Address, code sdk.CodeHash, sender, origin sdk.Address) sdk.Env {
	return sdk.Env{
		Sender:      sender,
		Origin:      origin,
		Contract:    contract,
		Code:        code,
		TxID:        uuid.NewString(),
		BlockHeight: c.height,
		Timestamp:   codec.FormatISO8601(c.now),
	}
}

// invoke runs one entrypoint and converts codec corruption panics into
// call failures; everything else propagates, it is a programming error.
func (c *Chain) invoke(f *frame, inst *instance, env sdk.Env, method, payload string) (res string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if cerr, ok := r.(codec.Corrupt); ok {
				err = cerr
				return
			}
			panic(r)
		}
	}()
	h := &host{chain: c, frame: f, env: env}
	return inst.impl.Call(h, method, payload)
}

func (c *Chain) invokeInit(f *frame, inst *instance, env sdk.Env, payload string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if cerr, ok := r.(codec.Corrupt); ok {
				err = cerr
				return
			}
			panic(r)
		}
	}()
	h := &host{chain: c, frame: f, env: env}
	return inst.impl.Init(h, payload)
}

func (c *Chain) commit(f *frame) {
	for addr, writes := range f.writes {
		store := c.state[addr]
		if store == nil {
			store = make(map[string]string)
			c.state[addr] = store
		}
		for key, val := range writes {
			if val == nil {
				delete(store, key)
			} else {
				store[key] = *val
			}
		}
	}
	c.logs = append(c.logs, f.logs...)
}

func (c *Chain) committedGet(addr sdk.Address, key string) *string {
	store, ok := c.state[addr]
	if !ok {
		return nil
	}
	v, ok := store[key]
	if !ok {
		return nil
	}
	return &v
}
