// Package sdk defines the host surface a contract compiles against:
// the execution environment, the key/value state store, logging, and
// cross-contract calls. Contracts never reach the host directly; they
// receive a Host per call, which keeps them testable against an
// in-memory chain.
package sdk

// Address identifies an account or a contract instance on the chain.
type Address string

func (a Address) String() string { return string(a) }

// CodeHash identifies uploaded contract code. Instantiation rights
// (Initializer roles) are scoped to code hashes rather than instances.
type CodeHash string

func (h CodeHash) String() string { return string(h) }

// Env describes the context of the currently executing call.
type Env struct {
	// Sender is the direct caller: an external account for top-level
	// calls, the calling contract's address for sub-calls.
	Sender Address
	// Origin is the external account that started the transaction.
	Origin Address
	// Contract is the address of the executing instance.
	Contract Address
	// Code is the code hash the executing instance was built from.
	Code CodeHash
	// TxID is unique per top-level call and shared by its sub-calls.
	TxID string
	// BlockHeight of the block executing this call.
	BlockHeight uint64
	// Timestamp of the block in "YYYY-MM-DDThh:mm:ss" UTC form.
	Timestamp string
}

// Event is the common shape of everything a contract emits. Events are
// serialized to JSON and written to the host log.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Host is what a contract sees during a call. State writes are
// journaled per call frame: they become visible outside the frame only
// if the call returns without error.
type Host interface {
	// StateGet returns the stored value for key, or nil if absent.
	StateGet(key string) *string
	// StateSet stores value under key.
	StateSet(key, value string)
	// StateDelete removes key if present.
	StateDelete(key string)
	// Env returns the call context.
	Env() Env
	// Log records a message (usually a JSON-encoded Event).
	Log(msg string)
	// Call invokes a method on another contract in a child frame, with
	// the executing contract as sender. A returned error means the
	// child frame's writes were discarded.
	Call(to Address, method, payload string) (string, error)
}

// Contract is implemented by every deployable contract. Init runs once
// at instantiation; Call dispatches all later entrypoints by name.
type Contract interface {
	Init(host Host, payload string) error
	Call(host Host, method, payload string) (string, error)
}
