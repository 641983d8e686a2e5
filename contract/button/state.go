package button

import (
	"thebutton/codec"
	"thebutton/sdk"
)

// Storage is split the usual way: a meta record fixed at
// instantiation, a state record mutated by play, and per-account
// records for scores and the whitelist. Press order is kept as
// indexed records so the distribution order is reproducible.

const (
	metaVersion  uint8 = 1
	stateVersion uint8 = 1
)

const (
	metaKey  = "meta"
	stateKey = "state"
)

func scoreKey(a sdk.Address) string     { return "score:" + a.String() }
func whitelistKey(a sdk.Address) string { return "wl:" + a.String() }

func presserKey(i uint64) string { return "presser:" + codec.FormatU64(i) }

// meta never changes after Init.
type meta struct {
	accessControl sdk.Address
	token         sdk.Address
	start         uint64
	deadline      uint64
	lifetime      uint64
}

func saveMeta(h sdk.Host, m *meta) {
	out := make([]byte, 0, 32+len(m.accessControl)+len(m.token))
	out = codec.AppendByte(out, metaVersion)
	out = codec.AppendString16(out, m.accessControl.String())
	out = codec.AppendString16(out, m.token.String())
	out = codec.AppendU64(out, m.start)
	out = codec.AppendU64(out, m.deadline)
	out = codec.AppendU64(out, m.lifetime)
	h.StateSet(metaKey, string(out))
}

func loadMeta(h sdk.Host) *meta {
	ptr := h.StateGet(metaKey)
	if ptr == nil {
		panic(codec.Corrupt("round meta missing"))
	}
	r := codec.NewReader([]byte(*ptr))
	if r.U8() != metaVersion {
		panic(codec.Corrupt("unsupported meta version"))
	}
	m := &meta{
		accessControl: sdk.Address(r.Str()),
		token:         sdk.Address(r.Str()),
		start:         r.U64(),
		deadline:      r.U64(),
		lifetime:      r.U64(),
	}
	r.MustEnd()
	return m
}

// state is the mutable half of the round.
type state struct {
	isDead        bool
	lastPresser   sdk.Address // empty until the first press
	owner         sdk.Address
	totalScores   uint64
	pressCount    uint64
	presserCount  uint64 // distinct accounts that pressed
	whitelistSize uint64
}

func saveState(h sdk.Host, st *state) {
	out := make([]byte, 0, 48+len(st.lastPresser)+len(st.owner))
	out = codec.AppendByte(out, stateVersion)
	out = codec.AppendBool(out, st.isDead)
	out = codec.AppendString16(out, st.lastPresser.String())
	out = codec.AppendString16(out, st.owner.String())
	out = codec.AppendU64(out, st.totalScores)
	out = codec.AppendU64(out, st.pressCount)
	out = codec.AppendU64(out, st.presserCount)
	out = codec.AppendU64(out, st.whitelistSize)
	h.StateSet(stateKey, string(out))
}

func loadState(h sdk.Host) *state {
	ptr := h.StateGet(stateKey)
	if ptr == nil {
		panic(codec.Corrupt("round state missing"))
	}
	r := codec.NewReader([]byte(*ptr))
	if r.U8() != stateVersion {
		panic(codec.Corrupt("unsupported state version"))
	}
	st := &state{
		isDead:        r.Bool(),
		lastPresser:   sdk.Address(r.Str()),
		owner:         sdk.Address(r.Str()),
		totalScores:   r.U64(),
		pressCount:    r.U64(),
		presserCount:  r.U64(),
		whitelistSize: r.U64(),
	}
	r.MustEnd()
	return st
}

func scoreOf(h sdk.Host, account sdk.Address) uint64 {
	ptr := h.StateGet(scoreKey(account))
	if ptr == nil {
		return 0
	}
	r := codec.NewReader([]byte(*ptr))
	v := r.U64()
	r.MustEnd()
	return v
}

func setScore(h sdk.Host, account sdk.Address, score uint64) {
	h.StateSet(scoreKey(account), string(codec.AppendU64(nil, score)))
}

func presserAt(h sdk.Host, i uint64) sdk.Address {
	ptr := h.StateGet(presserKey(i))
	if ptr == nil {
		panic(codec.Corrupt("presser record missing"))
	}
	return sdk.Address(*ptr)
}

func isWhitelisted(h sdk.Host, account sdk.Address) bool {
	return h.StateGet(whitelistKey(account)) != nil
}
