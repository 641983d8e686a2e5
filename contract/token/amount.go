package token

import (
	"github.com/holiman/uint256"

	"thebutton/codec"
	"thebutton/sdk"
)

// Amounts are u128: parsed from decimal payload fields, persisted as
// 16 big-endian bytes, and checked on every addition so a balance or
// the supply can never wrap.

func parseAmount(s string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, ErrBadPayload
	}
	if v.BitLen() > 128 {
		return nil, ErrOverflow
	}
	return v, nil
}

func checkedAdd(a, b *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || sum.BitLen() > 128 {
		return nil, ErrOverflow
	}
	return sum, nil
}

func putAmount(h sdk.Host, key string, v *uint256.Int) {
	b32 := v.Bytes32()
	h.StateSet(key, string(b32[16:]))
}

func getAmount(h sdk.Host, key string) *uint256.Int {
	ptr := h.StateGet(key)
	if ptr == nil {
		return uint256.NewInt(0)
	}
	if len(*ptr) != 16 {
		panic(codec.Corrupt("bad amount record"))
	}
	return new(uint256.Int).SetBytes([]byte(*ptr))
}
