package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderRoundTrip(t *testing.T) {
	var out []byte
	out = AppendByte(out, 7)
	out = AppendBool(out, true)
	out = AppendU16(out, 65000)
	out = AppendU64(out, 1<<40)
	out = AppendString16(out, "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL")

	r := NewReader(out)
	assert.Equal(t, byte(7), r.U8())
	assert.True(t, r.Bool())
	assert.Equal(t, uint16(65000), r.U16())
	assert.Equal(t, uint64(1<<40), r.U64())
	assert.Equal(t, "5CiPPseXPECbkjWCa6MnjNokrgYjMqmKndv2rSnekmSK2DjL", r.Str())
	r.MustEnd()
}

func TestReaderOverflowPanics(t *testing.T) {
	r := NewReader([]byte{1, 2})
	assert.PanicsWithError(t, "corrupt state: decode overflow", func() { r.U64() })
}

func TestReaderTrailingBytesPanic(t *testing.T) {
	r := NewReader([]byte{1, 2})
	r.U8()
	assert.PanicsWithError(t, "corrupt state: trailing bytes", func() { r.MustEnd() })
}

func TestNextField(t *testing.T) {
	in := "alice|900|"
	assert.Equal(t, "alice", NextField(&in))
	assert.Equal(t, "900", NextField(&in))
	assert.Equal(t, "", NextField(&in))
	assert.Equal(t, "", in)
}

func TestTimeRoundTrip(t *testing.T) {
	cases := []struct {
		iso  string
		unix uint64
	}{
		{"1970-01-01T00:00:00", 0},
		{"2023-12-31T00:00:00", 1703980800},
		{"2024-01-01T00:00:00", 1704067200},
		{"2024-02-29T12:00:00", 1709208000},
		{"2024-03-01T00:00:00", 1709251200},
		{"2024-12-31T23:59:59", 1735689599},
		{"2026-08-26T15:04:05", 1787756645},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.unix, ParseISO8601(tc.iso), tc.iso)
		assert.Equal(t, tc.iso, FormatISO8601(tc.unix), tc.iso)
	}

	// arbitrary timestamps survive a full round trip
	for ts := uint64(1_000_000_000); ts < 1_000_000_000+86400*3; ts += 12345 {
		require.Equal(t, ts, ParseISO8601(FormatISO8601(ts)))
	}

	// hourly sweep across a leap day: parser and formatter must agree
	for ts := uint64(1709164800 - 2*86400); ts < 1709164800+2*86400; ts += 3600 {
		require.Equal(t, ts, ParseISO8601(FormatISO8601(ts)))
	}
}

func TestParseISO8601Malformed(t *testing.T) {
	assert.Panics(t, func() { ParseISO8601("2026-08-26") })
	assert.Panics(t, func() { ParseISO8601("2026-08-26Txx:00:00") })
}
