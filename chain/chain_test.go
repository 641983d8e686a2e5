package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thebutton/sdk"
)

// counter is a minimal contract used to exercise the host: it stores
// a value, can fail on demand, and can relay calls to another
// instance.
type counter struct{}

func (c *counter) Init(h sdk.Host, payload string) error {
	if payload == "fail" {
		return errors.New("init failed")
	}
	h.StateSet("value", payload)
	return nil
}

func (c *counter) Call(h sdk.Host, method, payload string) (string, error) {
	switch method {
	case "get":
		if v := h.StateGet("value"); v != nil {
			return *v, nil
		}
		return "", nil
	case "set":
		h.StateSet("value", payload)
		return "", nil
	case "set_then_fail":
		h.StateSet("value", payload)
		return "", errors.New("boom")
	case "relay_set":
		// payload: "<addr>|<value>"; writes locally, then sub-calls
		in := payload
		i := 0
		for in[i] != '|' {
			i++
		}
		to, val := sdk.Address(in[:i]), in[i+1:]
		h.StateSet("value", "relayed")
		_, err := h.Call(to, "set_then_fail", val)
		if err != nil {
			// tolerate the failed sub-call; our own write stands
			return "halted", nil
		}
		return "ok", nil
	}
	return "", ErrUnknownMethod
}

func newCounterChain(t *testing.T) (*Chain, sdk.CodeHash) {
	t.Helper()
	c := New()
	c.SetBlock(10, 1_700_000_000)
	hash := c.Upload("counter", []byte("counter-code-v1"), func() sdk.Contract { return &counter{} })
	return c, hash
}

func TestUploadHashStable(t *testing.T) {
	c := New()
	h1 := c.Upload("a", []byte("same bytes"), func() sdk.Contract { return &counter{} })
	h2 := c.Upload("b", []byte("same bytes"), func() sdk.Contract { return &counter{} })
	h3 := c.Upload("c", []byte("other bytes"), func() sdk.Contract { return &counter{} })
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1.String(), 64)
}

func TestInstantiateAndCall(t *testing.T) {
	c, hash := newCounterChain(t)

	addr, err := c.Instantiate(hash, "alice", "41")
	require.NoError(t, err)

	got, err := c.Call(addr, "alice", "get", "")
	require.NoError(t, err)
	assert.Equal(t, "41", got)

	_, err = c.Call(addr, "alice", "set", "42")
	require.NoError(t, err)
	got, _ = c.Call(addr, "alice", "get", "")
	assert.Equal(t, "42", got)
}

func TestInstantiateFailureLeavesNoInstance(t *testing.T) {
	c, hash := newCounterChain(t)

	_, err := c.Instantiate(hash, "alice", "fail")
	require.Error(t, err)
	assert.Empty(t, c.instances)
	assert.Empty(t, c.state)
}

func TestFailedCallRollsBack(t *testing.T) {
	c, hash := newCounterChain(t)
	addr, err := c.Instantiate(hash, "alice", "before")
	require.NoError(t, err)

	_, err = c.Call(addr, "alice", "set_then_fail", "after")
	require.Error(t, err)

	got, err := c.Call(addr, "alice", "get", "")
	require.NoError(t, err)
	assert.Equal(t, "before", got, "failed call must leave no writes")
}

func TestParentSurvivesFailedSubCall(t *testing.T) {
	c, hash := newCounterChain(t)
	parent, err := c.Instantiate(hash, "alice", "p0")
	require.NoError(t, err)
	child, err := c.Instantiate(hash, "alice", "c0")
	require.NoError(t, err)

	res, err := c.Call(parent, "alice", "relay_set", child.String()+"|x")
	require.NoError(t, err)
	assert.Equal(t, "halted", res)

	got, _ := c.Call(parent, "alice", "get", "")
	assert.Equal(t, "relayed", got, "parent write must be committed")
	got, _ = c.Call(child, "alice", "get", "")
	assert.Equal(t, "c0", got, "failed sub-call writes must be discarded")
}

func TestUnknownTargets(t *testing.T) {
	c, _ := newCounterChain(t)
	_, err := c.Instantiate("nope", "alice", "")
	assert.ErrorIs(t, err, ErrUnknownCode)
	_, err = c.Call("ct:nope", "alice", "get", "")
	assert.ErrorIs(t, err, ErrUnknownContract)
}

func TestClockAndEnv(t *testing.T) {
	c, hash := newCounterChain(t)
	c.SetBlock(100, 1_787_000_000)
	assert.Equal(t, uint64(100), c.Height())
	assert.Equal(t, uint64(1_787_000_000), c.Now())
	c.Advance(5, 30)
	assert.Equal(t, uint64(105), c.Height())
	assert.Equal(t, uint64(1_787_000_030), c.Now())

	addr, err := c.Instantiate(hash, "alice", "1")
	require.NoError(t, err)
	_, err = c.Call(addr, "alice", "set", "2")
	require.NoError(t, err)

	logs := c.Logs(addr)
	assert.Empty(t, logs, "counter emits no events")
}
