package accesscontrol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thebutton/chain"
	"thebutton/contract/accesscontrol"
	"thebutton/sdk"
)

const (
	deployer = sdk.Address("alice")
	operator = sdk.Address("bob")
	stranger = sdk.Address("mallory")
)

func deployAC(t *testing.T) (*chain.Chain, sdk.Address) {
	t.Helper()
	c := chain.New()
	c.SetBlock(1, 1_700_000_000)
	code := c.Upload("access_control", []byte("access-control-v1"), accesscontrol.New)
	addr, err := c.Instantiate(code, deployer, "")
	require.NoError(t, err)
	return c, addr
}

func hasRole(t *testing.T, c *chain.Chain, ac sdk.Address, account sdk.Address, role accesscontrol.Role) bool {
	t.Helper()
	res, err := c.Query(ac, account, "has_role", account.String()+"|"+role.String())
	require.NoError(t, err)
	return res == "true"
}

func TestDeployerIsSuperAdmin(t *testing.T) {
	c, ac := deployAC(t)
	assert.True(t, hasRole(t, c, ac, deployer, accesscontrol.Admin(ac)))
	assert.False(t, hasRole(t, c, ac, stranger, accesscontrol.Admin(ac)))
}

func TestGrantThenRevoke(t *testing.T) {
	c, ac := deployAC(t)
	role := accesscontrol.Owner("ct:some-token")

	// nobody holds anything until granted
	assert.False(t, hasRole(t, c, ac, operator, role))

	_, err := c.Call(ac, deployer, "grant_role", operator.String()+"|"+role.String())
	require.NoError(t, err)
	assert.True(t, hasRole(t, c, ac, operator, role))

	_, err = c.Call(ac, deployer, "revoke_role", operator.String()+"|"+role.String())
	require.NoError(t, err)
	assert.False(t, hasRole(t, c, ac, operator, role))
}

func TestGrantIsIdempotent(t *testing.T) {
	c, ac := deployAC(t)
	role := accesscontrol.Admin("ct:some-game")

	for i := 0; i < 2; i++ {
		_, err := c.Call(ac, deployer, "grant_role", operator.String()+"|"+role.String())
		require.NoError(t, err)
	}
	assert.True(t, hasRole(t, c, ac, operator, role))

	// only one roleGranted for the pair; the second grant was a no-op
	granted := 0
	for _, evt := range c.Events(ac) {
		if evt.Type == "roleGranted" && evt.Attributes["account"] == operator.String() {
			granted++
		}
	}
	assert.Equal(t, 1, granted)
}

func TestRegrantDisplacesHolder(t *testing.T) {
	c, ac := deployAC(t)
	role := accesscontrol.Admin("ct:some-game")

	_, err := c.Call(ac, deployer, "grant_role", operator.String()+"|"+role.String())
	require.NoError(t, err)
	_, err = c.Call(ac, deployer, "grant_role", stranger.String()+"|"+role.String())
	require.NoError(t, err)

	assert.False(t, hasRole(t, c, ac, operator, role), "previous holder displaced")
	assert.True(t, hasRole(t, c, ac, stranger, role))
}

func TestRevokeNeverHeldIsNoop(t *testing.T) {
	c, ac := deployAC(t)
	role := accesscontrol.Owner("ct:some-token")
	_, err := c.Call(ac, deployer, "revoke_role", operator.String()+"|"+role.String())
	assert.NoError(t, err)
}

func TestUnauthorizedCallerCannotMutate(t *testing.T) {
	c, ac := deployAC(t)
	role := accesscontrol.Admin("ct:some-game")

	_, err := c.Call(ac, stranger, "grant_role", stranger.String()+"|"+role.String())
	assert.ErrorIs(t, err, accesscontrol.ErrUnauthorized)
	assert.False(t, hasRole(t, c, ac, stranger, role))

	_, err = c.Call(ac, stranger, "revoke_role", deployer.String()+"|"+accesscontrol.Admin(ac).String())
	assert.ErrorIs(t, err, accesscontrol.ErrUnauthorized)
	assert.True(t, hasRole(t, c, ac, deployer, accesscontrol.Admin(ac)))
}

func TestHasRoleFalseForUngranted(t *testing.T) {
	c, ac := deployAC(t)
	roles := []accesscontrol.Role{
		accesscontrol.Initializer("deadbeef"),
		accesscontrol.Admin("ct:game"),
		accesscontrol.Owner("ct:game"),
	}
	for _, role := range roles {
		assert.False(t, hasRole(t, c, ac, stranger, role), role.String())
	}
}

func TestRoleWireFormat(t *testing.T) {
	cases := []accesscontrol.Role{
		accesscontrol.Initializer("00ff"),
		accesscontrol.Admin("ct:abc-def"),
		accesscontrol.Owner("ct:abc-def"),
	}
	for _, role := range cases {
		parsed, err := accesscontrol.ParseRole(role.String())
		require.NoError(t, err)
		assert.Equal(t, role, parsed, role.String())
	}

	for _, bad := range []string{"", "admin", "admin:", "deity:ct:abc", "initializer:"} {
		_, err := accesscontrol.ParseRole(bad)
		assert.ErrorIs(t, err, accesscontrol.ErrBadRole, bad)
	}
}
