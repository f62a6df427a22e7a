package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(ViewMarket, Viewer))
	assert.False(t, AllowedRole(Purchase, Viewer))
	assert.True(t, AllowedRole(Purchase, Trader))
	assert.False(t, AllowedRole(ManageMarket, Trader))
	assert.True(t, AllowedRole(ManageMarket, Operator))
	assert.False(t, AllowedRole("unknown", Operator))
}

func TestEveryRoleIsValid(t *testing.T) {
	for perm, roles := range PermissionRoles {
		for _, r := range roles {
			assert.True(t, IsValidRole(r), "%s grants unknown role %s", perm, r)
		}
	}
}
