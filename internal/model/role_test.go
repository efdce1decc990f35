package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLandingPathIsTotal(t *testing.T) {
	roles := []Role{
		RoleVisitor, RoleCandidate, RoleNewEmployee,
		RoleEmployee, RoleManager, RoleCEO, RoleAdmin,
	}

	seen := map[string]Role{}
	for _, role := range roles {
		path := role.LandingPath()
		assert.NotEmpty(t, path, "role %s has no landing path", role)
		if prev, dup := seen[path]; dup {
			t.Errorf("roles %s and %s share landing path %s", prev, role, path)
		}
		seen[path] = role
	}
}

func TestLandingPathDefaultsToVisitor(t *testing.T) {
	assert.Equal(t, "/dashboard/visitor", Role("").LandingPath())
	assert.Equal(t, "/dashboard/visitor", Role("intern").LandingPath())
	assert.Equal(t, "/dashboard/visitor", RoleVisitor.LandingPath())
}

func TestAdminLandsOnAdminPanel(t *testing.T) {
	assert.Equal(t, "/admin", RoleAdmin.LandingPath())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleManager, ParseRole("manager"))
	assert.Equal(t, RoleVisitor, ParseRole(""))
	assert.Equal(t, RoleVisitor, ParseRole("superuser"))
}

func TestCanDecideLeave(t *testing.T) {
	assert.True(t, RoleManager.CanDecideLeave())
	assert.True(t, RoleCEO.CanDecideLeave())
	assert.True(t, RoleAdmin.CanDecideLeave())
	assert.False(t, RoleEmployee.CanDecideLeave())
	assert.False(t, RoleVisitor.CanDecideLeave())
}
