package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_IsAdmin(t *testing.T) {
	tests := []struct {
		role  Role
		admin bool
		valid bool
	}{
		{RoleAdmin, true, true},
		{RoleSuperAdmin, true, true},
		{RoleUser, false, true},
		{Role("admin"), false, false},
		{Role(""), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.admin, tt.role.IsAdmin())
			assert.Equal(t, tt.valid, tt.role.Valid())
		})
	}
}

func TestUser_Profile(t *testing.T) {
	u := &User{ID: "u1", Email: "a@b.c", FirstName: "Ana", LastName: "Reyes", Role: RoleAdmin, PasswordHash: "x"}
	p := u.Profile()

	assert.Equal(t, AdminUser{ID: "u1", Email: "a@b.c", FirstName: "Ana", LastName: "Reyes", Role: RoleAdmin}, p)
	assert.Equal(t, "Ana Reyes", p.FullName())
	assert.Equal(t, "Ana", AdminUser{FirstName: "Ana"}.FullName())
}
