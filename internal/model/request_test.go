package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{name: "strong", password: "Secret1!", ok: true},
		{name: "too short", password: "Se1!", ok: false},
		{name: "too long", password: "Secret1!Secret1!Secret1!", ok: false},
		{name: "no upper", password: "secret1!", ok: false},
		{name: "no digit", password: "Secrets!", ok: false},
		{name: "no special", password: "Secret12", ok: false},
		{name: "foreign special", password: "Secret1#", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ValidatePassword(tt.password)
			if tt.ok {
				assert.Empty(t, msg)
			} else {
				assert.NotEmpty(t, msg)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.Empty(t, ValidateUsername("alice.b-c_d+e"))
	assert.NotEmpty(t, ValidateUsername("ab"))
	assert.NotEmpty(t, ValidateUsername("alice bob"))
	// Email shaped names are reserved for Google sign-up.
	assert.NotEmpty(t, ValidateUsername("victim@example.com"))
}

func TestRegisterRequestValidate(t *testing.T) {
	req := RegisterRequest{Username: " alice ", Email: " Alice@X.com ", Password: "Secret1!"}
	req.Normalize()
	assert.Nil(t, req.Validate())
	assert.Equal(t, "alice@x.com", req.Email)

	bad := RegisterRequest{Username: "al", Email: "not-an-email", Password: "weak"}
	errs := bad.Validate()
	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestUserScopeAndPrincipal(t *testing.T) {
	user := User{Roles: []Role{{Name: RoleAdmin, Permissions: []string{"USER_MANAGE", "ASSET_MANAGE"}}, {Name: RoleUser}}}
	assert.Equal(t, "ROLE_ADMIN USER_MANAGE ASSET_MANAGE ROLE_USER", user.Scope())

	claims := AccessClaims{Subject: "alice", UserID: "u1", Scope: user.Scope(), TokenID: "j1"}
	principal := claims.Principal()
	assert.True(t, principal.Authenticated())
	assert.True(t, principal.HasRole(RoleAdmin))
	assert.True(t, principal.HasScope("asset_manage"))
	assert.False(t, principal.HasScope("PAYMENT_MANAGE"))
}

func TestNewMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, NewMeta(2, 10, 25))
	assert.Equal(t, 0, NewMeta(1, 10, 0).TotalPages)
}
