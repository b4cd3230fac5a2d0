package model

import (
	"strings"
	"time"
)

type AuthProvider string

const (
	AuthProviderLocal  AuthProvider = "LOCAL"
	AuthProviderGoogle AuthProvider = "GOOGLE"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type Role struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
}

type User struct {
	Record
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name"`
	PasswordHash string       `json:"-"`
	Verified     bool         `json:"is_verified"`
	AuthProvider AuthProvider `json:"auth_provider"`
	Roles        []Role       `json:"roles"`
}

// Scope flattens roles and their permissions into the space-joined form
// carried by access tokens: ROLE_<name> followed by that role's permissions.
func (u User) Scope() string {
	parts := make([]string, 0, len(u.Roles)*2)
	for _, role := range u.Roles {
		parts = append(parts, "ROLE_"+role.Name)
		parts = append(parts, role.Permissions...)
	}
	return strings.Join(parts, " ")
}

func (u User) View() UserView {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, role.Name)
	}

	return UserView{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		FullName:     u.FullName,
		Verified:     u.Verified,
		AuthProvider: u.AuthProvider,
		Roles:        roles,
	}
}

// UserView is the public projection of a user; it never carries credentials.
type UserView struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	FullName     string       `json:"full_name,omitempty"`
	Verified     bool         `json:"is_verified"`
	AuthProvider AuthProvider `json:"auth_provider"`
	Roles        []string     `json:"roles"`
}

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	Subject   string    `json:"sub"`
	Issuer    string    `json:"iss"`
	UserID    string    `json:"userId"`
	Scope     string    `json:"scope"`
	TokenID   string    `json:"jti"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

func (c AccessClaims) Principal() Principal {
	return Principal{
		UserID:    c.UserID,
		Username:  c.Subject,
		Scopes:    strings.Fields(c.Scope),
		TokenID:   c.TokenID,
		ExpiresAt: c.ExpiresAt,
	}
}

// Principal identifies the authenticated caller. It is passed explicitly to
// every operation that depends on who is calling.
type Principal struct {
	UserID    string
	Username  string
	Scopes    []string
	TokenID   string
	ExpiresAt time.Time
}

func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

func (p Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if strings.EqualFold(s, scope) {
			return true
		}
	}
	return false
}

func (p Principal) HasRole(role string) bool {
	return p.HasScope("ROLE_" + role)
}

// Profile holds the optional personal details of a user, one row per user.
type Profile struct {
	UserID      string    `json:"user_id"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Address     string    `json:"address,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
