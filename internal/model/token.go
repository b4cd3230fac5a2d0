package model

import "time"

type RefreshToken struct {
	Record
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	FamilyID  string     `json:"family_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	Revoked   bool       `json:"revoked"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedIP string     `json:"created_by_ip"`
	UserAgent string     `json:"user_agent"`
}

func (t RefreshToken) Live(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}

// EphemeralToken is a single-use numeric code (email verification or password reset).
type EphemeralToken struct {
	Record
	Code      string    `json:"-"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t EphemeralToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// InvalidatedToken denylists an access token by jti until it would have expired anyway.
type InvalidatedToken struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ClientMeta describes the client that created a session.
type ClientMeta struct {
	IP        string
	UserAgent string
}

type TokenPair struct {
	AccessToken      string    `json:"token"`
	Authenticated    bool      `json:"authenticated"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

type SessionView struct {
	ID        string    `json:"id"`
	IP        string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type IntrospectResult struct {
	Valid bool `json:"valid"`
}
