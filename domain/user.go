package domain

import "time"

// AuthProvider identifies how an identity authenticates.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderKakao  AuthProvider = "kakao"
)

// User represents one principal. Email is the natural key; identities created
// purely via federation carry no password hash.
type User struct {
	ID              string       `bson:"_id,omitempty"`
	Email           string       `bson:"email"`
	PasswordHash    *string      `bson:"password_hash,omitempty"`
	Provider        AuthProvider `bson:"provider"`
	SocialID        string       `bson:"social_id,omitempty"`
	ProfileImageURL string       `bson:"profile_image_url,omitempty"`
	IsActive        bool         `bson:"is_active"`
	CreatedAt       time.Time    `bson:"created_at"`
	UpdatedAt       time.Time    `bson:"updated_at"`
}

// CanPasswordLogin reports whether the credential flow is usable for this
// identity. Federated-only users have no stored hash and must use their
// provider.
func (u *User) CanPasswordLogin() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
