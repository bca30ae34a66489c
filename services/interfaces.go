package services

// PasswordHasher defines an interface for hashing and verifying passwords.
// Verify reports a plain mismatch as (false, nil); an error means the stored
// hash itself is unusable.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) (bool, error)
}
