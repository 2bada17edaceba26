package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes the configured session password with bcrypt. It is
// called once at startup; the plaintext is discarded afterwards and never
// stored or logged.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the candidate matches the stored bcrypt
// hash. bcrypt's comparison is constant-time over the derived key.
func CheckPassword(candidate, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
}
