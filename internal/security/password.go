// Package security hashes and verifies user passwords.
package security

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	SchemeSHA256 = "sha256"
	SchemeBcrypt = "bcrypt"

	saltSize = 16
)

// PasswordHasher produces self-contained password hashes. Verify accepts
// every scheme the hasher knows, not only the one used for new hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
}

type passwordHasher struct {
	scheme     string
	bcryptCost int
}

// NewPasswordHasher returns a hasher that writes new hashes with scheme
// ("sha256" or "bcrypt"). Unknown schemes fall back to sha256.
func NewPasswordHasher(scheme string) PasswordHasher {
	if scheme != SchemeBcrypt {
		scheme = SchemeSHA256
	}
	return &passwordHasher{scheme: scheme, bcryptCost: bcrypt.DefaultCost}
}

func (h *passwordHasher) Hash(password string) (string, error) {
	if h.scheme == SchemeBcrypt {
		out, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return hashSHA256(password)
}

func (h *passwordHasher) Verify(password, stored string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return verifySHA256(password, stored)
}

// hashSHA256 stores base64(salt ‖ SHA-256(password ‖ salt)).
func hashSHA256(password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	digest := saltedDigest(password, salt)
	return base64.StdEncoding.EncodeToString(append(salt, digest...)), nil
}

func verifySHA256(password, stored string) bool {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(raw) != saltSize+sha256.Size {
		return false
	}
	salt, digest := raw[:saltSize], raw[saltSize:]
	return subtle.ConstantTimeCompare(saltedDigest(password, salt), digest) == 1
}

func saltedDigest(password string, salt []byte) []byte {
	sum := sha256.Sum256(bytes.Join([][]byte{[]byte(password), salt}, nil))
	return sum[:]
}
