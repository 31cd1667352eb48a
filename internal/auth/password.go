// internal/auth/password.go

// Package auth hashes account passwords with Argon2id and signs session tokens with ed25519.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrMalformedHash is returned for stored hashes that are not argon2id PHC strings.
	ErrMalformedHash = errors.New("stored password hash is malformed")
	// ErrHashVersion is returned when a hash was produced by another argon2 revision.
	ErrHashVersion = errors.New("stored password hash uses an unsupported argon2 version")
)

const hashPrefix = "$argon2id$"

// PasswordCost is the Argon2id work factor. MemoryKiB is in kibibytes.
type PasswordCost struct {
	MemoryKiB uint32
	Passes    uint32
	Threads   uint8
	SaltBytes uint32
	KeyBytes  uint32
}

// Cost is applied to every new hash. cmd/server overrides it from the environment and tests
// lower it so account fixtures stay fast.
var Cost = PasswordCost{
	MemoryKiB: 64 * 1024,
	Passes:    3,
	Threads:   uint8(max(1, runtime.NumCPU()/2)),
	SaltBytes: 16,
	KeyBytes:  32,
}

// HashPassword derives a salted key with the current Cost and returns it in PHC form:
// $argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>
func HashPassword(password string) (string, error) {
	c := Cost
	salt := make([]byte, c.SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, c.Passes, c.MemoryKiB, c.Threads, c.KeyBytes)

	var b strings.Builder
	b.WriteString(hashPrefix)
	fmt.Fprintf(&b, "v=%d$m=%d,t=%d,p=%d$", argon2.Version, c.MemoryKiB, c.Passes, c.Threads)
	b.WriteString(base64.RawStdEncoding.EncodeToString(salt))
	b.WriteByte('$')
	b.WriteString(base64.RawStdEncoding.EncodeToString(key))
	return b.String(), nil
}

// CheckPassword reports whether password produces the key stored in hash. The comparison runs
// in constant time; errors are only returned for hashes that cannot be parsed.
func CheckPassword(password, hash string) (bool, error) {
	c, salt, key, err := parseHash(hash)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, c.Passes, c.MemoryKiB, c.Threads, c.KeyBytes)
	return subtle.ConstantTimeCompare(key, got) == 1, nil
}

// NeedsRehash is true when hash was made with a different work factor than Cost.
func NeedsRehash(hash string) bool {
	c, _, _, err := parseHash(hash)
	if err != nil {
		return true
	}
	return c.MemoryKiB != Cost.MemoryKiB || c.Passes != Cost.Passes || c.Threads != Cost.Threads ||
		c.KeyBytes != Cost.KeyBytes
}

func parseHash(hash string) (PasswordCost, []byte, []byte, error) {
	var c PasswordCost
	rest, ok := strings.CutPrefix(hash, hashPrefix)
	if !ok {
		return c, nil, nil, ErrMalformedHash
	}
	parts := strings.Split(rest, "$")
	if len(parts) != 4 {
		return c, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[0], "v=%d", &version); err != nil {
		return c, nil, nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return c, nil, nil, ErrHashVersion
	}
	if _, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &c.MemoryKiB, &c.Passes, &c.Threads); err != nil {
		return c, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return c, nil, nil, ErrMalformedHash
	}
	key, err := base64.RawStdEncoding.Strict().DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return c, nil, nil, ErrMalformedHash
	}
	c.SaltBytes = uint32(len(salt))
	c.KeyBytes = uint32(len(key))
	return c, salt, key, nil
}
