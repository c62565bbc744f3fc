package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// MaxPasswordLength bounds hashing cost for oversized inputs.
const MaxPasswordLength = 1024

// ErrPasswordTooLong is returned when a password exceeds MaxPasswordLength bytes.
var ErrPasswordTooLong = errors.New("password exceeds maximum length")

var errMalformedHash = errors.New("malformed password hash")

// HashParams are the Argon2id cost settings recorded in every encoded hash.
type HashParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  int
	KeyLength   uint32
}

// DefaultHashParams is the cost used for new passwords.
var DefaultHashParams = HashParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// HashPassword hashes password with DefaultHashParams.
func HashPassword(password string) (string, error) {
	return DefaultHashParams.Hash(password)
}

// Hash returns the PHC-style encoding of password:
// $argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<key>
func (p HashParams) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$%s$%s$%s",
		argon2.Version, p.encode(), b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches encodedHash.
// A malformed hash is reported as a mismatch, not an error.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > MaxPasswordLength {
		return false, nil
	}

	stored, err := parseHash(encodedHash)
	if err != nil {
		//nolint:nilerr // a bad hash must look like a wrong password
		return false, nil
	}

	p := stored.params
	candidate := argon2.IDKey([]byte(password), stored.salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	return subtle.ConstantTimeCompare(stored.key, candidate) == 1, nil
}

// NeedsRehash reports whether encodedHash was produced with settings other
// than p, so it should be replaced after the next successful login.
func (p HashParams) NeedsRehash(encodedHash string) bool {
	stored, err := parseHash(encodedHash)
	if err != nil {
		return true
	}
	s := stored.params
	return s.Memory != p.Memory || s.Iterations != p.Iterations ||
		s.Parallelism != p.Parallelism || s.KeyLength != p.KeyLength
}

func (p HashParams) encode() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d", p.Memory, p.Iterations, p.Parallelism)
}

type parsedHash struct {
	params HashParams
	salt   []byte
	key    []byte
}

func parseHash(encoded string) (*parsedHash, error) {
	// Leading "$" yields an empty first field.
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" {
		return nil, errMalformedHash
	}
	if fields[1] != "argon2id" {
		return nil, fmt.Errorf("unsupported algorithm %q", fields[1])
	}
	if fields[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return nil, fmt.Errorf("unsupported version %q", fields[2])
	}

	var out parsedHash
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &out.params.Memory, &out.params.Iterations, &out.params.Parallelism); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedHash, err)
	}
	if out.params.encode() != fields[3] {
		return nil, errMalformedHash
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(fields[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", errMalformedHash, err)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(fields[5]); err != nil {
		return nil, fmt.Errorf("%w: key: %v", errMalformedHash, err)
	}
	if len(out.key) == 0 {
		return nil, errMalformedHash
	}
	out.params.SaltLength = len(out.salt)
	//nolint:gosec // key length is bounded by the encoded hash
	out.params.KeyLength = uint32(len(out.key))
	return &out, nil
}
