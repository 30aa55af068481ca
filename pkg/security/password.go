package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/angelmondragon/prostore-backend/pkg/config"
)

// ErrInvalidHash signals a stored hash that is neither argon2id nor bcrypt.
var ErrInvalidHash = errors.New("invalid password hash")

const argonVersionTag = "$argon2id$v="

var b64 = base64.RawStdEncoding

// argonHash is the decoded PHC form: $argon2id$v=19$m=..,t=..,p=..$salt$key.
type argonHash struct {
	version uint32
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (h argonHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		h.version, h.memory, h.time, h.threads, b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

// HashPassword derives an argon2id hash using the configured cost. Out of
// range settings are clamped.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	h := argonHash{
		version: argon2.Version,
		memory:  uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		time:    uint32(clamp(cfg.ArgonTime, 1, 10)),
		threads: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		salt:    make([]byte, clamp(cfg.ArgonSaltLen, 8, 64)),
	}
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	h.key = argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(clamp(cfg.ArgonKeyLen, 16, 64)))
	return h.String(), nil
}

// VerifyPassword reports whether password matches encoded. Bcrypt hashes
// from accounts created before the argon2id switch are still accepted; see
// IsLegacyHash.
func VerifyPassword(password, encoded string) (bool, error) {
	if IsLegacyHash(encoded) {
		switch err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)); {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, ErrInvalidHash
		}
	}

	h, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(h.key, got) == 1, nil
}

// IsLegacyHash reports whether encoded is a bcrypt hash that should be
// rewritten as argon2id after the next successful login.
func IsLegacyHash(encoded string) bool {
	if len(encoded) < 4 || encoded[0] != '$' || encoded[1] != '2' || encoded[3] != '$' {
		return false
	}
	return strings.ContainsRune("aby", rune(encoded[2]))
}

func parseArgonHash(encoded string) (argonHash, error) {
	if !strings.HasPrefix(encoded, argonVersionTag) {
		return argonHash{}, ErrInvalidHash
	}
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 {
		return argonHash{}, ErrInvalidHash
	}

	var h argonHash
	if _, err := fmt.Sscanf(fields[2], "v=%d", &h.version); err != nil || h.version != argon2.Version {
		return argonHash{}, ErrInvalidHash
	}
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &h.threads); err != nil {
		return argonHash{}, ErrInvalidHash
	}

	var err error
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return argonHash{}, ErrInvalidHash
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return argonHash{}, ErrInvalidHash
	}
	return h, nil
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}
