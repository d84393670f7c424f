package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash signals a malformed Argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// ArgonParams are the Argon2id settings stored inside every encoded hash, so
// changing the config never breaks existing passwords.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func (p ArgonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

// encode renders the PHC string: $argon2id$v=19$m=..,t=..,p=..$salt$hash.
func (p ArgonParams) encode(salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism, b64.EncodeToString(salt), b64.EncodeToString(key))
}

// HashPassword returns a PHC-formatted Argon2id hash for the provided password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	params := paramsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return params.encode(salt, params.derive(password, salt)), nil
}

// VerifyPassword reports whether password matches encoded. A malformed hash
// returns ErrInvalidHash.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(want, params.derive(password, salt)) == 1, nil
}

// NeedsRehash reports whether encoded was produced with settings other than
// the ones cfg asks for today.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	params, _, _, err := decodeHash(encoded)
	if err != nil {
		return true
	}
	return params != paramsFromConfig(cfg)
}

func paramsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func decodeHash(encoded string) (params ArgonParams, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, ErrInvalidHash
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return params, nil, nil, ErrInvalidHash
	}

	var memory, iterations, lanes uint64
	for _, field := range strings.Split(parts[3], ",") {
		name, raw, _ := strings.Cut(field, "=")
		var target *uint64
		bits := 32
		switch name {
		case "m":
			target = &memory
		case "t":
			target = &iterations
		case "p":
			target, bits = &lanes, 8
		default:
			return params, nil, nil, ErrInvalidHash
		}
		if *target, err = strconv.ParseUint(raw, 10, bits); err != nil {
			return params, nil, nil, ErrInvalidHash
		}
	}
	if memory == 0 || iterations == 0 || lanes == 0 {
		return params, nil, nil, ErrInvalidHash
	}

	if salt, err = b64.DecodeString(parts[4]); err != nil {
		return params, nil, nil, ErrInvalidHash
	}
	if key, err = b64.DecodeString(parts[5]); err != nil || len(key) == 0 {
		return params, nil, nil, ErrInvalidHash
	}

	params = ArgonParams{
		Memory:      uint32(memory),
		Time:        uint32(iterations),
		Parallelism: uint8(lanes),
		SaltLen:     uint32(len(salt)),
		KeyLen:      uint32(len(key)),
	}
	return params, salt, key, nil
}

func clamp(value, lo, hi int) int {
	return max(lo, min(value, hi))
}
