package domain

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const keyPrefix = "chk_"

// Argon2id parameters for secret hashing.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

var ErrMalformedKey = errors.New("malformed_api_key")

// GenerateKey issues a fresh credential. The returned plaintext is
// "chk_<keyid>.<secret>"; only keyID and the secret hash persist.
func GenerateKey() (plaintext, keyID, secretHash string, err error) {
	rawID := make([]byte, 8)
	if _, err = rand.Read(rawID); err != nil {
		return "", "", "", fmt.Errorf("generate key id: %w", err)
	}
	rawSecret := make([]byte, 24)
	if _, err = rand.Read(rawSecret); err != nil {
		return "", "", "", fmt.Errorf("generate secret: %w", err)
	}

	keyID = hex.EncodeToString(rawID)
	secret := base64.RawURLEncoding.EncodeToString(rawSecret)
	secretHash, err = HashSecret(secret)
	if err != nil {
		return "", "", "", err
	}
	return keyPrefix + keyID + "." + secret, keyID, secretHash, nil
}

// ParseKey splits a presented credential into key id and secret.
func ParseKey(plaintext string) (keyID, secret string, err error) {
	rest, ok := strings.CutPrefix(plaintext, keyPrefix)
	if !ok {
		return "", "", ErrMalformedKey
	}
	keyID, secret, ok = strings.Cut(rest, ".")
	if !ok || keyID == "" || secret == "" {
		return "", "", ErrMalformedKey
	}
	return keyID, secret, nil
}

// HashSecret encodes an argon2id hash in the standard
// $argon2id$v=19$m=...,t=...,p=...$salt$hash form.
func HashSecret(secret string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	hash := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifySecret checks a presented secret against an encoded hash.
func VerifySecret(secret, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return false
	}

	var memory uint32
	var timeCost uint32
	var threads uint8
	{
		params := strings.Split(parts[3], ",")
		if len(params) != 3 {
			return false
		}

		m, ok := strings.CutPrefix(params[0], "m=")
		if !ok {
			return false
		}
		t, ok := strings.CutPrefix(params[1], "t=")
		if !ok {
			return false
		}
		p, ok := strings.CutPrefix(params[2], "p=")
		if !ok {
			return false
		}

		m64, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			return false
		}
		t64, err := strconv.ParseUint(t, 10, 32)
		if err != nil {
			return false
		}
		p64, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return false
		}

		memory = uint32(m64)
		timeCost = uint32(t64)
		threads = uint8(p64)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	check := argon2.IDKey([]byte(secret), salt, timeCost, memory, threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, check) == 1
}
