package session

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// Sealed files are: sealedMagic + base64(salt | nonce | secretbox).
var sealedMagic = []byte("todo-sealed-v1\n")

const (
	saltLen  = 16
	nonceLen = 24
)

func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealedMagic)
}

func deriveKey(passphrase string, salt []byte) *[32]byte {
	var key [32]byte
	copy(key[:], argon2.IDKey([]byte(passphrase), salt, 1, 64*1024, 4, 32))
	return &key
}

func seal(plain []byte, passphrase string) ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to seal session: %w", err)
	}
	var nonce [nonceLen]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to seal session: %w", err)
	}

	raw := make([]byte, 0, saltLen+nonceLen+len(plain)+secretbox.Overhead)
	raw = append(raw, salt...)
	raw = append(raw, nonce[:]...)
	raw = secretbox.Seal(raw, plain, &nonce, deriveKey(passphrase, salt))

	out := make([]byte, len(sealedMagic)+base64.StdEncoding.EncodedLen(len(raw)))
	copy(out, sealedMagic)
	base64.StdEncoding.Encode(out[len(sealedMagic):], raw)
	return out, nil
}

func open(data []byte, passphrase string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data[len(sealedMagic):])))
	if err != nil {
		return nil, fmt.Errorf("invalid sealed session: %w", err)
	}
	if len(raw) < saltLen+nonceLen+secretbox.Overhead {
		return nil, errors.New("invalid sealed session: too short")
	}

	salt := raw[:saltLen]
	var nonce [nonceLen]byte
	copy(nonce[:], raw[saltLen:saltLen+nonceLen])

	plain, ok := secretbox.Open(nil, raw[saltLen+nonceLen:], &nonce, deriveKey(passphrase, salt))
	if !ok {
		return nil, errors.New("cannot open sealed session: wrong TODO_SESSION_KEY")
	}
	return plain, nil
}
