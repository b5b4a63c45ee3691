package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

// SealedStore encrypts values before handing them to the wrapped Store.
// Values that no longer open (for example after a secret change) read as
// ErrNotFound.
type SealedStore struct {
	Store
	key [32]byte
}

// NewSealedStore derives a key from secret and wraps inner.
func NewSealedStore(inner Store, secret string) (*SealedStore, error) {
	if secret == "" {
		return nil, errors.New("session secret must not be empty")
	}
	s := &SealedStore{Store: inner}
	h := hkdf.New(sha256.New, []byte(secret), nil, []byte("pkweb session values"))
	if _, err := io.ReadFull(h, s.key[:]); err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}
	return s, nil
}

func (s *SealedStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	sealed, err := s.Store.Get(ctx, sessionID, key)
	if err != nil {
		return "", err
	}
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrNotFound
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrNotFound
	}
	return string(plain), nil
}

func (s *SealedStore) Set(ctx context.Context, sessionID, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.Store.Set(ctx, sessionID, key, base64.RawURLEncoding.EncodeToString(sealed))
}
