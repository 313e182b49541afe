package infra

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/privguard/internal/domain"
)

const (
	keyFileName = "profiles.key"
	keySize     = 32 // SQLCipher raw key
)

// Sealer wraps key bytes before they reach disk and unwraps them on read.
type Sealer interface {
	Seal(plain []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// FileKeyProvider keeps the profile database key next to the database.
// On Windows the file holds a DPAPI blob bound to the current user.
type FileKeyProvider struct {
	keyPath string
	sealer  Sealer
}

// NewFileKeyProvider uses the platform sealer.
func NewFileKeyProvider(dataDir string) *FileKeyProvider {
	return NewFileKeyProviderWithSealer(dataDir, platformSealer{})
}

// NewFileKeyProviderWithSealer is used by tests to observe sealing.
func NewFileKeyProviderWithSealer(dataDir string, sealer Sealer) *FileKeyProvider {
	return &FileKeyProvider{keyPath: filepath.Join(dataDir, keyFileName), sealer: sealer}
}

// GetKey reads, decodes and unseals the key.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	raw, err := os.ReadFile(p.keyPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NewOpError("read key", p.keyPath, domain.ErrNotFound, "", err)
	}
	if err != nil {
		return nil, domain.NewOpError("read key", p.keyPath, domain.ErrUnexpected, "", err)
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, domain.NewOpError("decode key", p.keyPath, domain.ErrMalformedOutput, "", err)
	}
	key, err := p.sealer.Open(sealed)
	if err != nil {
		return nil, domain.NewOpError("unseal key", p.keyPath, domain.ErrMalformedOutput, "", err)
	}
	if len(key) != keySize {
		return nil, domain.NewOpError("read key", p.keyPath, domain.ErrMalformedOutput,
			fmt.Sprintf("key is %d bytes, want %d", len(key), keySize), nil)
	}
	return key, nil
}

// StoreKey seals the key and writes it owner-only.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if len(key) != keySize {
		return fmt.Errorf("key is %d bytes, want %d", len(key), keySize)
	}
	sealed, err := p.sealer.Seal(key)
	if err != nil {
		return domain.NewOpError("seal key", p.keyPath, domain.ErrUnexpected, "", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(sealed)
	if err := os.WriteFile(p.keyPath, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// KeyExists reports whether a key file is present.
func (p *FileKeyProvider) KeyExists() bool {
	_, err := os.Stat(p.keyPath)
	return err == nil
}

// GenerateKey returns keySize random bytes.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// EnsureKey returns the stored key, creating one on first use.
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := provider.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// OpenProfileStore opens the encrypted profile store in dataDir.
func OpenProfileStore(dataDir string) (*EncryptedProfileStore, error) {
	key, err := EnsureKey(NewFileKeyProvider(dataDir))
	if err != nil {
		return nil, err
	}
	return NewEncryptedProfileStore(dataDir, key)
}

var _ domain.KeyProvider = (*FileKeyProvider)(nil)
