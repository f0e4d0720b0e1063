package credentials

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/nacl/secretbox"

	"photoflow/internal/logging"
)

const (
	keyFile   = "secret.key"
	tokenFile = "credentials.enc"

	keySize   = 32
	nonceSize = 24
)

// ErrNoCredentials indicates no stored credentials exist; the user has
// not logged in or has logged out.
var ErrNoCredentials = errors.New("credentials: not logged in")

// Credentials is the persisted OAuth state for one Google account.
type Credentials struct {
	ClientID     string    `json:"clientId"`
	ClientSecret string    `json:"clientSecret"`
	RefreshToken string    `json:"refreshToken"`
	AccessToken  string    `json:"accessToken,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Valid reports whether the stored access token is still usable.
func (c *Credentials) Valid(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.Expiry)
}

// Store reads and writes encrypted credentials under a directory. The
// symmetric key lives next to the token file, so the encryption guards
// against casual reads and backup leakage, not a compromised host.
type Store struct {
	dir    string
	logger logging.Logger
}

// NewStore returns a store rooted at dir. The directory is created on
// first save.
func NewStore(dir string, logger logging.Logger) *Store {
	return &Store{dir: dir, logger: logging.Or(logger)}
}

// Save encrypts and writes the credentials, generating the key file on
// first use. Files are owner-readable only.
func (s *Store) Save(creds Credentials) error {
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.RefreshToken == "" {
		return errors.New("credentials: client id, client secret and refresh token are all required")
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	key, err := s.ensureKey()
	if err != nil {
		return err
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, key)

	path := filepath.Join(s.dir, tokenFile)
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	s.logger.Debug("credentials saved to %s", path)
	return nil
}

// Load decrypts and returns the stored credentials. A missing token
// file yields ErrNoCredentials.
func (s *Store) Load() (Credentials, error) {
	sealed, err := os.ReadFile(filepath.Join(s.dir, tokenFile))
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}
	if len(sealed) < nonceSize {
		return Credentials{}, errors.New("credentials: stored file is truncated")
	}

	key, err := s.loadKey()
	if err != nil {
		return Credentials{}, err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return Credentials{}, errors.New("credentials: decryption failed (wrong or replaced key file)")
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decoding credentials: %w", err)
	}
	return creds, nil
}

// Logout removes the stored credentials. The key file is removed too so
// a later login starts clean. Absent files are not an error.
func (s *Store) Logout() error {
	for _, name := range []string{tokenFile, keyFile} {
		err := os.Remove(filepath.Join(s.dir, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", name, err)
		}
	}
	s.logger.Info("logged out; stored credentials removed")
	return nil
}

func (s *Store) ensureKey() (*[keySize]byte, error) {
	key, err := s.loadKey()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var fresh [keySize]byte
	if _, err := rand.Read(fresh[:]); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, keyFile), fresh[:], 0o600); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}
	s.logger.Debug("generated new credentials key")
	return &fresh, nil
}

func (s *Store) loadKey() (*[keySize]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, keyFile))
	if err != nil {
		return nil, err
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("credentials: key file has %d bytes, want %d", len(raw), keySize)
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &key, nil
}
