package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// TokenSealer encrypts short secrets, such as the API access token, before
// they are written to the metadata database. It uses an age X25519 identity
// kept in a key file readable only by its owner, so unattended runs can open
// the secret without a passphrase while copies of the database alone cannot.
type TokenSealer struct {
	keyPath string
}

// NewTokenSealer creates a TokenSealer using the identity stored at keyPath.
func NewTokenSealer(keyPath string) *TokenSealer {
	return &TokenSealer{keyPath: keyPath}
}

// KeyPath returns the location of the identity file.
func (s *TokenSealer) KeyPath() string {
	return s.keyPath
}

// IsConfigured reports whether the identity file exists.
func (s *TokenSealer) IsConfigured() bool {
	_, err := os.Stat(s.keyPath)
	return err == nil
}

// Setup generates the identity file unless it already exists.
func (s *TokenSealer) Setup() error {
	if s.IsConfigured() {
		return nil
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.keyPath), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}

	f, err := os.OpenFile(s.keyPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("creating key file: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, identity.String()+"\n"); err != nil {
		return fmt.Errorf("writing key file: %w", err)
	}
	return nil
}

// Seal encrypts plaintext and returns it ASCII-armored.
func (s *TokenSealer) Seal(plaintext string) (string, error) {
	identity, err := s.loadIdentity()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	armored := armor.NewWriter(&buf)
	w, err := age.Encrypt(armored, identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("creating encrypted writer: %w", err)
	}
	if _, err := io.WriteString(w, plaintext); err != nil {
		return "", fmt.Errorf("encrypting: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}
	if err := armored.Close(); err != nil {
		return "", fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.String(), nil
}

// Open decrypts a value produced by Seal.
func (s *TokenSealer) Open(sealed string) (string, error) {
	identity, err := s.loadIdentity()
	if err != nil {
		return "", err
	}

	r, err := age.Decrypt(armor.NewReader(strings.NewReader(sealed)), identity)
	if err != nil {
		return "", fmt.Errorf("decrypting: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading decrypted value: %w", err)
	}
	return string(data), nil
}

func (s *TokenSealer) loadIdentity() (*age.X25519Identity, error) {
	data, err := os.ReadFile(s.keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	identity, err := age.ParseX25519Identity(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}
	return identity, nil
}
