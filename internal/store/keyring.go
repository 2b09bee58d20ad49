// Package store persists the rubric at rest under an authenticated
// cipher so the party being scored can neither read nor tamper with it.
package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/fsutil"
)

// Keyring grants use of the store's symmetric key without ever handing
// out the key material itself. Callers can seal and open; they cannot
// export.
type Keyring interface {
	// Seal encrypts plaintext with a fresh random nonce and returns
	// (nonce, ciphertext-with-tag).
	Seal(plaintext []byte) (nonce, ciphertext []byte, err error)
	// Open authenticates and decrypts. It fails closed: any tag
	// mismatch returns an error and no plaintext.
	Open(nonce, ciphertext []byte) ([]byte, error)
}

const keyFileName = "rubric.key"

// fileKeyring is an AES-256-GCM keyring whose key lives in a 0600 file
// inside the state directory. The key is generated once on first use
// and reused for the lifetime of the store; only this package reads the
// file.
type fileKeyring struct {
	aead cipher.AEAD
}

// OpenKeyring loads the key file under stateDir, generating it on first
// use.
func OpenKeyring(stateDir string) (Keyring, error) {
	path := filepath.Join(stateDir, keyFileName)

	key, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		key = make([]byte, 32)
		if _, rerr := rand.Read(key); rerr != nil {
			return nil, errclass.ErrStorage.WithMessagef("generate key: %v", rerr)
		}
		if werr := fsutil.AtomicWrite(path, key, 0o600); werr != nil {
			return nil, errclass.ErrStorage.WithMessagef("persist key: %v", werr)
		}
	} else if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("read key: %v", err)
	} else if len(key) != 32 {
		return nil, errclass.ErrStorage.WithMessagef("key file %s is %d bytes, want 32", keyFileName, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("init cipher: %v", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("init aead: %v", err)
	}
	return &fileKeyring{aead: aead}, nil
}

func (k *fileKeyring) Seal(plaintext []byte) ([]byte, []byte, error) {
	nonce := make([]byte, k.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, errclass.ErrStorage.WithMessagef("generate nonce: %v", err)
	}
	return nonce, k.aead.Seal(nil, nonce, plaintext, nil), nil
}

func (k *fileKeyring) Open(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != k.aead.NonceSize() {
		return nil, errclass.ErrStorage.WithMessage(fmt.Sprintf("nonce is %d bytes, want %d", len(nonce), k.aead.NonceSize()))
	}
	plaintext, err := k.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errclass.ErrStorage.WithMessage("authentication failed: blob corrupt or tampered")
	}
	return plaintext, nil
}
