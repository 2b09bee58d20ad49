package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/scorebox-project/scorebox/internal/rubric"
	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/fsutil"
	"github.com/scorebox-project/scorebox/pkg/model"
)

const blobFileName = "rubric.enc"

// EncryptedStore holds the rubric at rest as a single authenticated
// blob: [1-byte nonce length][nonce][ciphertext with tag]. Saves
// overwrite atomically; a crash never leaves a half-written blob.
type EncryptedStore struct {
	stateDir string
	keyring  Keyring
}

// Open returns a store rooted at stateDir, creating the directory and
// key material on first use.
func Open(stateDir string) (*EncryptedStore, error) {
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		return nil, errclass.ErrStorage.WithMessagef("create state dir: %v", err)
	}
	kr, err := OpenKeyring(stateDir)
	if err != nil {
		return nil, err
	}
	return &EncryptedStore{stateDir: stateDir, keyring: kr}, nil
}

func (s *EncryptedStore) blobPath() string {
	return filepath.Join(s.stateDir, blobFileName)
}

// Configured reports whether a rubric blob is present.
func (s *EncryptedStore) Configured() bool {
	_, err := os.Stat(s.blobPath())
	return err == nil
}

// Save validates nothing: it persists the rubric exactly as given. The
// caller parses and validates before storing so Load never yields an
// invalid document.
func (s *EncryptedStore) Save(r *model.Rubric) error {
	plaintext, err := json.Marshal(r)
	if err != nil {
		return errclass.ErrStorage.WithMessagef("encode rubric: %v", err)
	}

	nonce, ciphertext, err := s.keyring.Seal(plaintext)
	if err != nil {
		return err
	}
	if len(nonce) > 255 {
		return errclass.ErrStorage.WithMessagef("nonce length %d exceeds blob format", len(nonce))
	}

	blob := make([]byte, 0, 1+len(nonce)+len(ciphertext))
	blob = append(blob, byte(len(nonce)))
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	if err := fsutil.AtomicWrite(s.blobPath(), blob, 0o600); err != nil {
		return errclass.ErrStorage.WithMessagef("write blob: %v", err)
	}
	return nil
}

// SaveDocument parses, validates and persists a raw rubric document,
// returning the parsed rubric.
func (s *EncryptedStore) SaveDocument(data []byte) (*model.Rubric, error) {
	r, err := rubric.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := s.Save(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Load returns the stored rubric, or (nil, nil) when no rubric has been
// configured yet. Corruption, truncation or tampering fails closed with
// E_STORAGE; partial plaintext is never returned.
func (s *EncryptedStore) Load() (*model.Rubric, error) {
	blob, err := os.ReadFile(s.blobPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errclass.ErrStorage.WithMessagef("read blob: %v", err)
	}

	if len(blob) < 2 {
		return nil, errclass.ErrStorage.WithMessage("blob truncated")
	}
	nonceLen := int(blob[0])
	if len(blob) < 1+nonceLen {
		return nil, errclass.ErrStorage.WithMessage("blob truncated inside nonce")
	}
	nonce := blob[1 : 1+nonceLen]
	ciphertext := blob[1+nonceLen:]

	plaintext, err := s.keyring.Open(nonce, ciphertext)
	if err != nil {
		return nil, err
	}

	var r model.Rubric
	if err := json.Unmarshal(plaintext, &r); err != nil {
		// Authenticated but undecodable means we stored garbage, which
		// is a storage fault, not a configuration fault.
		return nil, errclass.ErrStorage.WithMessagef("decode rubric: %v", err)
	}
	return &r, nil
}

// Reset deletes the blob, returning the store to the unconfigured
// state. The key material is kept: a later Save reuses it. Resetting an
// already-unconfigured store is a no-op.
func (s *EncryptedStore) Reset() error {
	err := os.Remove(s.blobPath())
	if err != nil && !os.IsNotExist(err) {
		return errclass.ErrStorage.WithMessagef("remove blob: %v", err)
	}
	return nil
}
