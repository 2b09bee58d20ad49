// Package lock serializes state-directory writers across processes.
// Carryover and answer files assume a single writer; a lease-based lock
// file keeps a second scorebox process (say, a watch plus a manual
// score) from interleaving cycles.
package lock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/fsutil"
	"github.com/scorebox-project/scorebox/pkg/uuidutil"
)

const lockFileName = "lock.json"

// DefaultLeaseTTL is how long a lease lives without renewal. A crashed
// holder's lock can be stolen after this.
const DefaultLeaseTTL = 5 * time.Minute

// Record is the persisted lock state.
type Record struct {
	HolderNonce string    `json:"holder_nonce"`
	AcquiredAt  time.Time `json:"acquired_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Purpose     string    `json:"purpose"`
	PID         int       `json:"pid"`
}

// IsExpired reports whether the lease has lapsed.
func (r *Record) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// State describes the lock as seen by Status.
type State string

const (
	StateFree    State = "free"
	StateHeld    State = "held"
	StateExpired State = "expired"
)

// Manager handles the state-directory lock.
type Manager struct {
	stateDir string
	ttl      time.Duration
	mu       sync.Mutex
}

// NewManager creates a lock manager with the default lease TTL.
func NewManager(stateDir string) *Manager {
	return &Manager{stateDir: stateDir, ttl: DefaultLeaseTTL}
}

// Acquire attempts to take the state-dir lock.
func (m *Manager) Acquire(purpose string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.lockPath()
	if err := os.MkdirAll(m.stateDir, 0o700); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	// O_EXCL makes the acquire atomic against other processes.
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			rec, readErr := m.readLock(path)
			if readErr != nil {
				return nil, fmt.Errorf("read existing lock: %w", readErr)
			}
			if rec.IsExpired(time.Now()) {
				return nil, errclass.ErrLockConflict.WithMessage("lock exists but expired, use steal")
			}
			return nil, errclass.ErrLockConflict.WithMessagef("state dir locked by pid %d (%s)", rec.PID, rec.Purpose)
		}
		return nil, fmt.Errorf("create lock: %w", err)
	}
	defer file.Close()

	now := time.Now().UTC()
	rec := &Record{
		HolderNonce: uuidutil.NewV4(),
		AcquiredAt:  now,
		ExpiresAt:   now.Add(m.ttl),
		Purpose:     purpose,
		PID:         os.Getpid(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal lock: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write lock: %w", err)
	}
	if err := file.Sync(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("sync lock: %w", err)
	}
	return rec, nil
}

// Renew extends the lease on a held lock.
func (m *Manager) Renew(holderNonce string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.lockPath()
	rec, err := m.readLock(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errclass.ErrLockNotHeld.WithMessage("no lock held")
		}
		return nil, fmt.Errorf("read lock: %w", err)
	}
	if rec.IsExpired(time.Now()) {
		return nil, errclass.ErrLockExpired.WithMessage("lease has expired")
	}
	if rec.HolderNonce != holderNonce {
		return nil, errclass.ErrLockNotHeld.WithMessage("nonce mismatch")
	}

	rec.ExpiresAt = time.Now().UTC().Add(m.ttl)
	if err := m.updateLock(path, rec); err != nil {
		return nil, fmt.Errorf("update lock: %w", err)
	}
	return rec, nil
}

// Steal takes over a lock whose lease has expired.
func (m *Manager) Steal(purpose string) (*Record, error) {
	m.mu.Lock()

	path := m.lockPath()
	rec, err := m.readLock(path)
	if err != nil {
		m.mu.Unlock()
		if os.IsNotExist(err) {
			return m.Acquire(purpose)
		}
		return nil, fmt.Errorf("read lock: %w", err)
	}
	defer m.mu.Unlock()

	if !rec.IsExpired(time.Now()) {
		return nil, errclass.ErrLockConflict.WithMessage("lock not expired yet")
	}

	now := time.Now().UTC()
	newRec := &Record{
		HolderNonce: uuidutil.NewV4(),
		AcquiredAt:  now,
		ExpiresAt:   now.Add(m.ttl),
		Purpose:     purpose,
		PID:         os.Getpid(),
	}
	if err := m.updateLock(path, newRec); err != nil {
		return nil, fmt.Errorf("steal lock: %w", err)
	}
	return newRec, nil
}

// Release frees the lock. Releasing an already-free lock is a no-op.
func (m *Manager) Release(holderNonce string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.lockPath()
	rec, err := m.readLock(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read lock: %w", err)
	}
	if rec.HolderNonce != holderNonce {
		return errclass.ErrLockNotHeld.WithMessage("cannot release: nonce mismatch")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock: %w", err)
	}
	return nil
}

// Status returns the current lock state.
func (m *Manager) Status() (State, *Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.readLock(m.lockPath())
	if err != nil {
		if os.IsNotExist(err) {
			return StateFree, nil, nil
		}
		return StateFree, nil, fmt.Errorf("read lock: %w", err)
	}
	if rec.IsExpired(time.Now()) {
		return StateExpired, rec, nil
	}
	return StateHeld, rec, nil
}

func (m *Manager) lockPath() string {
	return filepath.Join(m.stateDir, lockFileName)
}

func (m *Manager) readLock(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse lock: %w", err)
	}
	return &rec, nil
}

func (m *Manager) updateLock(path string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal lock: %w", err)
	}
	return fsutil.AtomicWrite(path, data, 0o644)
}
