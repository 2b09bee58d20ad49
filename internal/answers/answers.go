// Package answers owns the forensics question flow: the persisted
// answered-map the evaluator reads, and the wrong-answer cooldown that
// rate-limits guessing.
package answers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/fsutil"
	"github.com/scorebox-project/scorebox/pkg/metrics"
	"github.com/scorebox-project/scorebox/pkg/model"
)

const (
	answersFileName   = "answers.json"
	cooldownsFileName = "cooldowns.json"

	// Cooldown after a wrong answer before the same question may be
	// attempted again.
	cooldownWindow = 2 * time.Minute
)

// Store persists answered state and cooldowns under the state dir.
// Both files are plain JSON: they carry no secrets (the expected
// answers live only inside the encrypted rubric).
type Store struct {
	mu       sync.Mutex
	stateDir string
	now      func() time.Time
}

// NewStore returns a store rooted at stateDir.
func NewStore(stateDir string) *Store {
	return &Store{stateDir: stateDir, now: time.Now}
}

// Answered returns the question-id -> answered-correctly map. A missing
// file is an empty map, not an error.
func (s *Store) Answered() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAnswered()
}

func (s *Store) readAnswered() (map[string]bool, error) {
	answered := map[string]bool{}
	if err := s.readJSON(answersFileName, &answered); err != nil {
		return nil, err
	}
	return answered, nil
}

func (s *Store) readCooldowns() (map[string]int64, error) {
	cooldowns := map[string]int64{}
	if err := s.readJSON(cooldownsFileName, &cooldowns); err != nil {
		return nil, err
	}
	return cooldowns, nil
}

func (s *Store) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.stateDir, name))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errclass.ErrStorage.WithMessagef("read %s: %v", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errclass.ErrStorage.WithMessagef("decode %s: %v", name, err)
	}
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errclass.ErrStorage.WithMessagef("encode %s: %v", name, err)
	}
	if err := fsutil.AtomicWrite(filepath.Join(s.stateDir, name), data, 0o644); err != nil {
		return errclass.ErrStorage.WithMessagef("write %s: %v", name, err)
	}
	return nil
}

// Submit grades one answer attempt against the rubric's question set.
// Comparison is case-insensitive with surrounding whitespace ignored. A
// wrong attempt starts the cooldown window for that question; attempts
// inside the window are rejected without grading. Re-answering an
// already-answered question succeeds without touching state.
func (s *Store) Submit(r *model.Rubric, questionID, attempt string) error {
	q, ok := r.ForensicsQuestions[questionID]
	if !ok {
		return errclass.ErrConfigInvalid.WithMessagef("unknown question %q", questionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	answered, err := s.readAnswered()
	if err != nil {
		return err
	}
	if answered[questionID] {
		return nil
	}

	cooldowns, err := s.readCooldowns()
	if err != nil {
		return err
	}
	if last, ok := cooldowns[questionID]; ok {
		remaining := cooldownWindow - s.now().Sub(time.UnixMilli(last))
		if remaining > 0 {
			return errclass.ErrCooldownActive.WithMessagef(
				"question %q locked for %s after a wrong answer", questionID, remaining.Round(time.Second))
		}
	}

	if !answerMatches(q.Answer, attempt) {
		metrics.Default().RecordAnswer(false)
		cooldowns[questionID] = s.now().UnixMilli()
		if err := s.writeJSON(cooldownsFileName, cooldowns); err != nil {
			return err
		}
		return errclass.ErrAnswerIncorrect.WithMessagef("wrong answer for question %q", questionID)
	}

	metrics.Default().RecordAnswer(true)
	answered[questionID] = true
	if err := s.writeJSON(answersFileName, answered); err != nil {
		return err
	}
	// Clear any stale cooldown so the file does not grow forever.
	if _, ok := cooldowns[questionID]; ok {
		delete(cooldowns, questionID)
		if err := s.writeJSON(cooldownsFileName, cooldowns); err != nil {
			return err
		}
	}
	return nil
}

// CooldownRemaining reports how long question is still locked, zero if
// attemptable now.
func (s *Store) CooldownRemaining(questionID string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cooldowns, err := s.readCooldowns()
	if err != nil {
		return 0, err
	}
	last, ok := cooldowns[questionID]
	if !ok {
		return 0, nil
	}
	remaining := cooldownWindow - s.now().Sub(time.UnixMilli(last))
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// Reset deletes both files, forgetting all answers and cooldowns.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{answersFileName, cooldownsFileName} {
		if err := os.Remove(filepath.Join(s.stateDir, name)); err != nil && !os.IsNotExist(err) {
			return errclass.ErrStorage.WithMessagef("remove %s: %v", name, err)
		}
	}
	return nil
}

func answerMatches(expected, attempt string) bool {
	return strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(attempt))
}
