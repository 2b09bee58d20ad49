package scorebox

import (
	"context"
	"fmt"
	"sync"

	"github.com/scorebox-project/scorebox/internal/answers"
	"github.com/scorebox-project/scorebox/internal/engine"
	"github.com/scorebox-project/scorebox/internal/history"
	"github.com/scorebox-project/scorebox/internal/service"
	"github.com/scorebox-project/scorebox/internal/snapshot"
	"github.com/scorebox-project/scorebox/internal/store"
	"github.com/scorebox-project/scorebox/pkg/config"
	"github.com/scorebox-project/scorebox/pkg/logging"
	"github.com/scorebox-project/scorebox/pkg/model"
)

// Client provides high-level scorebox operations over one state dir.
type Client struct {
	mu       sync.Mutex
	stateDir string
	store    *store.EncryptedStore
	answers  *answers.Store
	checker  *service.Checker
	history  *history.Log
}

// Open opens (creating if needed) the state directory and returns a
// client over it.
func Open(stateDir string) (*Client, error) {
	st, err := store.Open(stateDir)
	if err != nil {
		return nil, fmt.Errorf("scorebox open: %w", err)
	}

	cfg, err := config.Load(stateDir)
	if err != nil {
		return nil, fmt.Errorf("scorebox open: %w", err)
	}

	log := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level))
	answerStore := answers.NewStore(stateDir)
	provider := snapshot.New(cfg, answerStore, log)

	return &Client{
		stateDir: stateDir,
		store:    st,
		answers:  answerStore,
		checker:  service.NewChecker(stateDir, st, provider, log),
		history:  history.NewLog(stateDir),
	}, nil
}

// Configured reports whether a rubric has been installed.
func (c *Client) Configured() bool {
	return c.store.Configured()
}

// Configure validates and installs a rubric document. Returns the
// maximum attainable score.
func (c *Client) Configure(rubricJSON []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rubric, err := c.store.SaveDocument(rubricJSON)
	if err != nil {
		return 0, err
	}
	return engine.MaxPoints(rubric), nil
}

// Rubric returns the installed rubric, or nil when none is configured.
func (c *Client) Rubric() (*model.Rubric, error) {
	return c.store.Load()
}

// Score runs one evaluation cycle and returns the report.
func (c *Client) Score(ctx context.Context) (*model.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checker.RunCycle(ctx, "library")
}

// Answer grades one forensic answer attempt. A correct answer counts
// from the next Score call onward.
func (c *Client) Answer(questionID, attempt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	rubric, err := c.store.Load()
	if err != nil {
		return err
	}
	if rubric == nil {
		return fmt.Errorf("scorebox answer: no rubric configured")
	}
	return c.answers.Submit(rubric, questionID, attempt)
}

// Answered returns the question-id -> answered map.
func (c *Client) Answered() (map[string]bool, error) {
	return c.answers.Answered()
}

// History returns every recorded cycle, oldest first.
func (c *Client) History() ([]history.Record, error) {
	return c.history.List()
}

// VerifyHistory walks the history hash chain and returns the number of
// intact records.
func (c *Client) VerifyHistory() (int, error) {
	return c.history.Verify()
}

// Reset removes the installed rubric. The encryption key, answers and
// history are kept.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Reset()
}
