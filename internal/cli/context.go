package cli

import (
	"os"

	"github.com/scorebox-project/scorebox/internal/answers"
	"github.com/scorebox-project/scorebox/internal/service"
	"github.com/scorebox-project/scorebox/internal/snapshot"
	"github.com/scorebox-project/scorebox/internal/store"
	"github.com/scorebox-project/scorebox/pkg/config"
	"github.com/scorebox-project/scorebox/pkg/logging"
	"github.com/scorebox-project/scorebox/pkg/model"
	"github.com/scorebox-project/scorebox/pkg/webhook"
)

// requireStore opens the encrypted store under the state dir, or exits.
func requireStore() *store.EncryptedStore {
	st, err := store.Open(stateDir())
	if err != nil {
		fmtErr("open store: %v", err)
		os.Exit(1)
	}
	return st
}

// requireRubric loads the configured rubric, or exits. Distinguishes
// "not configured yet" from a corrupted store.
func requireRubric(st *store.EncryptedStore) *model.Rubric {
	rubric, err := st.Load()
	if err != nil {
		fmtErr("load rubric: %v", err)
		os.Exit(1)
	}
	if rubric == nil {
		fmtErr("no rubric configured yet (run 'scorebox configure <rubric.json>' first)")
		os.Exit(1)
	}
	return rubric
}

// loadConfig reads the app config, or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(stateDir())
	if err != nil {
		fmtErr("load config: %v", err)
		os.Exit(1)
	}
	return cfg
}

// newLogger builds the logger from config.
func newLogger(cfg *config.Config) *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(cfg.Logging.Level))
}

// notify sends a one-shot webhook event when notifications are enabled.
// Delivery failures are reported, not fatal.
func notify(cfg *config.Config, send func(*webhook.Client) error) {
	if !cfg.Webhooks.Enabled {
		return
	}
	client := webhook.NewClient(cfg.Webhooks.Webhook())
	if err := send(client); err != nil {
		fmtErr("webhook delivery failed: %v", err)
	}
	client.Close()
}

// buildChecker wires the full evaluation pipeline for the state dir.
func buildChecker(cfg *config.Config, st *store.EncryptedStore, log *logging.Logger) *service.Checker {
	dir := stateDir()
	answerStore := answers.NewStore(dir)
	provider := snapshot.New(cfg, answerStore, log)
	checker := service.NewChecker(dir, st, provider, log)
	if cfg.Webhooks.Enabled {
		checker.SetNotifier(webhook.NewClient(cfg.Webhooks.Webhook()))
	}
	return checker
}
