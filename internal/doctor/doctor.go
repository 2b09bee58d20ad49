// Package doctor runs health checks over a scorebox state directory.
package doctor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/scorebox-project/scorebox/internal/history"
	"github.com/scorebox-project/scorebox/internal/store"
	"github.com/scorebox-project/scorebox/pkg/config"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

// Doctor performs state-directory health checks.
type Doctor struct {
	stateDir string
}

// NewDoctor creates a doctor for a state directory.
func NewDoctor(stateDir string) *Doctor {
	return &Doctor{stateDir: stateDir}
}

// Check runs all diagnostic checks. With strict set, the full history
// chain is verified too.
func (d *Doctor) Check(strict bool) (*Result, error) {
	result := &Result{Healthy: true}

	d.checkStateDir(result)
	d.checkKeyFile(result)
	d.checkRubricBlob(result)
	d.checkConfig(result)
	d.checkSources(result)
	if strict {
		d.checkHistoryChain(result)
	}
	d.checkOrphanTmp(result)

	return result, nil
}

func (d *Doctor) add(result *Result, f Finding) {
	result.Findings = append(result.Findings, f)
	if f.Severity == "critical" || f.Severity == "error" {
		result.Healthy = false
	}
}

func (d *Doctor) checkStateDir(result *Result) {
	info, err := os.Stat(d.stateDir)
	if err != nil {
		d.add(result, Finding{
			Category:    "state",
			Description: "state directory missing",
			Severity:    "critical",
			Path:        d.stateDir,
		})
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		d.add(result, Finding{
			Category:    "state",
			Description: fmt.Sprintf("state directory mode %04o is readable by other users", perm),
			Severity:    "warning",
			Path:        d.stateDir,
		})
	}
}

func (d *Doctor) checkKeyFile(result *Result) {
	path := filepath.Join(d.stateDir, "rubric.key")
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return // not configured yet
	}
	if err != nil {
		d.add(result, Finding{
			Category:    "key",
			Description: fmt.Sprintf("key file unreadable: %v", err),
			Severity:    "critical",
			Path:        path,
		})
		return
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		d.add(result, Finding{
			Category:    "key",
			Description: fmt.Sprintf("key file mode %04o, want 0600", perm),
			Severity:    "error",
			Path:        path,
		})
	}
	if info.Size() != 32 {
		d.add(result, Finding{
			Category:    "key",
			Description: fmt.Sprintf("key file is %d bytes, want 32", info.Size()),
			Severity:    "critical",
			Path:        path,
		})
	}
}

// checkRubricBlob attempts a real decrypt so a tampered or truncated
// blob surfaces here and not at the next scoring cycle.
func (d *Doctor) checkRubricBlob(result *Result) {
	path := filepath.Join(d.stateDir, "rubric.enc")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		d.add(result, Finding{
			Category:    "rubric",
			Description: "no rubric configured",
			Severity:    "info",
			Path:        path,
		})
		return
	}

	st, err := store.Open(d.stateDir)
	if err != nil {
		d.add(result, Finding{
			Category:    "rubric",
			Description: fmt.Sprintf("cannot open store: %v", err),
			Severity:    "critical",
		})
		return
	}
	if _, err := st.Load(); err != nil {
		d.add(result, Finding{
			Category:    "rubric",
			Description: fmt.Sprintf("rubric blob does not decrypt: %v", err),
			Severity:    "critical",
			Path:        path,
		})
	}
}

func (d *Doctor) checkConfig(result *Result) {
	if _, err := config.Load(d.stateDir); err != nil {
		d.add(result, Finding{
			Category:    "config",
			Description: fmt.Sprintf("config.yaml unparseable: %v", err),
			Severity:    "error",
			Path:        filepath.Join(d.stateDir, "config.yaml"),
		})
	}
}

func (d *Doctor) checkSources(result *Result) {
	cfg, err := config.Load(d.stateDir)
	if err != nil {
		return // reported by checkConfig
	}
	for name, path := range map[string]string{
		"policy_state":    cfg.Sources.PolicyState,
		"settings_secure": cfg.Sources.SettingsSecure,
		"settings_system": cfg.Sources.SettingsSystem,
		"settings_global": cfg.Sources.SettingsGlobal,
		"package_index":   cfg.Sources.PackageIndex,
	} {
		if _, err := os.Stat(path); err != nil {
			// Elevated reads may still succeed; flag it, don't fail.
			d.add(result, Finding{
				Category:    "sources",
				Description: fmt.Sprintf("source %s not readable without elevation", name),
				Severity:    "warning",
				Path:        path,
			})
		}
	}
}

func (d *Doctor) checkHistoryChain(result *Result) {
	log := history.NewLog(d.stateDir)
	if _, err := log.Verify(); err != nil {
		d.add(result, Finding{
			Category:    "history",
			Description: fmt.Sprintf("history chain verification failed: %v", err),
			Severity:    "error",
			Path:        filepath.Join(d.stateDir, "history.jsonl"),
		})
	}
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	matches, _ := filepath.Glob(filepath.Join(d.stateDir, ".scorebox-tmp-*"))
	for _, m := range matches {
		d.add(result, Finding{
			Category:    "state",
			Description: "orphan temp file from an interrupted write",
			Severity:    "warning",
			Path:        m,
		})
	}
}
