package snapshot

import (
	"context"
	"encoding/json"

	"github.com/scorebox-project/scorebox/pkg/config"
	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/logging"
	"github.com/scorebox-project/scorebox/pkg/model"
)

// Provider constructs one fresh Snapshot per evaluation cycle.
type Provider interface {
	// Collect reads live system state. A total failure (policy source
	// unreadable) returns E_SNAPSHOT_UNAVAILABLE and no snapshot;
	// per-namespace failures degrade to nil sections instead.
	Collect(ctx context.Context, r *model.Rubric) (*model.Snapshot, error)
}

// AnsweredSource supplies the forensics answered-map. The answers
// store owns it; the provider only reads.
type AnsweredSource interface {
	Answered() (map[string]bool, error)
}

// policyDocument is the on-disk shape of the policy-state source: the
// policy families plus the user profile table, as exported by the
// policy manager.
type policyDocument struct {
	DevicePolicies         *model.DevicePoliciesState     `json:"device_policies"`
	UserRestrictions       *model.UserRestrictionsState   `json:"user_restrictions"`
	PasswordPolicies       *model.PasswordPoliciesState   `json:"password_policies"`
	AdditionalRestrictions *model.AdditionalRestrictState `json:"additional_restrictions"`
	SystemUpdatePolicy     *model.SystemUpdateState       `json:"system_update_policy"`
	Users                  []model.UserProfile            `json:"users"`
}

// systemProvider reads the configured sources through a reader. Which
// reader depends on the provider mode: privileged, plain, or auto
// (probe elevation once at startup, fall back to plain).
type systemProvider struct {
	sources config.SourcesConfig
	reader  reader
	answers AnsweredSource
	log     *logging.Logger
}

// New selects and builds a provider from the app config.
func New(cfg *config.Config, answers AnsweredSource, log *logging.Logger) Provider {
	p := &systemProvider{
		sources: cfg.Sources,
		answers: answers,
		log:     log.Component("snapshot"),
	}

	elevated := elevatedReader{prefix: cfg.Elevate}
	switch cfg.Provider {
	case "privileged":
		p.reader = elevated
	case "plain":
		p.reader = plainReader{}
	default: // auto
		if elevated.probe(context.Background()) {
			p.reader = elevated
		} else {
			p.reader = plainReader{}
		}
	}
	p.log.Debug("provider selected", map[string]any{"reader": p.reader.Name()})
	return p
}

func (p *systemProvider) Collect(ctx context.Context, r *model.Rubric) (*model.Snapshot, error) {
	snap := &model.Snapshot{}

	// The policy source carries the user table too; without it neither
	// policy nor entity rules can grade, so its failure aborts the
	// whole cycle.
	data, err := p.reader.ReadFile(ctx, p.sources.PolicyState)
	if err != nil {
		return nil, errclass.ErrSnapshotUnavailable.WithMessagef("read policy state %s: %v", p.sources.PolicyState, err)
	}
	var doc policyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errclass.ErrSnapshotUnavailable.WithMessagef("decode policy state %s: %v", p.sources.PolicyState, err)
	}
	snap.DevicePolicies = doc.DevicePolicies
	snap.UserRestrictions = doc.UserRestrictions
	snap.PasswordPolicies = doc.PasswordPolicies
	snap.AdditionalRestrictions = doc.AdditionalRestrictions
	snap.SystemUpdatePolicy = doc.SystemUpdatePolicy
	snap.Users = doc.Users

	// Everything below degrades independently: a nil section makes the
	// evaluator skip just that rule family.
	snap.SettingsSecure = p.collectSettings(ctx, "secure", p.sources.SettingsSecure)
	snap.SettingsSystem = p.collectSettings(ctx, "system", p.sources.SettingsSystem)
	snap.SettingsGlobal = p.collectSettings(ctx, "global", p.sources.SettingsGlobal)
	snap.Packages = p.collectPackages(ctx)
	snap.FilesPresent = p.collectFiles(ctx, r)
	snap.Answered = p.collectAnswered()

	return snap, nil
}

func (p *systemProvider) collectSettings(ctx context.Context, namespace, path string) map[string]string {
	data, err := p.reader.ReadFile(ctx, path)
	if err != nil {
		p.log.Warn("settings namespace unreadable", map[string]any{"namespace": namespace, "path": path, "error": err.Error()})
		return nil
	}
	settings, err := parseSettings(data)
	if err != nil {
		p.log.Warn("settings namespace unparseable", map[string]any{"namespace": namespace, "path": path, "error": err.Error()})
		return nil
	}
	return settings
}

func (p *systemProvider) collectPackages(ctx context.Context) map[string]string {
	data, err := p.reader.ReadFile(ctx, p.sources.PackageIndex)
	if err != nil {
		p.log.Warn("package index unreadable", map[string]any{"path": p.sources.PackageIndex, "error": err.Error()})
		return nil
	}
	var packages map[string]string
	if err := json.Unmarshal(data, &packages); err != nil {
		p.log.Warn("package index unparseable", map[string]any{"path": p.sources.PackageIndex, "error": err.Error()})
		return nil
	}
	if packages == nil {
		packages = map[string]string{}
	}
	return packages
}

// collectFiles checks existence for every rubric deletion path. A check
// that fails outright leaves the path out of the map so only that rule
// is skipped.
func (p *systemProvider) collectFiles(ctx context.Context, r *model.Rubric) map[string]bool {
	if r == nil || len(r.FileDeletions) == 0 {
		return nil
	}
	present := make(map[string]bool, len(r.FileDeletions))
	for _, path := range r.FileDeletions {
		exists, err := p.reader.FileExists(ctx, path)
		if err != nil {
			p.log.Warn("existence check failed", map[string]any{"path": path, "error": err.Error()})
			continue
		}
		present[path] = exists
	}
	return present
}

func (p *systemProvider) collectAnswered() map[string]bool {
	if p.answers == nil {
		return nil
	}
	answered, err := p.answers.Answered()
	if err != nil {
		p.log.Warn("answered map unreadable", map[string]any{"error": err.Error()})
		return nil
	}
	return answered
}
