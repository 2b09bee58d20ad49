package snapshot

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorebox-project/scorebox/pkg/config"
	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/logging"
	"github.com/scorebox-project/scorebox/pkg/model"
)

const policyStateDoc = `{
	"device_policies": {"screen_capture_disabled": true, "network_logging_enabled": false},
	"password_policies": {"quality_name": "complex", "expiration_timeout": 86400},
	"system_update_policy": {"policy_type_name": "windowed"},
	"users": [
		{"user_id": 0, "user_name": "owner", "is_owner": true},
		{"user_id": 10, "user_name": "alice", "is_owner": false}
	]
}`

const secureSettingsDoc = `<settings version="1">
  <setting name="foo" value="5"/>
  <setting name="adb_enabled" value="0"/>
</settings>`

type staticAnswers map[string]bool

func (a staticAnswers) Answered() (map[string]bool, error) { return a, nil }

func quietLogger() *logging.Logger {
	l := logging.NewLogger(logging.LevelError)
	l.SetOutput(io.Discard)
	return l
}

// sourceDir writes the given source files into a temp dir and returns a
// config pointing at them. Paths for files not in the map still point
// into the dir, so they read as missing.
func sourceDir(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	cfg := config.Default()
	cfg.Provider = "plain"
	cfg.Sources = config.SourcesConfig{
		PolicyState:    filepath.Join(dir, "policy_state.json"),
		SettingsSecure: filepath.Join(dir, "settings_secure.xml"),
		SettingsSystem: filepath.Join(dir, "settings_system.xml"),
		SettingsGlobal: filepath.Join(dir, "settings_global.xml"),
		PackageIndex:   filepath.Join(dir, "packages.json"),
	}
	return cfg
}

func TestCollectFullSources(t *testing.T) {
	cfg := sourceDir(t, map[string]string{
		"policy_state.json":   policyStateDoc,
		"settings_secure.xml": secureSettingsDoc,
		"settings_system.xml": `<settings/>`,
		"settings_global.xml": `<settings><setting name="g" value="1"/></settings>`,
		"packages.json":       `{"com.good.agent": "2.1.0"}`,
	})
	p := New(cfg, staticAnswers{"q1": true}, quietLogger())

	snap, err := p.Collect(context.Background(), &model.Rubric{})
	require.NoError(t, err)

	require.NotNil(t, snap.DevicePolicies)
	assert.True(t, snap.DevicePolicies.ScreenCaptureDisabled)
	require.NotNil(t, snap.PasswordPolicies)
	assert.Equal(t, "complex", snap.PasswordPolicies.QualityName)
	assert.Nil(t, snap.UserRestrictions) // absent from the source doc

	require.Len(t, snap.Users, 2)
	assert.Equal(t, "alice", snap.Users[1].UserName)

	assert.Equal(t, map[string]string{"foo": "5", "adb_enabled": "0"}, snap.SettingsSecure)
	assert.Empty(t, snap.SettingsSystem)
	assert.NotNil(t, snap.SettingsSystem) // readable-but-empty is not unreadable
	assert.Equal(t, map[string]string{"g": "1"}, snap.SettingsGlobal)

	assert.Equal(t, map[string]string{"com.good.agent": "2.1.0"}, snap.Packages)
	assert.Equal(t, map[string]bool{"q1": true}, snap.Answered)
}

func TestCollectPolicySourceFailureAbortsCycle(t *testing.T) {
	cfg := sourceDir(t, map[string]string{
		"settings_secure.xml": secureSettingsDoc,
	})
	p := New(cfg, nil, quietLogger())

	snap, err := p.Collect(context.Background(), &model.Rubric{})
	assert.ErrorIs(t, err, errclass.ErrSnapshotUnavailable)
	assert.Nil(t, snap)
}

func TestCollectPolicySourceCorrupt(t *testing.T) {
	cfg := sourceDir(t, map[string]string{
		"policy_state.json": `{not json`,
	})
	p := New(cfg, nil, quietLogger())

	_, err := p.Collect(context.Background(), &model.Rubric{})
	assert.ErrorIs(t, err, errclass.ErrSnapshotUnavailable)
}

func TestCollectNamespaceIsolation(t *testing.T) {
	// Secure namespace corrupt, system missing, global fine: only
	// global survives; the cycle itself succeeds.
	cfg := sourceDir(t, map[string]string{
		"policy_state.json":   policyStateDoc,
		"settings_secure.xml": `<settings><broken`,
		"settings_global.xml": `<settings><setting name="g" value="1"/></settings>`,
	})
	p := New(cfg, nil, quietLogger())

	snap, err := p.Collect(context.Background(), &model.Rubric{})
	require.NoError(t, err)
	assert.Nil(t, snap.SettingsSecure)
	assert.Nil(t, snap.SettingsSystem)
	assert.Equal(t, map[string]string{"g": "1"}, snap.SettingsGlobal)
}

func TestCollectPackageIndexUnreadable(t *testing.T) {
	cfg := sourceDir(t, map[string]string{
		"policy_state.json": policyStateDoc,
	})
	p := New(cfg, nil, quietLogger())

	snap, err := p.Collect(context.Background(), &model.Rubric{})
	require.NoError(t, err)
	assert.Nil(t, snap.Packages)
}

func TestCollectFileExistence(t *testing.T) {
	cfg := sourceDir(t, map[string]string{
		"policy_state.json": policyStateDoc,
	})
	existing := filepath.Join(t.TempDir(), "present.txt")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0o644))
	missing := filepath.Join(t.TempDir(), "gone.txt")

	rubric := &model.Rubric{FileDeletions: []string{existing, missing}}
	p := New(cfg, nil, quietLogger())

	snap, err := p.Collect(context.Background(), rubric)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{existing: true, missing: false}, snap.FilesPresent)
}

func TestCollectNoFileRulesNoChecks(t *testing.T) {
	cfg := sourceDir(t, map[string]string{
		"policy_state.json": policyStateDoc,
	})
	p := New(cfg, nil, quietLogger())

	snap, err := p.Collect(context.Background(), &model.Rubric{})
	require.NoError(t, err)
	assert.Nil(t, snap.FilesPresent)
}

func TestParseSettings(t *testing.T) {
	got, err := parseSettings([]byte(secureSettingsDoc))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"foo": "5", "adb_enabled": "0"}, got)

	// Duplicate keys keep the last entry; nameless entries dropped.
	got, err = parseSettings([]byte(`<settings>
		<setting name="k" value="1"/>
		<setting name="k" value="2"/>
		<setting value="orphan"/>
	</settings>`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "2"}, got)

	_, err = parseSettings([]byte(`not xml`))
	assert.Error(t, err)
}

func TestPlainReaderFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	r := plainReader{}
	ok, err := r.FileExists(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.FileExists(context.Background(), filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.False(t, ok)
}
