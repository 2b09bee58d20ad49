package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorebox-project/scorebox/pkg/model"
)

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(n int64) *int64 { return &n }

func basePoints() *model.PointTable {
	return &model.PointTable{
		PolicyPoints:       5,
		SettingsPoints:     3,
		FileDeletionPoints: 4,
		AppInstallPoints:   6,
		AppDeletionPoints:  6,
		UpdatePoints:       7,
		UserPoints:         10,
		UserPenalty:        8,
		AppPenalty:         8,
		ForensicsPoints:    12,
	}
}

func itemByKey(items []model.ScoreItem, key model.ItemKey) (model.ScoreItem, bool) {
	for _, item := range items {
		if item.Key == key {
			return item, true
		}
	}
	return model.ScoreItem{}, false
}

func TestEvaluateUserAdditionTransition(t *testing.T) {
	rubric := &model.Rubric{
		UserAdditions: []string{"alice"},
		Points:        basePoints(),
	}

	// Cycle 1: alice exists, one award item.
	snap := &model.Snapshot{
		Users: []model.UserProfile{{UserID: 10, UserName: "alice"}},
	}
	items, carry := Evaluate(rubric, snap, nil)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Points)
	assert.Equal(t, model.ItemKey{Category: model.CategoryUsers, Subject: "alice", Variant: "added"}, items[0].Key)
	assert.Equal(t, []string{"alice"}, carry.PreviousUsers)

	// Cycle 2: alice gone, one penalty item with a distinct key. The
	// award from cycle 1 does not reappear.
	items, carry = Evaluate(rubric, &model.Snapshot{}, carry)
	require.Len(t, items, 1)
	assert.Equal(t, -8, items[0].Points)
	assert.Equal(t, model.ItemKey{Category: model.CategoryUsers, Subject: "alice", Variant: "removed-penalty"}, items[0].Key)
	assert.Empty(t, carry.PreviousUsers)

	// Cycle 3: still gone and no longer in carryover, nothing fires.
	items, _ = Evaluate(rubric, &model.Snapshot{}, carry)
	assert.Empty(t, items)
}

func TestEvaluateUserNamesNormalizedOnBothSides(t *testing.T) {
	// "José" (decomposed) and "José" (precomposed) render
	// identically; grading must not depend on which form either side
	// carries.
	const nfd = "José"
	const nfc = "José"

	rubric := &model.Rubric{
		UserAdditions:   []string{nfd},
		AuthorizedUsers: []string{nfd},
		Points:          basePoints(),
	}

	for _, observed := range []string{nfd, nfc} {
		snap := &model.Snapshot{
			Users: []model.UserProfile{{UserID: 10, UserName: observed}},
		}
		items, carry := Evaluate(rubric, snap, nil)
		require.Len(t, items, 1, "observed form %q", observed)
		assert.Equal(t,
			model.ItemKey{Category: model.CategoryUsers, Subject: nfc, Variant: "added"},
			items[0].Key)
		// Carryover stores the normalized form.
		assert.Equal(t, []string{nfc}, carry.PreviousUsers)
	}

	// The authorized-user rule sees the same normalized set: no
	// missing-user penalty while either form is present.
	items, _ := Evaluate(rubric, &model.Snapshot{}, nil)
	require.Len(t, items, 1)
	assert.Equal(t,
		model.ItemKey{Category: model.CategoryUsers, Subject: nfc, Variant: "authorized-missing"},
		items[0].Key)
}

func TestEvaluateAuthorizedAndUnauthorizedUsers(t *testing.T) {
	rubric := &model.Rubric{
		AuthorizedUsers:   []string{"owner"},
		UnauthorizedUsers: []string{"mallory"},
		Points:            basePoints(),
	}

	// Both present: penalty for nothing, and mallory still present
	// earns nothing.
	snap := &model.Snapshot{
		Users: []model.UserProfile{
			{UserName: "owner", IsOwner: true},
			{UserName: "mallory"},
		},
	}
	items, _ := Evaluate(rubric, snap, nil)
	assert.Empty(t, items)

	// Owner removed, mallory removed: one penalty, one award.
	items, _ = Evaluate(rubric, &model.Snapshot{}, nil)
	require.Len(t, items, 2)

	penalty, ok := itemByKey(items, model.ItemKey{Category: model.CategoryUsers, Subject: "owner", Variant: "authorized-missing"})
	require.True(t, ok)
	assert.Equal(t, -8, penalty.Points)

	award, ok := itemByKey(items, model.ItemKey{Category: model.CategoryUsers, Subject: "mallory", Variant: "unauthorized-gone"})
	require.True(t, ok)
	assert.Equal(t, 10, award.Points)
}

func TestEvaluatePolicyFamilies(t *testing.T) {
	rubric := &model.Rubric{
		DeviceRestrictions: &model.DeviceRestrictions{
			ScreenCaptureDisabled: boolPtr(true),
			NetworkLoggingEnabled: boolPtr(true),
		},
		PasswordPolicies: &model.PasswordPolicies{
			QualityNames:      []string{"complex", "alphanumeric"},
			ExpirationTimeout: int64Ptr(86400),
		},
		SystemUpdatePolicy: &model.SystemUpdatePolicy{PolicyTypeName: "windowed"},
		Points:             basePoints(),
	}
	snap := &model.Snapshot{
		DevicePolicies: &model.DevicePoliciesState{
			ScreenCaptureDisabled: true,
			NetworkLoggingEnabled: false,
		},
		PasswordPolicies: &model.PasswordPoliciesState{
			QualityName:       "alphanumeric",
			ExpirationTimeout: 3600,
		},
		SystemUpdatePolicy: &model.SystemUpdateState{PolicyTypeName: "windowed"},
	}

	items, _ := Evaluate(rubric, snap, nil)
	require.Len(t, items, 3)

	// Each sub-expectation grades independently: screen capture and
	// quality membership matched, network logging and expiration did not.
	_, ok := itemByKey(items, model.ItemKey{Category: model.CategoryPolicy, Subject: "screen-capture"})
	assert.True(t, ok)
	_, ok = itemByKey(items, model.ItemKey{Category: model.CategoryPolicy, Subject: "network-logging"})
	assert.False(t, ok)
	_, ok = itemByKey(items, model.ItemKey{Category: model.CategoryPolicy, Subject: "password-quality"})
	assert.True(t, ok)
	_, ok = itemByKey(items, model.ItemKey{Category: model.CategoryPolicy, Subject: "password-expiration"})
	assert.False(t, ok)

	update, ok := itemByKey(items, model.ItemKey{Category: model.CategoryPolicy, Subject: "system-update"})
	require.True(t, ok)
	assert.Equal(t, 7, update.Points)
}

func TestEvaluatePolicyFamilySkippedWhenUnobserved(t *testing.T) {
	rubric := &model.Rubric{
		UserRestrictions: &model.UserRestrictions{NoConfigWifi: boolPtr(true)},
		Points:           basePoints(),
	}
	// The policy source did not yield this family; nothing is graded,
	// satisfied or not.
	items, _ := Evaluate(rubric, &model.Snapshot{}, nil)
	assert.Empty(t, items)
}

func TestEvaluateSettingsStringComparison(t *testing.T) {
	rubric := &model.Rubric{
		SettingsSecure: map[string]int64{"foo": 5},
		SettingsGlobal: map[string]int64{"adb_enabled": 0},
		Points:         basePoints(),
	}

	snap := &model.Snapshot{
		SettingsSecure: map[string]string{"foo": "5"},
		SettingsGlobal: map[string]string{"adb_enabled": "1"},
	}
	items, _ := Evaluate(rubric, snap, nil)
	require.Len(t, items, 1)
	assert.Equal(t, model.ItemKey{Category: model.CategorySettings, Subject: "foo", Variant: "secure"}, items[0].Key)
	assert.Equal(t, 3, items[0].Points)

	// Wrong value or missing key: zero items, never a penalty.
	snap.SettingsSecure["foo"] = "6"
	delete(snap.SettingsGlobal, "adb_enabled")
	items, _ = Evaluate(rubric, snap, nil)
	assert.Empty(t, items)
}

func TestEvaluateSettingsNamespaceUnreadable(t *testing.T) {
	rubric := &model.Rubric{
		SettingsSecure: map[string]int64{"foo": 5},
		SettingsSystem: map[string]int64{"bar": 1},
		Points:         basePoints(),
	}
	// Secure namespace unreadable (nil), system readable. Only the
	// readable namespace grades.
	snap := &model.Snapshot{
		SettingsSystem: map[string]string{"bar": "1"},
	}
	items, _ := Evaluate(rubric, snap, nil)
	require.Len(t, items, 1)
	assert.Equal(t, model.ItemKey{Category: model.CategorySettings, Subject: "bar", Variant: "system"}, items[0].Key)
}

func TestEvaluateFileDeletions(t *testing.T) {
	rubric := &model.Rubric{
		FileDeletions: []string{"/tmp/x", "/etc/bad.conf", "/opt/unknown"},
		Points:        basePoints(),
	}
	snap := &model.Snapshot{
		FilesPresent: map[string]bool{
			"/tmp/x":        true,  // still exists, no item
			"/etc/bad.conf": false, // deleted, award
			// /opt/unknown absent from the map: the check itself
			// failed, rule skipped.
		},
	}
	items, _ := Evaluate(rubric, snap, nil)
	require.Len(t, items, 1)
	assert.Equal(t, model.ItemKey{Category: model.CategoryFiles, Subject: "/etc/bad.conf"}, items[0].Key)
	assert.Equal(t, 4, items[0].Points)
	assert.Equal(t, "bad.conf has been deleted", items[0].Description)
}

func TestEvaluateApps(t *testing.T) {
	rubric := &model.Rubric{
		AppDeletions: []string{"com.bad.tool"},
		AppInstalls:  []string{"com.good.agent"},
		AppUpdates: map[string]string{
			"com.app.current": "2.1.0",
			"com.app.stale":   "2.1.0",
			"com.app.equal":   "2.1.0",
			"com.app.broken":  "2.1.0",
		},
		Points: basePoints(),
	}
	snap := &model.Snapshot{
		Packages: map[string]string{
			"com.good.agent":  "1.0",
			"com.app.current": "2.10.0",
			"com.app.stale":   "2.0.9",
			"com.app.equal":   "2.1.0",
			"com.app.broken":  "2.x",
		},
	}

	items, _ := Evaluate(rubric, snap, nil)
	require.Len(t, items, 3)

	_, ok := itemByKey(items, model.ItemKey{Category: model.CategoryApps, Subject: "com.bad.tool", Variant: "deleted"})
	assert.True(t, ok)
	_, ok = itemByKey(items, model.ItemKey{Category: model.CategoryApps, Subject: "com.good.agent", Variant: "installed"})
	assert.True(t, ok)

	// Update rule is strictly greater: 2.10.0 satisfies, 2.1.0 and
	// 2.0.9 do not, and an unparseable installed version fails only its
	// own rule.
	updated, ok := itemByKey(items, model.ItemKey{Category: model.CategoryApps, Subject: "com.app.current", Variant: "updated"})
	require.True(t, ok)
	assert.Equal(t, 7, updated.Points)
}

func TestEvaluateAppsSkippedWhenIndexUnreadable(t *testing.T) {
	rubric := &model.Rubric{
		AppDeletions: []string{"com.bad.tool"},
		Points:       basePoints(),
	}
	// Package index unreadable: an absent package must not be confused
	// with a deleted one.
	items, _ := Evaluate(rubric, &model.Snapshot{Packages: nil}, nil)
	assert.Empty(t, items)
}

func TestEvaluateForensics(t *testing.T) {
	rubric := &model.Rubric{
		ForensicsQuestions: map[string]model.Question{
			"q1": {Prompt: "Who logged in?", Answer: "mallory"},
			"q2": {Prompt: "Which port?", Answer: "4444"},
		},
		Points: basePoints(),
	}
	snap := &model.Snapshot{
		Answered: map[string]bool{
			"q1":     true,
			"q2":     false,
			"orphan": true, // not in the rubric, never graded
		},
	}
	items, _ := Evaluate(rubric, snap, nil)
	require.Len(t, items, 1)
	assert.Equal(t, model.ItemKey{Category: model.CategoryForensics, Subject: "q1"}, items[0].Key)
	assert.Equal(t, 12, items[0].Points)
}

func TestEvaluateIdempotent(t *testing.T) {
	rubric := &model.Rubric{
		UserAdditions:  []string{"alice"},
		SettingsSecure: map[string]int64{"foo": 5, "bar": 2, "baz": 9},
		FileDeletions:  []string{"/tmp/x"},
		Points:         basePoints(),
	}
	snap := &model.Snapshot{
		Users:          []model.UserProfile{{UserName: "alice"}},
		SettingsSecure: map[string]string{"foo": "5", "bar": "2", "baz": "9"},
		FilesPresent:   map[string]bool{"/tmp/x": false},
	}
	carry := &model.CarryoverState{PreviousUsers: []string{"alice"}}

	first, carry1 := Evaluate(rubric, snap, carry)
	second, carry2 := Evaluate(rubric, snap, carry1)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].Points, second[i].Points)
		assert.Equal(t, first[i].Description, second[i].Description)
	}
	assert.Equal(t, carry1.PreviousUsers, carry2.PreviousUsers)
}

func TestEvaluateAwardPenaltySeparation(t *testing.T) {
	rubric := &model.Rubric{
		UserAdditions: []string{"alice"},
		Points:        basePoints(),
	}
	// Present now and present before: only the award can fire. The
	// removal penalty requires absence, so the same subject never
	// yields both in one cycle.
	snap := &model.Snapshot{Users: []model.UserProfile{{UserName: "alice"}}}
	carry := &model.CarryoverState{PreviousUsers: []string{"alice"}}

	items, _ := Evaluate(rubric, snap, carry)
	require.Len(t, items, 1)
	assert.Equal(t, "added", items[0].Key.Variant)
	assert.Positive(t, items[0].Points)
}

func TestMaxPoints(t *testing.T) {
	rubric := &model.Rubric{
		UserAdditions:     []string{"alice", "bob"},
		AuthorizedUsers:   []string{"owner"}, // required-present never adds to max
		UnauthorizedUsers: []string{"mallory"},
		DeviceRestrictions: &model.DeviceRestrictions{
			ScreenCaptureDisabled: boolPtr(true),
		},
		PasswordPolicies: &model.PasswordPolicies{
			QualityNames:      []string{"complex"},
			ExpirationTimeout: int64Ptr(1),
		},
		SystemUpdatePolicy: &model.SystemUpdatePolicy{PolicyTypeName: "automatic"},
		SettingsSecure:     map[string]int64{"a": 1, "b": 2},
		FileDeletions:      []string{"/tmp/x"},
		AppDeletions:       []string{"com.bad"},
		AppInstalls:        []string{"com.good"},
		AppUpdates:         map[string]string{"com.app": "1.0"},
		ForensicsQuestions: map[string]model.Question{"q1": {Prompt: "p", Answer: "a"}},
		Points:             basePoints(),
	}

	// users 3*10 + policy 3*5 + system-update 7 + settings 2*3 +
	// files 4 + app del 6 + app install 6 + app update 7 + forensics 12
	assert.Equal(t, 30+15+7+6+4+6+6+7+12, MaxPoints(rubric))
}

func TestMaxPointsIndependentOfSnapshot(t *testing.T) {
	rubric := &model.Rubric{
		SettingsSecure: map[string]int64{"foo": 5},
		Points:         basePoints(),
	}
	before := MaxPoints(rubric)
	_, _ = Evaluate(rubric, &model.Snapshot{SettingsSecure: map[string]string{"foo": "5"}}, nil)
	assert.Equal(t, before, MaxPoints(rubric))
	assert.Equal(t, 3, before)
}

func TestMaxPointsWithoutTable(t *testing.T) {
	assert.Zero(t, MaxPoints(nil))
	assert.Zero(t, MaxPoints(&model.Rubric{SettingsSecure: map[string]int64{"foo": 1}}))
}

func TestAggregate(t *testing.T) {
	rubric := &model.Rubric{
		UserAdditions:  []string{"alice"},
		SettingsSecure: map[string]int64{"foo": 5},
		Points:         basePoints(),
	}
	snap := &model.Snapshot{
		Users:          []model.UserProfile{{UserName: "alice"}},
		SettingsSecure: map[string]string{"foo": "5"},
	}

	report, carry := Aggregate(rubric, snap, nil)
	require.NotNil(t, report)
	assert.Equal(t, 13, report.CurrentPoints)
	assert.Equal(t, 13, report.MaxPoints)
	require.Len(t, report.Items, 2)
	// Category order is lexicographic: settings before users.
	assert.Equal(t, model.CategorySettings, report.Items[0].Key.Category)
	assert.Equal(t, model.CategoryUsers, report.Items[1].Key.Category)
	assert.Equal(t, []string{"alice"}, carry.PreviousUsers)
}

func TestDigestIgnoresTimestamps(t *testing.T) {
	rubric := &model.Rubric{
		SettingsSecure: map[string]int64{"foo": 5},
		Points:         basePoints(),
	}
	snap := &model.Snapshot{SettingsSecure: map[string]string{"foo": "5"}}

	first, _ := Aggregate(rubric, snap, nil)
	second, _ := Aggregate(rubric, snap, nil)

	d1, err := Digest(first)
	require.NoError(t, err)
	d2, err := Digest(second)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	// A scoring change does change the digest.
	snap.SettingsSecure["foo"] = "6"
	third, _ := Aggregate(rubric, snap, nil)
	d3, err := Digest(third)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}
