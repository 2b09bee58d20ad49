// Package engine implements the rule evaluator: a pure function from
// (rubric, snapshot, carryover) to score items and the next carryover.
// The evaluator does no I/O; everything it grades is already in the
// snapshot value.
package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/scorebox-project/scorebox/pkg/identutil"
	"github.com/scorebox-project/scorebox/pkg/model"
)

// itemSet collects score items keyed by their structured key, preserving
// insertion order. Re-putting a key replaces the item in place, so
// recomputation can never duplicate a graded fact.
type itemSet struct {
	order []model.ItemKey
	items map[model.ItemKey]model.ScoreItem
	now   time.Time
}

func newItemSet() *itemSet {
	return &itemSet{
		items: make(map[model.ItemKey]model.ScoreItem),
		now:   time.Now().UTC(),
	}
}

func (s *itemSet) put(key model.ItemKey, description string, points int) {
	if _, exists := s.items[key]; !exists {
		s.order = append(s.order, key)
	}
	s.items[key] = model.ScoreItem{
		Key:         key,
		Description: description,
		Points:      points,
		CreatedAt:   s.now,
	}
}

func (s *itemSet) list() []model.ScoreItem {
	out := make([]model.ScoreItem, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.items[k])
	}
	return out
}

// Evaluate computes the score items for one cycle. It is deterministic
// and idempotent: the same inputs produce the same items (timestamps
// aside). Every rule family is independently optional; an absent rubric
// section or an unreadable snapshot section skips only that family.
// The returned carryover is the current entity set, overwritten
// unconditionally every cycle.
func Evaluate(r *model.Rubric, snap *model.Snapshot, carry *model.CarryoverState) ([]model.ScoreItem, *model.CarryoverState) {
	items := newItemSet()
	if carry == nil {
		carry = &model.CarryoverState{}
	}

	nextCarry := checkUsers(r, snap, carry, items)
	checkPolicies(r, snap, items)
	checkSettings(r, snap, items)
	checkFiles(r, snap, items)
	checkApps(r, snap, items)
	checkForensics(r, snap, items)

	return items.list(), nextCarry
}

func checkUsers(r *model.Rubric, snap *model.Snapshot, carry *model.CarryoverState, items *itemSet) *model.CarryoverState {
	current := make(map[string]bool, len(snap.Users))
	currentList := make([]string, 0, len(snap.Users))
	for _, u := range snap.Users {
		name := identutil.Normalize(u.UserName)
		if !current[name] {
			currentList = append(currentList, name)
		}
		current[name] = true
	}
	previous := carry.PreviousUserSet()

	// Rubric identifiers get the same NFC treatment as the snapshot
	// names above, so equal-looking forms grade equally.
	for _, user := range r.UserAdditions {
		user = identutil.Normalize(user)
		if current[user] {
			items.put(
				model.ItemKey{Category: model.CategoryUsers, Subject: user, Variant: "added"},
				fmt.Sprintf("User '%s' has been added", user),
				r.Points.UserPoints)
		} else if previous[user] {
			// Present last cycle, gone now: the account was removed
			// after being created.
			items.put(
				model.ItemKey{Category: model.CategoryUsers, Subject: user, Variant: "removed-penalty"},
				fmt.Sprintf("User '%s' was removed (penalty)", user),
				-r.Points.UserPenalty)
		}
	}

	for _, user := range r.AuthorizedUsers {
		user = identutil.Normalize(user)
		if !current[user] {
			items.put(
				model.ItemKey{Category: model.CategoryUsers, Subject: user, Variant: "authorized-missing"},
				fmt.Sprintf("Authorized user '%s' was removed (penalty)", user),
				-r.Points.UserPenalty)
		}
	}

	for _, user := range r.UnauthorizedUsers {
		user = identutil.Normalize(user)
		if !current[user] {
			items.put(
				model.ItemKey{Category: model.CategoryUsers, Subject: user, Variant: "unauthorized-gone"},
				fmt.Sprintf("Unauthorized user '%s' has been removed", user),
				r.Points.UserPoints)
		}
	}

	sort.Strings(currentList)
	return &model.CarryoverState{PreviousUsers: currentList}
}

func checkPolicies(r *model.Rubric, snap *model.Snapshot, items *itemSet) {
	if exp := r.DeviceRestrictions; exp != nil && snap.DevicePolicies != nil {
		obs := snap.DevicePolicies
		if exp.ScreenCaptureDisabled != nil && *exp.ScreenCaptureDisabled == obs.ScreenCaptureDisabled {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "screen-capture"},
				"Screen capture disabled policy set correctly",
				r.Points.PolicyPoints)
		}
		if exp.NetworkLoggingEnabled != nil && *exp.NetworkLoggingEnabled == obs.NetworkLoggingEnabled {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "network-logging"},
				"Network logging policy set correctly",
				r.Points.PolicyPoints)
		}
	}

	if exp := r.UserRestrictions; exp != nil && snap.UserRestrictions != nil {
		obs := snap.UserRestrictions
		if exp.NoConfigWifi != nil && *exp.NoConfigWifi == obs.NoConfigWifi {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "no-config-wifi"},
				"WiFi configuration restriction set correctly",
				r.Points.PolicyPoints)
		}
		if exp.DisallowDebugging != nil && *exp.DisallowDebugging == obs.DisallowDebugging {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "disallow-debugging"},
				"Debugging restriction set correctly",
				r.Points.PolicyPoints)
		}
		if exp.NoPrinting != nil && *exp.NoPrinting == obs.NoPrinting {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "no-printing"},
				"Printing restriction set correctly",
				r.Points.PolicyPoints)
		}
	}

	if exp := r.PasswordPolicies; exp != nil && snap.PasswordPolicies != nil {
		obs := snap.PasswordPolicies
		if len(exp.QualityNames) > 0 && containsString(exp.QualityNames, obs.QualityName) {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "password-quality"},
				"Password quality set correctly",
				r.Points.PolicyPoints)
		}
		if exp.ExpirationTimeout != nil && *exp.ExpirationTimeout == obs.ExpirationTimeout {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "password-expiration"},
				"Password expiration timeout set correctly",
				r.Points.PolicyPoints)
		}
	}

	if exp := r.AdditionalRestrictions; exp != nil && snap.AdditionalRestrictions != nil {
		if exp.DisallowFactoryReset != nil && *exp.DisallowFactoryReset == snap.AdditionalRestrictions.DisallowFactoryReset {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "factory-reset"},
				"Factory reset restriction set correctly",
				r.Points.PolicyPoints)
		}
	}

	if exp := r.SystemUpdatePolicy; exp != nil && snap.SystemUpdatePolicy != nil {
		if exp.PolicyTypeName == snap.SystemUpdatePolicy.PolicyTypeName {
			items.put(
				model.ItemKey{Category: model.CategoryPolicy, Subject: "system-update"},
				"System update policy set correctly",
				r.Points.UpdatePoints)
		}
	}
}

func checkSettings(r *model.Rubric, snap *model.Snapshot, items *itemSet) {
	checkSettingsNamespace(r, "secure", r.SettingsSecure, snap.SettingsSecure, items)
	checkSettingsNamespace(r, "system", r.SettingsSystem, snap.SettingsSystem, items)
	checkSettingsNamespace(r, "global", r.SettingsGlobal, snap.SettingsGlobal, items)
}

// checkSettingsNamespace grades one namespace. Settings rules are
// award-only: a missing or mismatched key earns nothing but is never
// penalized. A nil observed map means the namespace was unreadable this
// cycle and the whole family is skipped.
func checkSettingsNamespace(r *model.Rubric, namespace string, expected map[string]int64, observed map[string]string, items *itemSet) {
	if expected == nil || observed == nil {
		return
	}
	for _, key := range sortedKeys(expected) {
		value, ok := observed[key]
		if !ok {
			continue
		}
		if value == strconv.FormatInt(expected[key], 10) {
			items.put(
				model.ItemKey{Category: model.CategorySettings, Subject: key, Variant: namespace},
				fmt.Sprintf("Setting '%s' (%s) set correctly", key, namespace),
				r.Points.SettingsPoints)
		}
	}
}

func checkFiles(r *model.Rubric, snap *model.Snapshot, items *itemSet) {
	for _, path := range r.FileDeletions {
		present, ok := snap.FilesPresent[path]
		if !ok {
			// Existence check failed this cycle; skip just this rule.
			continue
		}
		if !present {
			items.put(
				model.ItemKey{Category: model.CategoryFiles, Subject: path},
				fmt.Sprintf("%s has been deleted", filepath.Base(path)),
				r.Points.FileDeletionPoints)
		}
	}
}

func checkApps(r *model.Rubric, snap *model.Snapshot, items *itemSet) {
	if snap.Packages == nil {
		return
	}

	for _, pkg := range r.AppDeletions {
		if _, installed := snap.Packages[pkg]; !installed {
			items.put(
				model.ItemKey{Category: model.CategoryApps, Subject: pkg, Variant: "deleted"},
				fmt.Sprintf("%s has been deleted", pkg),
				r.Points.AppDeletionPoints)
		}
	}

	for _, pkg := range r.AppInstalls {
		if _, installed := snap.Packages[pkg]; installed {
			items.put(
				model.ItemKey{Category: model.CategoryApps, Subject: pkg, Variant: "installed"},
				fmt.Sprintf("%s has been installed", pkg),
				r.Points.AppInstallPoints)
		}
	}

	for _, pkg := range sortedKeys(r.AppUpdates) {
		installed, ok := snap.Packages[pkg]
		if !ok {
			continue
		}
		cmp, err := CompareVersions(installed, r.AppUpdates[pkg])
		if err != nil {
			// Unparseable installed version fails only this rule.
			continue
		}
		if cmp > 0 {
			items.put(
				model.ItemKey{Category: model.CategoryApps, Subject: pkg, Variant: "updated"},
				fmt.Sprintf("%s has been updated", pkg),
				r.Points.UpdatePoints)
		}
	}
}

func checkForensics(r *model.Rubric, snap *model.Snapshot, items *itemSet) {
	for _, id := range sortedKeys(r.ForensicsQuestions) {
		if snap.Answered[id] {
			items.put(
				model.ItemKey{Category: model.CategoryForensics, Subject: id},
				fmt.Sprintf("Forensics question '%s' answered correctly", id),
				r.Points.ForensicsPoints)
		}
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
