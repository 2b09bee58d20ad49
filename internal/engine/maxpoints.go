package engine

import "github.com/scorebox-project/scorebox/pkg/model"

// MaxPoints computes the maximum attainable score from the rubric alone.
// It never consults a snapshot, so "earned / possible" can be shown
// before the first cycle runs. Sub-expectations absent from the rubric
// contribute zero, mirroring the evaluator's optionality. Penalty
// categories never add to the maximum.
func MaxPoints(r *model.Rubric) int {
	if r == nil || r.Points == nil {
		return 0
	}
	p := r.Points
	total := 0

	total += len(r.UserAdditions) * p.UserPoints
	total += len(r.UnauthorizedUsers) * p.UserPoints

	if d := r.DeviceRestrictions; d != nil {
		total += countSet(d.ScreenCaptureDisabled, d.NetworkLoggingEnabled) * p.PolicyPoints
	}
	if u := r.UserRestrictions; u != nil {
		total += countSet(u.NoConfigWifi, u.DisallowDebugging, u.NoPrinting) * p.PolicyPoints
	}
	if pw := r.PasswordPolicies; pw != nil {
		if len(pw.QualityNames) > 0 {
			total += p.PolicyPoints
		}
		if pw.ExpirationTimeout != nil {
			total += p.PolicyPoints
		}
	}
	if a := r.AdditionalRestrictions; a != nil {
		total += countSet(a.DisallowFactoryReset) * p.PolicyPoints
	}
	if r.SystemUpdatePolicy != nil {
		total += p.UpdatePoints
	}

	total += len(r.SettingsSecure) * p.SettingsPoints
	total += len(r.SettingsSystem) * p.SettingsPoints
	total += len(r.SettingsGlobal) * p.SettingsPoints

	total += len(r.FileDeletions) * p.FileDeletionPoints

	total += len(r.AppDeletions) * p.AppDeletionPoints
	total += len(r.AppInstalls) * p.AppInstallPoints
	total += len(r.AppUpdates) * p.UpdatePoints

	total += len(r.ForensicsQuestions) * p.ForensicsPoints

	return total
}

func countSet(flags ...*bool) int {
	n := 0
	for _, f := range flags {
		if f != nil {
			n++
		}
	}
	return n
}
