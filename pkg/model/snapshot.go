package model

// Snapshot is one consistent read of the target system's observable
// state, used for exactly one evaluation cycle and then discarded. It is
// a value: the evaluator never mutates it.
//
// Sections that could not be read are nil (maps) so the evaluator can
// skip the corresponding rule family instead of grading against an
// empty observation.
type Snapshot struct {
	// Policy families as observed. Nil means the policy source was
	// readable but the family was absent from it.
	DevicePolicies         *DevicePoliciesState     `json:"device_policies,omitempty"`
	UserRestrictions       *UserRestrictionsState   `json:"user_restrictions,omitempty"`
	PasswordPolicies       *PasswordPoliciesState   `json:"password_policies,omitempty"`
	AdditionalRestrictions *AdditionalRestrictState `json:"additional_restrictions,omitempty"`
	SystemUpdatePolicy     *SystemUpdateState       `json:"system_update_policy,omitempty"`

	// User profiles present on the device.
	Users []UserProfile `json:"users,omitempty"`

	// Settings namespaces, string-keyed and string-valued as read from
	// the underlying store. A nil map means the namespace was unreadable
	// this cycle.
	SettingsSecure map[string]string `json:"settings_secure,omitempty"`
	SettingsSystem map[string]string `json:"settings_system,omitempty"`
	SettingsGlobal map[string]string `json:"settings_global,omitempty"`

	// Installed package -> version. Nil means the package index was
	// unreadable this cycle.
	Packages map[string]string `json:"packages,omitempty"`

	// Existence result per rubric path. A path missing from the map
	// means the check itself failed and that rule is skipped.
	FilesPresent map[string]bool `json:"files_present,omitempty"`

	// Forensics question-id -> answered-correctly, read from the
	// externally maintained answer store.
	Answered map[string]bool `json:"answered,omitempty"`
}

// DevicePoliciesState is the observed device-level policy state.
type DevicePoliciesState struct {
	ScreenCaptureDisabled bool `json:"screen_capture_disabled"`
	NetworkLoggingEnabled bool `json:"network_logging_enabled"`
}

// UserRestrictionsState is the observed user-level restriction state.
type UserRestrictionsState struct {
	NoConfigWifi      bool `json:"no_config_wifi"`
	DisallowDebugging bool `json:"disallow_debugging"`
	NoPrinting        bool `json:"no_printing"`
}

// PasswordPoliciesState is the observed password policy state.
type PasswordPoliciesState struct {
	QualityName       string `json:"quality_name"`
	ExpirationTimeout int64  `json:"expiration_timeout"`
}

// AdditionalRestrictState is the observed miscellaneous restriction state.
type AdditionalRestrictState struct {
	DisallowFactoryReset bool `json:"disallow_factory_reset"`
}

// SystemUpdateState is the observed system update policy.
type SystemUpdateState struct {
	PolicyTypeName string `json:"policy_type_name"`
}

// UserProfile is one user account on the target.
type UserProfile struct {
	UserID   int    `json:"user_id"`
	UserName string `json:"user_name"`
	IsOwner  bool   `json:"is_owner"`
}

// CarryoverState is the only state preserved across evaluation cycles
// besides the rubric and the answer store. PreviousUsers is the entity
// set observed present in the prior cycle; diffing against it is how
// "an account disappeared since the last check" is detected.
type CarryoverState struct {
	PreviousUsers []string `json:"previous_users,omitempty"`
}

// PreviousUserSet returns PreviousUsers as a set.
func (c *CarryoverState) PreviousUserSet() map[string]bool {
	set := make(map[string]bool, len(c.PreviousUsers))
	for _, u := range c.PreviousUsers {
		set[u] = true
	}
	return set
}
