// Package model defines the shared data types for scorebox: the rubric,
// the state snapshot, score items and reports.
package model

// Rubric is the declarative target configuration being graded against.
// It is immutable once loaded for an evaluation cycle. Every section is
// optional; an absent section is simply not graded.
type Rubric struct {
	// Entity (user account) expectations.
	UserAdditions     []string `json:"user_additions,omitempty"`
	AuthorizedUsers   []string `json:"authorized_users,omitempty"`
	UnauthorizedUsers []string `json:"unauthorized_users,omitempty"`

	// Policy families. Nil pointer means the family is not graded;
	// within a family, nil sub-expectations are not graded either.
	DeviceRestrictions     *DeviceRestrictions     `json:"device_restrictions,omitempty"`
	UserRestrictions       *UserRestrictions       `json:"user_restrictions,omitempty"`
	PasswordPolicies       *PasswordPolicies       `json:"password_policies,omitempty"`
	AdditionalRestrictions *AdditionalRestrictions `json:"additional_restrictions,omitempty"`
	SystemUpdatePolicy     *SystemUpdatePolicy     `json:"system_update_policy,omitempty"`

	// Settings namespaces: key -> expected integer value. The live value
	// is compared as a string against the decimal rendering of the
	// expected value.
	SettingsSecure map[string]int64 `json:"settings_secure,omitempty"`
	SettingsSystem map[string]int64 `json:"settings_system,omitempty"`
	SettingsGlobal map[string]int64 `json:"settings_global,omitempty"`

	// Paths that must no longer exist.
	FileDeletions []string `json:"file_deletions,omitempty"`

	// Application expectations.
	AppDeletions []string          `json:"app_deletions,omitempty"`
	AppInstalls  []string          `json:"app_installs,omitempty"`
	AppUpdates   map[string]string `json:"app_updates,omitempty"` // package -> minimum version (strictly-greater required)

	// Forensics free-response questions.
	ForensicsQuestions map[string]Question `json:"forensics_questions,omitempty"`

	// Point table. Required: without it no rule can be priced.
	Points *PointTable `json:"points"`
}

// Question is one free-response forensics question.
type Question struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// DeviceRestrictions are device-level policy expectations.
type DeviceRestrictions struct {
	ScreenCaptureDisabled *bool `json:"screen_capture_disabled,omitempty"`
	NetworkLoggingEnabled *bool `json:"network_logging_enabled,omitempty"`
}

// UserRestrictions are user-level policy expectations.
type UserRestrictions struct {
	NoConfigWifi      *bool `json:"no_config_wifi,omitempty"`
	DisallowDebugging *bool `json:"disallow_debugging,omitempty"`
	NoPrinting        *bool `json:"no_printing,omitempty"`
}

// PasswordPolicies are password policy expectations. QualityNames is the
// set of acceptable quality class names: the observed name must be a
// member of the set.
type PasswordPolicies struct {
	QualityNames      []string `json:"quality_names,omitempty"`
	ExpirationTimeout *int64   `json:"expiration_timeout,omitempty"`
}

// AdditionalRestrictions are miscellaneous policy expectations.
type AdditionalRestrictions struct {
	DisallowFactoryReset *bool `json:"disallow_factory_reset,omitempty"`
}

// SystemUpdatePolicy is the expected system update policy type.
type SystemUpdatePolicy struct {
	PolicyTypeName string `json:"policy_type_name"`
}

// PointTable assigns one signed point value per rule category. All rules
// in a category share the category's value.
type PointTable struct {
	PolicyPoints       int `json:"policy_points"`
	SettingsPoints     int `json:"settings_points"`
	FileDeletionPoints int `json:"file_deletion_points"`
	AppInstallPoints   int `json:"app_install_points"`
	AppDeletionPoints  int `json:"app_deletion_points"`
	UpdatePoints       int `json:"update_points"`
	UserPoints         int `json:"user_points"`
	UserPenalty        int `json:"user_penalty"`
	AppPenalty         int `json:"app_penalty"`
	ForensicsPoints    int `json:"forensics_points"`
}
