// Package rubric parses and validates rubric documents. A rubric enters
// the system exactly once, through Parse; everything past this boundary
// works with the validated typed structure.
package rubric

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/identutil"
	"github.com/scorebox-project/scorebox/pkg/model"
)

// Parse decodes a rubric document. It runs three passes: structural
// validation against the document schema, typed decode (unknown fields
// ignored), and semantic validation of identifiers and versions. All
// failures carry E_CONFIG_INVALID with an enumerated reason.
func Parse(data []byte) (*model.Rubric, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("rubric is not valid JSON: %v", err)
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			reasons = append(reasons, re.String())
		}
		return nil, errclass.ErrConfigInvalid.WithMessagef("rubric shape invalid: %s", strings.Join(reasons, "; "))
	}

	var r model.Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("decode rubric: %v", err)
	}

	if err := validate(&r); err != nil {
		return nil, err
	}
	return &r, nil
}

func validate(r *model.Rubric) error {
	if r.Points == nil {
		return errclass.ErrConfigInvalid.WithMessage("point table missing")
	}

	for section, ids := range map[string][]string{
		"user_additions":     r.UserAdditions,
		"authorized_users":   r.AuthorizedUsers,
		"unauthorized_users": r.UnauthorizedUsers,
		"app_deletions":      r.AppDeletions,
		"app_installs":       r.AppInstalls,
	} {
		for _, id := range ids {
			if err := identutil.ValidateSubject(id); err != nil {
				return errclass.ErrConfigInvalid.WithMessagef("%s: %v", section, err)
			}
		}
	}

	for pkg, min := range r.AppUpdates {
		if err := identutil.ValidateSubject(pkg); err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("app_updates: %v", err)
		}
		if err := validateVersion(min); err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("app_updates[%s]: %v", pkg, err)
		}
	}

	for _, path := range r.FileDeletions {
		if err := identutil.ValidateAbsolutePath(path); err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("file_deletions: %v", err)
		}
	}

	for id, q := range r.ForensicsQuestions {
		if err := identutil.ValidateSubject(id); err != nil {
			return errclass.ErrConfigInvalid.WithMessagef("forensics_questions: %v", err)
		}
		if strings.TrimSpace(q.Prompt) == "" {
			return errclass.ErrConfigInvalid.WithMessagef("forensics_questions[%s]: empty prompt", id)
		}
		if strings.TrimSpace(q.Answer) == "" {
			return errclass.ErrConfigInvalid.WithMessagef("forensics_questions[%s]: empty answer", id)
		}
	}

	return nil
}

// validateVersion requires dotted numeric components ("2", "2.1.0").
func validateVersion(v string) error {
	if v == "" {
		return fmt.Errorf("empty version")
	}
	for _, part := range strings.Split(v, ".") {
		if part == "" {
			return fmt.Errorf("empty version component in %q", v)
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return fmt.Errorf("non-numeric version component %q in %q", part, v)
			}
		}
	}
	return nil
}
