// Package identutil validates the identifiers carried by a rubric:
// user names, package names, question ids, and file paths. Validation
// happens once at rubric load so the evaluation loop never sees a
// malformed subject.
package identutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/scorebox-project/scorebox/pkg/errclass"
)

// ValidateSubject checks a rubric subject identifier (user name, package
// name, question id). Identifiers are NFC-normalized before checking so
// visually identical forms grade identically.
func ValidateSubject(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("identifier must not be empty")
	}

	name = norm.NFC.String(name)

	if strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("identifier must not contain separators: %s", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("identifier must not contain control characters: %q", name)
		}
		if unicode.IsSpace(r) {
			return errclass.ErrNameInvalid.WithMessagef("identifier must not contain whitespace: %q", name)
		}
	}
	return nil
}

// Normalize returns the NFC normalization of an identifier. Both rubric
// subjects and observed snapshot identifiers go through this before
// comparison.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// ValidateAbsolutePath checks a file-deletion rubric path. Paths must be
// absolute and clean: the privileged existence check hands the path to
// an elevated helper, so relative or traversal forms are rejected
// outright.
func ValidateAbsolutePath(path string) error {
	if path == "" {
		return errclass.ErrNameInvalid.WithMessage("path must not be empty")
	}
	if !filepath.IsAbs(path) {
		return errclass.ErrNameInvalid.WithMessagef("path must be absolute: %s", path)
	}
	if filepath.Clean(path) != path {
		return errclass.ErrNameInvalid.WithMessagef("path must be clean: %s", path)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("path must not contain control characters: %q", path)
		}
	}
	return nil
}
