package identutil_test

import (
	"errors"
	"testing"

	"github.com/scorebox-project/scorebox/pkg/errclass"
	"github.com/scorebox-project/scorebox/pkg/identutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubject_Valid(t *testing.T) {
	for _, name := range []string{
		"alice",
		"com.example.malware",
		"q1",
		"user_2",
		"pkg-name.v2",
	} {
		assert.NoError(t, identutil.ValidateSubject(name), name)
	}
}

func TestValidateSubject_Invalid(t *testing.T) {
	for _, name := range []string{
		"",
		"with space",
		"with/slash",
		"with\\backslash",
		"tab\there",
		"ctrl\x00char",
	} {
		err := identutil.ValidateSubject(name)
		require.Error(t, err, "%q should be rejected", name)
		assert.True(t, errors.Is(err, errclass.ErrNameInvalid))
	}
}

func TestNormalize_NFC(t *testing.T) {
	// U+0065 U+0301 (e + combining acute) normalizes to U+00E9.
	decomposed := "café"
	composed := "café"
	assert.Equal(t, composed, identutil.Normalize(decomposed))
}

func TestValidateAbsolutePath_Valid(t *testing.T) {
	assert.NoError(t, identutil.ValidateAbsolutePath("/tmp/planted.txt"))
	assert.NoError(t, identutil.ValidateAbsolutePath("/var/lib/evil/tool"))
}

func TestValidateAbsolutePath_Invalid(t *testing.T) {
	for _, path := range []string{
		"",
		"relative/path",
		"/tmp/../etc/passwd",
		"/tmp//double",
		"/tmp/ctrl\x07",
	} {
		err := identutil.ValidateAbsolutePath(path)
		require.Error(t, err, "%q should be rejected", path)
		assert.True(t, errors.Is(err, errclass.ErrNameInvalid))
	}
}
