package model_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/spaceport/internal/domain/model"
)

const validURL = "https://github.com/example/repo-frontend.git"

func countMentioning(errs []string, word string) int {
	n := 0
	for _, e := range errs {
		if strings.Contains(strings.ToLower(e), strings.ToLower(word)) {
			n++
		}
	}
	return n
}

func TestValidateDraft_Name(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", true},
		{"two chars", "ab", true},
		{"padded two chars", "  ab  ", true},
		{"whitespace only", "      ", true},
		{"three chars", "abc", false},
		{"padded three chars", " abc ", false},
		{"owner slash repo", "example/repo-frontend", false},
		{"multibyte", "äöü", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := model.ValidateDraft(tt.input, validURL, "main")
			if tt.wantErr {
				assert.Equal(t, 1, countMentioning(res.Errors, "name"))
				assert.False(t, res.OK)
			} else {
				assert.Zero(t, countMentioning(res.Errors, "name"))
				assert.True(t, res.OK)
			}
		})
	}
}

func TestValidateDraft_URL(t *testing.T) {
	valid := []string{
		"https://x/y.git",
		"http://example.com/repo.git",
		"https://git.example.com/other/repo-backend.git",
		"HTTPS://GITHUB.COM/Owner/Repo",
		"git@github.com:owner/repo.git",
		"git@gitlab.example.com:group/sub/repo",
		"https://host:8443/~user/repo.git",
		"  https://github.com/a/b.git  ",
	}
	for _, u := range valid {
		t.Run("valid "+u, func(t *testing.T) {
			res := model.ValidateDraft("abc", u, "main")
			assert.True(t, res.OK, "errors: %v", res.Errors)
		})
	}

	invalid := []string{
		"",
		"ftp://x",
		"not a url",
		"bad-url",
		"https://",
		"ssh://git@github.com/owner/repo.git",
		"https://github.com/owner/repo?ref=main",
		"git@",
	}
	for _, u := range invalid {
		t.Run("invalid "+u, func(t *testing.T) {
			res := model.ValidateDraft("abc", u, "main")
			assert.Equal(t, 1, countMentioning(res.Errors, "url"))
			assert.Len(t, res.Errors, 1)
		})
	}
}

func TestValidateDraft_Branch(t *testing.T) {
	res := model.ValidateDraft("abc", validURL, "   ")
	require.False(t, res.OK)
	assert.Equal(t, []string{model.MsgMissingBranch}, res.Errors)

	res = model.ValidateDraft("abc", validURL, "develop")
	assert.True(t, res.OK)
}

func TestValidateDraft_ScenarioA(t *testing.T) {
	res := model.ValidateDraft("ab", "https://x/y.git", "main")

	require.False(t, res.OK)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "Name")
}

func TestValidateDraft_ScenarioB(t *testing.T) {
	res := model.ValidateDraft("abc", "bad-url", "")

	require.False(t, res.OK)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "URL")
	assert.Contains(t, res.Errors[1], "Branch")
}

func TestValidateDraft_CollectsAllErrorsInOrder(t *testing.T) {
	res := model.ValidateDraft("", "", "")

	assert.False(t, res.OK)
	assert.Equal(t, []string{model.MsgNameTooShort, model.MsgInvalidURL, model.MsgMissingBranch}, res.Errors)
}

func TestValidateDraft_Idempotent(t *testing.T) {
	inputs := [][3]string{
		{"ab", "bad", ""},
		{"abc", validURL, "main"},
		{"  x ", "git@host:r.git", " "},
	}
	for _, in := range inputs {
		first := model.ValidateDraft(in[0], in[1], in[2])
		second := model.ValidateDraft(in[0], in[1], in[2])
		assert.Equal(t, first, second)
	}
}

func TestMapFieldErrors(t *testing.T) {
	res := model.ValidateDraft("ab", "bad-url", "")
	fe := model.MapFieldErrors(res.Errors)

	assert.Equal(t, model.MsgNameTooShort, fe.Name)
	assert.Equal(t, model.MsgInvalidURL, fe.URL)
	assert.Equal(t, model.MsgMissingBranch, fe.Branch)
	assert.False(t, fe.Empty())

	assert.True(t, model.MapFieldErrors(nil).Empty())
	assert.True(t, model.MapFieldErrors([]string{"something unrelated"}).Empty())
}

func TestValidationError(t *testing.T) {
	err := &model.ValidationError{Validation: model.ValidateDraft("ab", validURL, "main")}

	assert.Contains(t, err.Error(), model.MsgNameTooShort)
	assert.Equal(t, model.MsgNameTooShort, err.Fields().Name)
	assert.Empty(t, err.Fields().URL)
}
