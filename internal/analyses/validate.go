package analyses

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"repo-analyzer-client/internal/analyzer"
)

// Binding tag names registered on gin's validator.
const (
	TagGitHubRepo = "github_repo"
	TagFocus      = "focus"
)

var repoURLPattern = regexp.MustCompile(`^https?://github\.com/[\w\-\.]+/[\w\-\.]+/?$`)

// NormalizeRepoURL trims whitespace and trailing slashes and checks the URL
// points at a github.com owner/repo.
func NormalizeRepoURL(raw string) (string, error) {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	if url == "" {
		return "", ErrEmptyRepoURL
	}
	if !repoURLPattern.MatchString(url) {
		return "", ErrInvalidRepoURL
	}
	return url, nil
}

// NormalizeFocus lowercases focus and defaults empty input to "all".
func NormalizeFocus(raw string) (string, error) {
	focus := strings.ToLower(strings.TrimSpace(raw))
	if focus == "" {
		return analyzer.FocusAll, nil
	}
	for _, f := range analyzer.Focuses {
		if f == focus {
			return f, nil
		}
	}
	return "", ErrInvalidFocus
}

// ParseRepo splits a repository URL into owner and name.
func ParseRepo(raw string) (owner, name string, err error) {
	url, err := NormalizeRepoURL(raw)
	if err != nil {
		return "", "", err
	}
	rest := url[strings.Index(url, "github.com/")+len("github.com/"):]
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		return "", "", ErrInvalidRepoURL
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// RegisterValidators adds the github_repo and focus tags to v.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation(TagGitHubRepo, func(fl validator.FieldLevel) bool {
		_, err := NormalizeRepoURL(fl.Field().String())
		return err == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation(TagFocus, func(fl validator.FieldLevel) bool {
		_, err := NormalizeFocus(fl.Field().String())
		return err == nil
	})
}

// RegisterBindingValidators installs the custom tags on gin's default binding engine.
func RegisterBindingValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return RegisterValidators(v)
}

// FieldErrors flattens validator errors into the details payload used by
// respond.Error.
func FieldErrors(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{
			"field": fe.Field(),
			"issue": fe.Tag(),
		})
	}
	return out
}

// BindingMessage picks the user-facing message for a failed bind.
func BindingMessage(details []map[string]string) string {
	focusOnly := len(details) > 0
	for _, d := range details {
		if d["field"] != "Focus" {
			focusOnly = false
		}
	}
	if focusOnly {
		return MsgInvalidFocus
	}
	return MsgInvalidRepoURL
}
