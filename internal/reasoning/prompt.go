package reasoning

import (
	"strings"
	"text/template"

	"github.com/julianshen/componentdoc/internal/errors"
)

// RenderPrompt executes a user prompt template against vars. Templates
// reference variables as {{.name}}; a missing variable is an error.
func RenderPrompt(tpl string, vars map[string]string) (string, error) {
	t, err := template.New("prompt").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return "", errors.Wrap(err, "parse prompt template")
	}
	var sb strings.Builder
	if err := t.Execute(&sb, vars); err != nil {
		return "", errors.Wrap(err, "render prompt template")
	}
	return sb.String(), nil
}
