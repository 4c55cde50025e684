package message

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/72mo2c/pero-system-sub002/internal/htmltemplate"
)

// htmlBody returns body unchanged when it is already an HTML document and wraps it in the default layout otherwise.
func htmlBody(body string) (string, error) {
	if strings.Contains(strings.ToLower(body), "<html") {
		return body, nil
	}

	html, err := htmltemplate.ExecuteHTMLTemplateForEmailEmptyBody(htmltemplate.EmptyBodyEmailTemplate{Body: template.HTML(body)})
	if err != nil {
		return "", fmt.Errorf("generating html template: %w", err)
	}
	return html, nil
}
