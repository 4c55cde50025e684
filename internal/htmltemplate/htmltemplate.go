package htmltemplate

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed tmpl/*.tmpl
var Tmpl embed.FS

func ExecuteHTMLTemplate(templateName string, data interface{}) (string, error) {
	funcMap := template.FuncMap{
		"EmailStyle": func() template.HTML {
			return emailStyle
		},
	}

	t, err := template.New("").Funcs(funcMap).ParseFS(Tmpl, "tmpl/*.tmpl")
	if err != nil {
		return "", fmt.Errorf("error parsing embedded template files: %w", err)
	}

	var executedTemplate bytes.Buffer
	err = t.ExecuteTemplate(&executedTemplate, templateName, data)
	if err != nil {
		return "", fmt.Errorf("executing html template: %w", err)
	}

	return executedTemplate.String(), nil
}

type EmptyBodyEmailTemplate struct {
	Body template.HTML
}

func ExecuteHTMLTemplateForEmailEmptyBody(data EmptyBodyEmailTemplate) (string, error) {
	return ExecuteHTMLTemplate("empty_body.tmpl", data)
}

// TenantActivatedEmailTemplate is sent to the tenant contact once their warehouse database is ready.
type TenantActivatedEmailTemplate struct {
	ContactPerson    string
	CompanyName      string
	TenantID         string
	SubscriptionPlan string
	SubscriptionEnd  string
	PlatformName     string
}

func ExecuteHTMLTemplateForTenantActivatedEmail(data TenantActivatedEmailTemplate) (string, error) {
	return ExecuteHTMLTemplate("tenant_activated_message.tmpl", data)
}

const emailStyle = template.HTML(`
    <style>
		body {
			font-family: Arial, sans-serif;
			line-height: 1.6;
			color: #000000;
			background-color: #ffffff;
			margin: 0;
			padding: 20px;
		}
		p {
			margin-bottom: 16px;
		}
		table.details td {
			padding: 4px 12px 4px 0;
		}
    </style>
`)
