package htmltemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ExecuteHTMLTemplate(t *testing.T) {
	// File not found
	var inputData interface{}
	templateStr, err := ExecuteHTMLTemplate("non-existing-file.html", inputData)
	require.Empty(t, templateStr)
	require.ErrorContains(t, err, `executing html template: template: no template "non-existing-file.html"`)

	// handle invalid struct body
	inputData = struct {
		WrongFieldName string
	}{
		WrongFieldName: "foo bar",
	}
	templateStr, err = ExecuteHTMLTemplate("empty_body.tmpl", inputData)
	require.Empty(t, templateStr)
	require.ErrorContains(t, err, "can't evaluate field Body")

	// Success 🎉
	inputData = EmptyBodyEmailTemplate{Body: "foo bar"}
	templateStr, err = ExecuteHTMLTemplate("empty_body.tmpl", inputData)
	require.NoError(t, err)
	require.Contains(t, templateStr, "<body>\nfoo bar\n</body>")
	require.Contains(t, templateStr, "font-family: Arial")
}

func Test_ExecuteHTMLTemplateForTenantActivatedEmail(t *testing.T) {
	data := TenantActivatedEmailTemplate{
		ContactPerson:    "Jane <Doe>",
		CompanyName:      "Acme Logistics",
		TenantID:         "acme",
		SubscriptionPlan: "basic",
		SubscriptionEnd:  "2025-03-31",
		PlatformName:     "WMS Cloud",
	}

	content, err := ExecuteHTMLTemplateForTenantActivatedEmail(data)
	require.NoError(t, err)

	assert.Contains(t, content, "Hello Jane &lt;Doe&gt;,")
	assert.Contains(t, content, "<strong>Acme Logistics</strong> on WMS Cloud is ready to use.")
	assert.Contains(t, content, "<tr><td>Tenant ID</td><td>acme</td></tr>")
	assert.Contains(t, content, "<tr><td>Subscription ends</td><td>2025-03-31</td></tr>")
	assert.Contains(t, content, "The WMS Cloud Team")
}
