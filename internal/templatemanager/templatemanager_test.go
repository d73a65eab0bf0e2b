package templatemanager

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLayoutWithPage(t *testing.T) {
	fsys := fstest.MapFS{
		"layouts/mail.html": {Data: []byte(`<html>{{ template "content" . }}</html>`)},
		"mail/hello.html":   {Data: []byte(`{{ define "content" }}<p>{{ range lines .Body }}{{ . }}<br>{{ end }}</p>{{ end }}`)},
	}

	tm, err := NewTemplateManager(fsys, TemplateManagerTemplates{
		Name:  "hello",
		Files: []string{"layouts/mail.html", "mail/hello.html"},
	})
	require.NoError(t, err)

	out, err := tm.Render("hello", map[string]string{"Body": "a\n<b>"})
	require.NoError(t, err)
	assert.Equal(t, "<html><p>a<br>&lt;b&gt;<br></p></html>", string(out))
}

func TestRenderUnknownTemplate(t *testing.T) {
	tm, err := NewTemplateManager(fstest.MapFS{})
	require.NoError(t, err)

	_, err = tm.Render("missing", nil)
	assert.Error(t, err)
	assert.Error(t, tm.Add("empty"))
	assert.Error(t, tm.Add("absent", "nope.html"))
}
