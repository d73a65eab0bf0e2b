package templatemanager

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
)

type TemplateManager struct {
	fsys      fs.FS
	templates map[string]templateManagerRender
}

type templateManagerRender struct {
	Main string
	Tmpl *template.Template
}

type TemplateManagerTemplates struct {
	Name  string
	Files []string
}

var templateFuncMap = template.FuncMap{
	"contains": strings.Contains,
	"replace":  strings.ReplaceAll,
	"lines": func(s string) []string {
		return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	},
}

// NewTemplateManager parses every named template set from fsys. The first
// file of a set is the one executed on Render.
func NewTemplateManager(fsys fs.FS, templates ...TemplateManagerTemplates) (*TemplateManager, error) {
	tm := &TemplateManager{
		fsys:      fsys,
		templates: make(map[string]templateManagerRender, len(templates)),
	}

	for _, tmplStruct := range templates {
		if err := tm.Add(tmplStruct.Name, tmplStruct.Files...); err != nil {
			return nil, err
		}
	}

	return tm, nil
}

func (tm *TemplateManager) Render(name string, data any) ([]byte, error) {
	tmpl, exists := tm.templates[name]
	if !exists {
		return nil, fmt.Errorf("template %s is not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Tmpl.ExecuteTemplate(&buf, tmpl.Main, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (tm *TemplateManager) Add(name string, files ...string) error {
	if len(files) == 0 {
		return fmt.Errorf("you can't add template without any files")
	}

	tmpl, err := template.New(name).Funcs(templateFuncMap).ParseFS(tm.fsys, files...)
	if err != nil {
		return fmt.Errorf("failed to add template into manager: %w", err)
	}

	tm.templates[name] = templateManagerRender{
		Main: path.Base(files[0]),
		Tmpl: tmpl,
	}
	return nil
}
