package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"onemd/common"
	"onemd/config"
)

// document describes single markdown source being converted.
type document struct {
	// src is path relative to the processed source, always including file
	// name.
	src    string
	title  string
	id     string
	format common.OutputFmt
	date   time.Time
}

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Format     string
	Date       string
	SourceFile string
	SourceDir  string
	ID         string
}

func expandTemplate(d *document, name config.TemplateFieldName, field string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	dir := filepath.ToSlash(filepath.Dir(d.src))
	if dir == "." {
		dir = ""
	}
	values := Values{
		Context:    string(name),
		Title:      d.title,
		Format:     d.format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(d.src), filepath.Ext(d.src)),
		SourceDir:  dir,
		ID:         d.id,
	}
	if !d.date.IsZero() {
		values.Date = d.date.Format("2006-01-02")
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
