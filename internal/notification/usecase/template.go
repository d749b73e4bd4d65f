package usecase

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/shandysiswandi/otpify/internal/notification/entity"
)

//go:embed templates/*
var templateFS embed.FS

type templates struct {
	text *texttemplate.Template
	html *htmltemplate.Template
}

func parseTemplates() (*templates, error) {
	text, err := texttemplate.New("text").Option("missingkey=zero").ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, err
	}

	html, err := htmltemplate.New("html").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &templates{text: text, html: html}, nil
}

// render executes the text and html templates of kind.
func (t *templates) render(kind entity.Kind, data any) (text, html string, err error) {
	var tb, hb bytes.Buffer

	if err := t.text.ExecuteTemplate(&tb, kind.String()+".txt", data); err != nil {
		return "", "", err
	}
	if err := t.html.ExecuteTemplate(&hb, kind.String()+".html", data); err != nil {
		return "", "", err
	}

	return tb.String(), hb.String(), nil
}
