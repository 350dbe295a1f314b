package templates

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
	"time"

	"github.com/samber/oops"
)

//go:embed *.tmpl
var FS embed.FS

// Template names. They match the notification kinds the services emit.
const (
	VerifyEmail    = "verify_email"
	ForgotPassword = "forgot_password"
)

// set is one email: subject and text are plain text, body is escaped HTML.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var sets = map[string]set{
	VerifyEmail:    mustLoad(VerifyEmail),
	ForgotPassword: mustLoad(ForgotPassword),
}

// Known reports whether name has a template set.
func Known(name string) bool {
	_, ok := sets[name]
	return ok
}

// Render produces subject, text and html for name. Missing data keys render empty.
func Render(name string, data any) (subject, text, html string, err error) {
	s, ok := sets[name]
	if !ok {
		return "", "", "", oops.In("templates").Code("EMAIL_UNKNOWN_TEMPLATE").With("template", name).Errorf("unknown template")
	}
	if subject, err = execute(s.subject, data); err != nil {
		return "", "", "", oops.In("templates").With("template", name).Wrapf(err, "subject")
	}
	if text, err = execute(s.text, data); err != nil {
		return "", "", "", oops.In("templates").With("template", name).Wrapf(err, "text")
	}
	if html, err = execute(s.html, data); err != nil {
		return "", "", "", oops.In("templates").With("template", name).Wrapf(err, "html")
	}
	return strings.TrimSpace(subject), text, html, nil
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func execute(t executor, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func mustLoad(name string) set {
	text := func(suffix string) *texttpl.Template {
		file := name + suffix
		return texttpl.Must(texttpl.New(file).Funcs(texttpl.FuncMap(funcs)).Option("missingkey=zero").ParseFS(FS, file))
	}
	file := name + ".html.tmpl"
	return set{
		subject: text(".subject.tmpl"),
		text:    text(".text.tmpl"),
		html:    htmpl.Must(htmpl.New(file).Funcs(htmpl.FuncMap(funcs)).Option("missingkey=zero").ParseFS(FS, file)),
	}
}

var funcs = map[string]any{
	"upper":     strings.ToUpper,
	"default":   defaultFn,
	"humanTime": humanTime,
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback, value any) any {
	switch x := value.(type) {
	case nil:
		return fallback
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
	}
	return value
}

// humanTime renders an RFC3339 string as "02 January 2006, 15:04 UTC"; other input passes through.
func humanTime(v any) string {
	s := fmt.Sprint(v)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.UTC().Format("02 January 2006, 15:04") + " UTC"
}
