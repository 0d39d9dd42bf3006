package web

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"go.uber.org/zap"

	"github.com/dogfacts/dogfacts/internal/errors"
)

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(data)
}

// renderError writes {"detail": message} with the error's status.
// Internal error text is logged, never sent.
func (h *Handlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	fErr := errors.As(err)
	message := fErr.Message

	if fErr.Status >= 500 {
		h.logger.Error("request failed",
			zap.String("code", string(fErr.Code)),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
		if fErr.Code == errors.ErrInternal {
			message = "internal error"
		}
	}

	renderJSON(w, fErr.Status, map[string]string{"detail": message})
}

var indexPage = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>dogfacts {{.Version}}</title>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// renderIndex builds the landing page from embedded markdown.
func renderIndex(md, version string) []byte {
	var buf bytes.Buffer
	err := indexPage.Execute(&buf, struct {
		Version string
		Body    template.HTML
	}{version, renderMarkdown(md)})
	if err != nil {
		return []byte(template.HTMLEscapeString(md))
	}
	return buf.Bytes()
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
