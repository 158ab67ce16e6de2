package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
)

var pageTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: Georgia, "Noto Serif", serif; line-height: 1.7; color: #222; background: #faf9f6; }
.content { max-width: 46rem; margin: 0 auto; padding: 2rem 1rem 6rem; }
h1, h2, h3 { font-family: "Helvetica Neue", Arial, sans-serif; line-height: 1.25; }
h1 { border-bottom: 2px solid #ddd; padding-bottom: .4rem; }
hr { border: none; border-top: 1px solid #ddd; margin: 2.5rem 0; }
blockquote { border-left: 3px solid #ccc; margin-left: 0; padding-left: 1rem; color: #555; }
code { background: #eee; padding: .1rem .3rem; border-radius: 3px; }
</style>
</head>
<body>
<div class="content">
{{.Body}}
</div>
</body>
</html>
`))

// HTML renders the digest as a standalone HTML page.
func HTML(d Digest) (string, error) {
	md := goldmark.New()
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(d)), &body); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title string
		Body  template.HTML
	}{
		Title: d.BookTitle,
		Body:  template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("render page: %w", err)
	}
	return out.String(), nil
}
