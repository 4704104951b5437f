package document

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/julianshen/componentdoc/internal/errors"
)

const footer = "_This document was generated automatically._"

// Renderer turns a Model into the text of one format.
type Renderer struct {
	Format Format
	// Now stamps HTML output. Defaults to time.Now.
	Now func() time.Time
}

// Render renders m in r.Format.
func (r Renderer) Render(m Model) (string, error) {
	switch r.Format {
	case Markdown, "":
		return RenderMarkdown(m), nil
	case HTML:
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		return RenderHTML(m, now())
	default:
		return "", errors.Newf("unsupported output format %q", r.Format)
	}
}

// RenderMarkdown lays the sections out as a single Markdown README.
func RenderMarkdown(m Model) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Documentation\n\n", m.ComponentName)
	b.WriteString("> Generated component documentation: directory layout, public header functions, call relationships and flow diagrams.\n\n")

	writeSection(&b, "Directory Structure", m.FolderStructure)
	writeSection(&b, "Header Functions", m.HeaderFunctions)
	writeSection(&b, "Function Call Relationships", m.CallRelationship)
	writeSection(&b, "Flow Diagrams", m.FlowDiagrams)

	b.WriteString(footer)
	b.WriteString("\n")
	return b.String()
}

// writeSection writes a titled section followed by a rule. Content that
// already opens with a level-two heading keeps its own title.
func writeSection(b *strings.Builder, title, content string) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "## ") {
		fmt.Fprintf(b, "## %s\n\n", title)
	}
	if content == "" {
		content = "_Not available._"
	}
	b.WriteString(content)
	b.WriteString("\n\n---\n\n")
}

var (
	md = goldmark.New(goldmark.WithExtensions(extension.GFM))

	mermaidBlock   = regexp.MustCompile(`(?s)<pre><code class="language-mermaid">(.*?)</code></pre>`)
	mermaidKeyword = regexp.MustCompile(`^(graph|flowchart|sequenceDiagram|classDiagram|stateDiagram(-v2)?|erDiagram|gantt|pie|journey|mindmap)\b`)
)

type htmlSection struct {
	Title string
	Body  template.HTML
}

type htmlPage struct {
	Title       string
	Sections    []htmlSection
	GeneratedAt string
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<script type="module">
  import mermaid from 'https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.esm.min.mjs';
  mermaid.initialize({ startOnLoad: true });
</script>
<style>
  body { font-family: -apple-system, "Segoe UI", Arial, sans-serif; line-height: 1.7; color: #333; max-width: 1200px; margin: 0 auto; padding: 20px; background: #f9f9f9; }
  h1 { text-align: center; color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 15px; }
  h2 { color: #34495e; border-left: 5px solid #3498db; background: #fff; padding: 10px 15px; border-radius: 5px; }
  h3 { color: #2980b9; }
  h4 { color: #1abc9c; }
  pre { background: #2d2d2d; color: #f8f8f2; padding: 15px; border-radius: 5px; overflow-x: auto; }
  code { font-family: Consolas, Monaco, monospace; }
  .mermaid { background: #fff; padding: 20px; border-radius: 5px; text-align: center; }
  footer { text-align: center; color: #7f8c8d; margin-top: 50px; font-size: 14px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}
<section>
<h2>{{.Title}}</h2>
{{.Body}}
</section>
<hr>
{{end}}
<footer>
<p>Generated {{.GeneratedAt}}</p>
</footer>
</body>
</html>
`))

// RenderHTML renders m as a standalone page. Section Markdown goes through
// goldmark; mermaid code blocks become client-rendered diagrams.
func RenderHTML(m Model, now time.Time) (string, error) {
	page := htmlPage{
		Title:       m.ComponentName + " Documentation",
		GeneratedAt: now.Format("2006-01-02 15:04:05"),
	}
	parts := []struct{ title, content string }{
		{"Directory Structure", m.FolderStructure},
		{"Header Functions", stripHeading(m.HeaderFunctions)},
		{"Function Call Relationships", m.CallRelationship},
		{"Flow Diagrams", fenceBareMermaid(m.FlowDiagrams)},
	}
	for _, p := range parts {
		body, err := markdownToHTML(p.content)
		if err != nil {
			return "", errors.Wrapf(err, "render %s", p.title)
		}
		page.Sections = append(page.Sections, htmlSection{Title: p.title, Body: body})
	}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, page); err != nil {
		return "", errors.Wrap(err, "execute page template")
	}
	return out.String(), nil
}

func markdownToHTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	html := mermaidBlock.ReplaceAllString(buf.String(), `<div class="mermaid">$1</div>`)
	return template.HTML(html), nil
}

// stripHeading drops a leading level-two heading the page supplies itself.
func stripHeading(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "## ") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return ""
}

// fenceBareMermaid wraps unfenced mermaid source in a mermaid code fence.
func fenceBareMermaid(s string) string {
	t := strings.TrimSpace(s)
	if strings.Contains(t, "```") || !mermaidKeyword.MatchString(t) {
		return s
	}
	return "```mermaid\n" + t + "\n```\n"
}
