package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"log"

	"github.com/lordofkekss/EFE/internal/models"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// SlideRenderer produces the HTML body shown for one slide of a live
// deck. Section and lesson nodes use their stored rich-content body;
// exercise slides always contain the solution markup so that reveal
// events can toggle visibility without a re-fetch.
type SlideRenderer struct {
	md goldmark.Markdown
}

func NewSlideRenderer() *SlideRenderer {
	return &SlideRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (r *SlideRenderer) RenderSlide(node *models.ContentNode, ex *models.Exercise, revealed bool) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<section class="slide" data-node-id="%s">`, html.EscapeString(node.ID))
	fmt.Fprintf(&buf, "<h2>%s</h2>", html.EscapeString(node.Title))

	switch node.Type {
	case models.NodeExercise:
		r.renderExercise(&buf, node, ex, revealed)
	default:
		buf.WriteString(r.body(node))
	}

	buf.WriteString("</section>")
	return buf.String()
}

func (r *SlideRenderer) renderExercise(buf *bytes.Buffer, node *models.ContentNode, ex *models.Exercise, revealed bool) {
	if ex == nil {
		buf.WriteString(`<p class="placeholder">Übungsinhalt fehlt.</p>`)
		return
	}

	fmt.Fprintf(buf, `<div class="exercise-prompt">%s</div>`, r.Markdown(ex.PromptMD))

	cls := "solution hidden"
	if revealed {
		cls = "solution"
	}
	fmt.Fprintf(buf, `<div class="%s"><h3>Lösung</h3>%s</div>`, cls, r.solutionBody(ex))
}

func (r *SlideRenderer) solutionBody(ex *models.Exercise) string {
	if len(ex.AnswerSchema) == 0 {
		return `<p class="placeholder">Keine Lösung hinterlegt.</p>`
	}

	var schema struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(ex.AnswerSchema, &schema); err == nil && schema.Text != "" {
		return r.Markdown(schema.Text)
	}

	return "<pre>" + html.EscapeString(string(ex.AnswerSchema)) + "</pre>"
}

func (r *SlideRenderer) body(node *models.ContentNode) string {
	if node.BodyHTML != "" {
		return node.BodyHTML
	}
	return r.Markdown(node.BodyMD)
}

// Markdown renders GFM markdown to HTML, falling back to escaped text
// if the source cannot be parsed.
func (r *SlideRenderer) Markdown(src string) string {
	var out bytes.Buffer
	if err := r.md.Convert([]byte(src), &out); err != nil {
		log.Printf("render: markdown error: %v", err)
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return out.String()
}
