// Package drafts renders the per-candidate email text.
package drafts

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/candidate"
)

const (
	namePlaceholder = "{candidate_name}"
	defaultName     = "Candidate"
)

// TemplateRenderError reports a template that could not be rendered for a record.
type TemplateRenderError struct {
	Status      candidate.Status
	Placeholder string
	Err         error
}

func (e *TemplateRenderError) Error() string {
	if e.Placeholder != "" {
		return fmt.Sprintf("render %s template: unknown placeholder {%s}", e.Status.Key(), e.Placeholder)
	}
	return fmt.Sprintf("render %s template: %v", e.Status.Key(), e.Err)
}

func (e *TemplateRenderError) Unwrap() error {
	return e.Err
}

// Generator renders status keyed templates. Keys are lowercase status names.
type Generator struct {
	templates map[string]string
	logger    *zap.Logger
}

func NewGenerator(templates map[string]string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	normalized := make(map[string]string, len(templates))
	for k, v := range templates {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return &Generator{templates: normalized, logger: logger}
}

// Generate never fails. A template that cannot be rendered falls back to one
// with only the candidate name substituted.
func (g *Generator) Generate(r *candidate.Record) string {
	tmpl, ok := g.templates[r.Status.Key()]
	if !ok || tmpl == "" {
		return ""
	}

	out, err := Render(tmpl, r)
	if err != nil {
		g.logger.Warn("email template fallback",
			zap.String("filename", r.Filename),
			zap.Error(err),
		)
		return fallback(tmpl, r)
	}
	return out
}

// Render substitutes {field} placeholders. {{ and }} produce literal braces.
func Render(tmpl string, r *candidate.Record) (string, error) {
	values := fields(r)

	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", &TemplateRenderError{Status: r.Status, Err: fmt.Errorf("unclosed placeholder at offset %d", i)}
			}
			name := strings.TrimSpace(tmpl[i+1 : i+1+end])
			value, ok := values[name]
			if !ok {
				return "", &TemplateRenderError{Status: r.Status, Placeholder: name}
			}
			b.WriteString(value)
			i += end + 1
		case c == '}':
			return "", &TemplateRenderError{Status: r.Status, Err: fmt.Errorf("single '}' at offset %d", i)}
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

func fields(r *candidate.Record) map[string]string {
	return map[string]string{
		"filename":         r.Filename,
		"candidate_name":   r.CandidateName,
		"email":            r.Email,
		"phone":            r.Phone,
		"score":            strconv.FormatFloat(r.Score, 'f', 1, 64),
		"status":           string(r.Status),
		"reasoning":        r.Reasoning,
		"matched_keywords": r.Keywords(),
		"notes":            r.Notes,
	}
}

func fallback(tmpl string, r *candidate.Record) string {
	name := strings.TrimSpace(r.CandidateName)
	if name == "" {
		name = defaultName
	}
	return strings.ReplaceAll(tmpl, namePlaceholder, name)
}
