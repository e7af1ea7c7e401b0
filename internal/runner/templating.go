package runner

import (
	"bytes"
	"math/rand"
	"strings"
	"sync"
	"text/template"

	"github.com/google/uuid"
)

// TemplateEngine renders templated targets such as
// http://host/item?id={{randomInt 1 100}}&nonce={{uuid}}.
type TemplateEngine struct {
	cache   map[string]*template.Template
	mu      sync.RWMutex
	funcMap template.FuncMap
}

// TemplateData is passed to the execution context
type TemplateData struct {
	Worker    int
	RequestID string
}

func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		cache: make(map[string]*template.Template),
	}

	e.funcMap = template.FuncMap{
		"randomInt":    randomInt,
		"randomUUID":   randomUUID,
		"randomChoice": randomChoice,
	}

	return e
}

// IsTemplate reports whether s needs rendering at all.
func IsTemplate(s string) bool {
	return strings.Contains(s, "{{")
}

// Preprocess converts simple variables {{worker}} to Go template syntax {{.Worker}}
func (e *TemplateEngine) Preprocess(input string) string {
	s := input
	s = strings.ReplaceAll(s, "{{worker}}", "{{.Worker}}")
	s = strings.ReplaceAll(s, "{{uuid}}", "{{.RequestID}}")
	s = strings.ReplaceAll(s, "{{requestID}}", "{{.RequestID}}")
	return s
}

// Render parses text once, caches it, and executes it with data.
func (e *TemplateEngine) Render(text string, data TemplateData) (string, error) {
	t, err := e.lookup(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *TemplateEngine) lookup(text string) (*template.Template, error) {
	e.mu.RLock()
	t, ok := e.cache[text]
	e.mu.RUnlock()
	if ok {
		return t, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if t, ok = e.cache[text]; ok {
		return t, nil
	}

	t, err := template.New("target").Funcs(e.funcMap).Option("missingkey=error").Parse(e.Preprocess(text))
	if err != nil {
		return nil, err
	}
	e.cache[text] = t
	return t, nil
}

// --- Functions ---

func randomInt(min, max int) int {
	if max <= min {
		return min
	}
	return rand.Intn(max-min) + min
}

func randomUUID() string {
	return uuid.New().String()
}

func randomChoice(choices ...string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[rand.Intn(len(choices))]
}
