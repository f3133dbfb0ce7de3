package reflection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

// ErrInvalid wraps every reason model output is rejected.
var ErrInvalid = errors.New("invalid reflection")

const (
	minSuggestions = 2
	maxSuggestions = 3
)

type themePayload struct {
	Label string `json:"label" jsonschema:"required"`
	Count int    `json:"count" jsonschema:"required"`
}

type payload struct {
	Summary     string         `json:"summary" jsonschema:"required"`
	Avg         *float64       `json:"avg" jsonschema:"required"`
	Themes      []themePayload `json:"themes" jsonschema:"required"`
	Suggestions []string       `json:"suggestions" jsonschema:"required"`
}

// ParseReflection validates raw model output into a reflection. The JSON
// object may be surrounded by prose; anything else is rejected with ErrInvalid.
func ParseReflection(raw string) (entry.MonthlyReflection, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return entry.MonthlyReflection{}, err
	}

	var p payload
	dec := json.NewDecoder(bytes.NewReader(obj))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return entry.MonthlyReflection{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if dec.More() {
		return entry.MonthlyReflection{}, fmt.Errorf("%w: trailing data", ErrInvalid)
	}

	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		return entry.MonthlyReflection{}, fmt.Errorf("%w: empty summary", ErrInvalid)
	}
	if p.Avg == nil || math.IsNaN(*p.Avg) || math.IsInf(*p.Avg, 0) {
		return entry.MonthlyReflection{}, fmt.Errorf("%w: missing avg", ErrInvalid)
	}
	if p.Themes == nil {
		return entry.MonthlyReflection{}, fmt.Errorf("%w: missing themes", ErrInvalid)
	}

	themes := make([]entry.Theme, 0, len(p.Themes))
	for _, t := range p.Themes {
		label := strings.TrimSpace(t.Label)
		if label == "" || t.Count < 1 {
			return entry.MonthlyReflection{}, fmt.Errorf("%w: bad theme %+v", ErrInvalid, t)
		}
		themes = append(themes, entry.Theme{Label: label, Count: t.Count})
	}
	if len(themes) > MaxThemes {
		themes = themes[:MaxThemes]
	}

	if len(p.Suggestions) < minSuggestions || len(p.Suggestions) > maxSuggestions {
		return entry.MonthlyReflection{}, fmt.Errorf("%w: want %d-%d suggestions, got %d", ErrInvalid, minSuggestions, maxSuggestions, len(p.Suggestions))
	}
	suggestions := make([]string, 0, len(p.Suggestions))
	for _, s := range p.Suggestions {
		if s = strings.TrimSpace(s); s == "" {
			return entry.MonthlyReflection{}, fmt.Errorf("%w: empty suggestion", ErrInvalid)
		}
		suggestions = append(suggestions, s)
	}

	return entry.MonthlyReflection{
		Summary:     summary,
		Avg:         entry.Round2(*p.Avg),
		Themes:      themes,
		Suggestions: suggestions,
	}, nil
}

func extractObject(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, io.ErrUnexpectedEOF)
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object", ErrInvalid)
	}
	return []byte(s[start : end+1]), nil
}

// Schema is the strict JSON schema requested from the model.
func Schema() map[string]interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	b, err := reflector.Reflect(payload{}).MarshalJSON()
	if err != nil {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	delete(m, "$schema")
	delete(m, "$id")
	strictObjects(m)
	return m
}

// strictObjects marks every object closed with all of its properties required.
func strictObjects(schema map[string]interface{}) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]interface{}); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			schema["required"] = required
		}
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				strictObjects(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		strictObjects(items)
	}
}
