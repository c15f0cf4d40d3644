// Package signature statically extracts input/output metadata from a
// node's source file without executing it, reusing the same header grammar
// the evaluator dispatches against.
package signature

import (
	"regexp"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/evaluator"
)

// Mode mirrors evaluator.Mode but also carries "unknown" for sources that
// fail to parse at all.
type Mode string

const (
	ModeScript  Mode = "script"
	ModeBasic   Mode = "basic"
	ModeUnknown Mode = "unknown"
)

// Input describes one declared parameter of a node's entry function.
type Input struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Default  interface{} `json:"default,omitempty"`
	Required bool        `json:"required"`
}

// Output describes one key a node's return value is expected to carry.
type Output struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Signature is the static description extracted from a node source file.
type Signature struct {
	Mode        Mode     `json:"mode"`
	Inputs      []Input  `json:"inputs"`
	Outputs     []Output `json:"outputs"`
	Diagnostic  string   `json:"diagnostic,omitempty"`
}

var keyLiteralRe = regexp.MustCompile(`"([A-Za-z_][A-Za-z0-9_]*)"\s*:`)

// Analyze parses source and extracts its signature. Syntax errors yield
// ModeUnknown with a diagnostic and empty input/output lists rather than an
// error return, matching the contract that analysis never fails the caller.
func Analyze(source string) Signature {
	parsed, err := evaluator.Parse(source)
	if err != nil {
		return Signature{Mode: ModeUnknown, Diagnostic: err.Error()}
	}

	sig := Signature{}
	switch parsed.Mode {
	case evaluator.ModeScript:
		sig.Mode = ModeScript
	default:
		sig.Mode = ModeBasic
	}

	sig.Inputs = make([]Input, 0, len(parsed.Params))
	for _, p := range parsed.Params {
		sig.Inputs = append(sig.Inputs, Input{
			Name:     p.Name,
			Type:     p.TypeAnnot,
			Default:  p.Default,
			Required: !p.HasDefault,
		})
	}
	if sig.Mode == ModeBasic && parsed.FuncName == "" && len(sig.Inputs) == 0 {
		sig.Inputs = append(sig.Inputs, Input{Name: "input_data", Type: "Any", Required: false})
	}

	sig.Outputs = extractOutputs(parsed.Body)
	return sig
}

// extractOutputs walks the body text for map-literal keys, deduping while
// preserving first-occurrence order, and falls back to the conventional
// single "output" field when no keys are found.
func extractOutputs(body string) []Output {
	matches := keyLiteralRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool, len(matches))
	outputs := make([]Output, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		outputs = append(outputs, Output{Name: name, Type: "Any"})
	}
	if len(outputs) == 0 {
		outputs = append(outputs, Output{Name: "output", Type: "Any"})
	}
	return outputs
}
