package evaluator

import (
	"regexp"
	"strconv"
	"strings"
)

// Mode mirrors the dispatch priority of the sandboxed evaluator: a node
// defining RunScript runs in "script" mode with keyword-style argument
// binding; anything else (a main function, or a bare expression body) runs
// in "basic" mode.
type Mode string

const (
	ModeScript Mode = "script"
	ModeBasic  Mode = "basic"
)

// Param is one declared parameter of a node's entry function.
type Param struct {
	Name       string
	TypeAnnot  string
	Default    interface{}
	HasDefault bool
}

// Source is the parsed shape of a node's source file: its dispatch mode,
// declared entry function name, parameter list, and expression body.
type Source struct {
	Mode     Mode
	FuncName string
	Params   []Param
	Body     string
}

var headerRe = regexp.MustCompile(`(?s)^\s*func\s+(RunScript|main)\s*\(([^)]*)\)\s*\{`)

// Parse extracts the header and body from a node source file. A file with
// no recognized header is treated as a bare expression body bound only to
// input_data, the collapse of "first callable" to a single implicit
// callable when the DSL has no way to declare more than one function.
func Parse(src string) (*Source, error) {
	loc := headerRe.FindStringSubmatchIndex(src)
	if loc == nil {
		return &Source{
			Mode:     ModeBasic,
			FuncName: "",
			Body:     strings.TrimSpace(src),
		}, nil
	}

	funcName := src[loc[2]:loc[3]]
	paramList := src[loc[4]:loc[5]]
	bodyStart := loc[1]

	body, err := extractBalancedBody(src, bodyStart)
	if err != nil {
		return nil, err
	}

	params, err := parseParams(paramList)
	if err != nil {
		return nil, err
	}

	mode := ModeBasic
	if funcName == "RunScript" {
		mode = ModeScript
	}

	return &Source{
		Mode:     mode,
		FuncName: funcName,
		Params:   params,
		Body:     stripReturn(body),
	}, nil
}

// extractBalancedBody scans forward from just after the header's opening
// brace and returns everything up to its matching close, tracking nested
// braces so expr map literals inside the body do not terminate it early.
func extractBalancedBody(src string, start int) (string, error) {
	depth := 1
	i := start
	for i < len(src) {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return src[start:i], nil
			}
		}
		i++
	}
	return "", ErrUnterminatedBody
}

// stripReturn removes a single leading "return" keyword so the remainder is
// a bare expression suitable for expr-lang, which has no statement form.
func stripReturn(body string) string {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "return ") {
		return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(trimmed, "return "), ";"))
	}
	return strings.TrimSuffix(trimmed, ";")
}

func parseParams(list string) ([]Param, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	fields := splitTopLevelCommas(list)
	params := make([]Param, 0, len(fields))
	for _, field := range fields {
		p, err := parseOneParam(field)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// splitTopLevelCommas splits on commas that are not inside a quoted string,
// so a string default containing a comma does not fracture the param list.
func splitTopLevelCommas(s string) []string {
	var out []string
	depthQuote := false
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			depthQuote = !depthQuote
		case ',':
			if !depthQuote {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

var paramRe = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s*(?:=\s*(.+))?$`)

func parseOneParam(field string) (Param, error) {
	m := paramRe.FindStringSubmatch(strings.TrimSpace(field))
	if m == nil {
		return Param{}, ErrMalformedHeader
	}
	p := Param{Name: m[1], TypeAnnot: m[2]}
	if m[3] != "" {
		lit, err := parseLiteral(strings.TrimSpace(m[3]))
		if err != nil {
			return Param{}, err
		}
		p.Default = lit
		p.HasDefault = true
	}
	return p, nil
}

// parseLiteral parses the small set of default-value literals the header
// grammar supports: quoted strings, booleans, nil, integers, and floats.
func parseLiteral(lit string) (interface{}, error) {
	switch lit {
	case "nil", "null":
		return nil, nil
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if strings.HasPrefix(lit, `"`) && strings.HasSuffix(lit, `"`) && len(lit) >= 2 {
		return lit[1 : len(lit)-1], nil
	}
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(lit, 64); err == nil {
		return f, nil
	}
	return nil, ErrMalformedHeader
}
