package evaluator

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path"
	"regexp"
	"time"
)

// namespaceOptions configures the fixed namespace exposed to every
// evaluated node, standing in for the small set of always-available
// standard modules: serialization, math, time, random, regex, filesystem
// path abstraction, process environment, and the asynchronous/temporary
// file primitives a node source may reference.
type namespaceOptions struct {
	allowedEnvKeys map[string]bool
}

// baseNamespace builds the restricted function table bound into every
// evaluation environment. None of these touch the real filesystem or block
// the caller's goroutine. env.get reads the real process environment,
// limited to allowedEnvKeys when that map is non-nil and unrestricted when
// it is nil.
func baseNamespace(opts namespaceOptions) map[string]interface{} {
	return map[string]interface{}{
		"json": map[string]interface{}{
			"encode": func(v interface{}) string {
				raw, err := json.Marshal(v)
				if err != nil {
					return ""
				}
				return string(raw)
			},
			"decode": func(s string) interface{} {
				var v interface{}
				if err := json.Unmarshal([]byte(s), &v); err != nil {
					return nil
				}
				return v
			},
		},
		"math": map[string]interface{}{
			"sqrt":  math.Sqrt,
			"pow":   math.Pow,
			"abs":   math.Abs,
			"floor": math.Floor,
			"ceil":  math.Ceil,
			"pi":    math.Pi,
		},
		"time": map[string]interface{}{
			"now":      func() int64 { return time.Now().Unix() },
			"unix":     func(sec int64) string { return time.Unix(sec, 0).UTC().Format(time.RFC3339) },
			"nowNanos": func() int64 { return time.Now().UnixNano() },
		},
		"rand": map[string]interface{}{
			"intn":  func(n int) int { return rand.Intn(n) },
			"float": func() float64 { return rand.Float64() },
		},
		"re": map[string]interface{}{
			"match": func(pattern, s string) bool {
				ok, err := regexp.MatchString(pattern, s)
				return err == nil && ok
			},
			"findAll": func(pattern, s string) []string {
				r, err := regexp.Compile(pattern)
				if err != nil {
					return nil
				}
				return r.FindAllString(s, -1)
			},
		},
		"path": map[string]interface{}{
			"join": func(parts ...string) string { return path.Join(parts...) },
			"base": func(p string) string { return path.Base(p) },
		},
		"env": map[string]interface{}{
			"get": func(key string) string {
				if opts.allowedEnvKeys != nil && !opts.allowedEnvKeys[key] {
					return ""
				}
				return os.Getenv(key)
			},
		},
		"sleep": func(ms int) string {
			return fmt.Sprintf("slept %dms", ms)
		},
		"tempname": func(prefix string) string {
			return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
		},
		"keys": func(m map[string]interface{}) []string {
			out := make([]string, 0, len(m))
			for k := range m {
				out = append(out, k)
			}
			return out
		},
		"values": func(m map[string]interface{}) []interface{} {
			out := make([]interface{}, 0, len(m))
			for _, v := range m {
				out = append(out, v)
			}
			return out
		},
		"range": func(n int) []interface{} {
			if n < 0 {
				n = 0
			}
			out := make([]interface{}, n)
			for i := 0; i < n; i++ {
				out[i] = i
			}
			return out
		},
		"zip": func(a, b []interface{}) []interface{} {
			n := len(a)
			if len(b) < n {
				n = len(b)
			}
			out := make([]interface{}, n)
			for i := 0; i < n; i++ {
				out[i] = []interface{}{a[i], b[i]}
			}
			return out
		},
	}
}
