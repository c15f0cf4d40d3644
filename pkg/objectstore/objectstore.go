// Package objectstore implements the hybrid pass-by-value / pass-by-reference
// transport for values flowing between vertices: scalars and small,
// JSON-serializable aggregates pass through untouched; any other value is
// parked behind a reference envelope that downstream vertices transparently
// unwrap.
package objectstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

// Store is a per-project mapping of ref_id -> native value. It outlives any
// single run; Clear empties it explicitly.
type Store struct {
	mu      sync.RWMutex
	values  map[string]interface{}
	counter int64

	inlineThreshold int
	previewMaxChars int
}

// New creates a Store. inlineThreshold is the byte size (serialized form)
// under which a value passes through by value; previewMaxChars bounds the
// human-readable preview text attached to reference envelopes.
func New(inlineThreshold, previewMaxChars int) *Store {
	return &Store{
		values:          make(map[string]interface{}),
		inlineThreshold: inlineThreshold,
		previewMaxChars: previewMaxChars,
	}
}

// Wrap applies the wrap policy on a vertex's output: scalars and nil pass
// through untouched; serializable aggregates under the inline threshold
// pass through; everything else is stored and a reference envelope is
// returned in its place.
func (s *Store) Wrap(producerNodeID string, value interface{}) interface{} {
	if isScalar(value) {
		return value
	}

	raw, err := json.Marshal(value)
	if err == nil && len(raw) < s.inlineThreshold {
		return value
	}

	ref := s.allocate(producerNodeID, value)
	size := 0
	if err == nil {
		size = len(raw)
	}
	return types.Reference{
		Type:     "reference",
		Ref:      ref,
		Preview:  s.preview(value),
		DataType: dataTypeName(value),
		Size:     size,
	}
}

// allocate inserts value under a freshly minted ref id of the form
// "{producer_node_id}_{ms}{seq}", the wall-clock milliseconds followed
// directly by this store's allocation counter, and returns that id.
func (s *Store) allocate(producerNodeID string, value interface{}) string {
	ms := time.Now().UnixMilli()
	seq := atomic.AddInt64(&s.counter, 1)
	ref := fmt.Sprintf("%s_%d%d", producerNodeID, ms, seq)

	s.mu.Lock()
	s.values[ref] = value
	s.mu.Unlock()
	return ref
}

// Get returns the value stored under ref, if any.
func (s *Store) Get(ref string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[ref]
	return v, ok
}

// Unwrap recursively replaces reference envelopes with their stored values.
// A missing reference degrades to its preview string rather than failing
// the call; maps and slices are recursed into so nested references resolve
// too.
func (s *Store) Unwrap(value interface{}) interface{} {
	switch v := value.(type) {
	case types.Reference:
		if resolved, ok := s.Get(v.Ref); ok {
			return s.Unwrap(resolved)
		}
		return v.Preview
	case map[string]interface{}:
		if isReferenceMap(v) {
			ref := mapToReference(v)
			if resolved, ok := s.Get(ref.Ref); ok {
				return s.Unwrap(resolved)
			}
			return ref.Preview
		}
		out := make(map[string]interface{}, len(v))
		for k, elem := range v {
			out[k] = s.Unwrap(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, elem := range v {
			out[i] = s.Unwrap(elem)
		}
		return out
	default:
		return value
	}
}

// Clear empties the project-level store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]interface{})
}

// Len reports the number of live entries, mostly useful for tests.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

func isScalar(value interface{}) bool {
	if value == nil {
		return true
	}
	switch value.(type) {
	case bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func isReferenceMap(m map[string]interface{}) bool {
	t, ok := m["type"].(string)
	_, hasRef := m["ref"]
	return ok && t == "reference" && hasRef
}

func mapToReference(m map[string]interface{}) types.Reference {
	ref := types.Reference{Type: "reference"}
	if v, ok := m["ref"].(string); ok {
		ref.Ref = v
	}
	if v, ok := m["preview"].(string); ok {
		ref.Preview = v
	}
	if v, ok := m["data_type"].(string); ok {
		ref.DataType = v
	}
	return ref
}

func dataTypeName(value interface{}) string {
	if value == nil {
		return "NoneType"
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map:
		return "dict"
	case reflect.Struct:
		return rv.Type().Name()
	default:
		return rv.Kind().String()
	}
}

// preview builds a short, human-readable summary of value following
// type-specific heuristics: tabular/array shape, container length plus a
// head sample, or the JSON text of anything else (its type name when it
// does not serialize). The result is
// normalized and truncated on rune boundaries, never mid-codepoint.
func (s *Store) preview(value interface{}) string {
	var text string
	switch v := value.(type) {
	case []interface{}:
		text = previewArray(v)
	case map[string]interface{}:
		text = previewTabularOrObject(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			text = dataTypeName(v)
		} else {
			text = string(raw)
		}
	}
	return truncate(norm.NFC.String(text), s.previewMaxChars)
}

func previewArray(v []interface{}) string {
	head := v
	more := ""
	const headSample = 3
	if len(head) > headSample {
		head = head[:headSample]
		more = ", ..."
	}
	parts := make([]string, 0, len(head))
	for _, elem := range head {
		raw, err := json.Marshal(elem)
		if err != nil {
			parts = append(parts, dataTypeName(elem))
			continue
		}
		parts = append(parts, string(raw))
	}
	return fmt.Sprintf("list[%d]: [%s%s]", len(v), strings.Join(parts, ", "), more)
}

func previewTabularOrObject(v map[string]interface{}) string {
	if rows, ok := v["rows"].([]interface{}); ok {
		return fmt.Sprintf("table[%d rows]", len(rows))
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("dict[%d keys]", len(v))
	}
	if len(raw) <= 100 {
		return string(raw)
	}
	return fmt.Sprintf("dict[%d keys]: %s...", len(v), raw[:80])
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
