package objectstore_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/objectstore"
	"github.com/AIM-Intelligence/AIM-Forge/pkg/types"
)

func TestWrap_ScalarsPassThrough(t *testing.T) {
	s := objectstore.New(1024, 100)
	assert.Equal(t, 3, s.Wrap("n1", 3))
	assert.Equal(t, "hi", s.Wrap("n1", "hi"))
	assert.Nil(t, s.Wrap("n1", nil))
}

func TestWrap_SmallAggregatePassesThrough(t *testing.T) {
	s := objectstore.New(1024, 100)
	v := map[string]interface{}{"y": 6.0}
	got := s.Wrap("n1", v)
	assert.Equal(t, v, got)
	assert.Equal(t, 0, s.Len())
}

func TestWrap_LargeValueBecomesReference(t *testing.T) {
	s := objectstore.New(32, 100)
	big := strings.Repeat("x", 100)
	got := s.Wrap("producer", []interface{}{big, big, big})
	ref, ok := got.(types.Reference)
	require.True(t, ok)
	assert.Equal(t, "reference", ref.Type)
	assert.NotEmpty(t, ref.Ref)
	assert.Contains(t, ref.Ref, "producer_")
	assert.Equal(t, 1, s.Len())
}

func TestUnwrap_RoundTrip(t *testing.T) {
	s := objectstore.New(10, 100)
	original := map[string]interface{}{"a": 1.0, "b": []interface{}{1.0, 2.0, 3.0, 4.0, 5.0}}
	wrapped := s.Wrap("p", original)
	ref, ok := wrapped.(types.Reference)
	require.True(t, ok)
	unwrapped := s.Unwrap(ref)
	assert.Equal(t, original, unwrapped)
}

func TestUnwrap_MissingReferenceDegradesToPreview(t *testing.T) {
	s := objectstore.New(1024, 100)
	ref := types.Reference{Type: "reference", Ref: "does-not-exist", Preview: "fallback text"}
	got := s.Unwrap(ref)
	assert.Equal(t, "fallback text", got)
}

func TestUnwrap_RecursesThroughMapsAndSlices(t *testing.T) {
	s := objectstore.New(10, 100)
	inner := map[string]interface{}{"deep": []interface{}{1.0, 2.0, 3.0, 4.0, 5.0, 6.0}}
	wrappedInner := s.Wrap("p1", inner)
	outer := map[string]interface{}{"nested": wrappedInner}
	got := s.Unwrap(outer)
	gotMap, ok := got.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, inner, gotMap["nested"])
}

func TestClear_EmptiesStore(t *testing.T) {
	s := objectstore.New(1, 100)
	s.Wrap("p", []interface{}{"a", "b", "c"})
	require.Equal(t, 1, s.Len())
	s.Clear()
	assert.Equal(t, 0, s.Len())
}
