package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/evaluator"
)

func TestRun_RunScriptDoublesInput(t *testing.T) {
	e := evaluator.New(nil)
	src := `func RunScript(x int = 0) {
		return {"y": x * 2}
	}`
	out, err := e.Run(src, map[string]interface{}{"x": 3})
	require.NoError(t, err)
	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 6, m["y"])
}

func TestRun_RunScriptUsesDefaultWhenMissing(t *testing.T) {
	e := evaluator.New(nil)
	src := `func RunScript(x int = 5) {
		return x + 1
	}`
	out, err := e.Run(src, map[string]interface{}{})
	require.NoError(t, err)
	assert.EqualValues(t, 6, out)
}

func TestRun_MainFallback(t *testing.T) {
	e := evaluator.New(nil)
	src := `func main(x int = 0) {
		return x * 10
	}`
	out, err := e.Run(src, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 40, out)
}

func TestRun_BareExpressionBindsInputData(t *testing.T) {
	e := evaluator.New(nil)
	out, err := e.Run(`input_data + 1`, 9)
	require.NoError(t, err)
	assert.EqualValues(t, 10, out)
}

func TestRun_MultiParamBindByName(t *testing.T) {
	e := evaluator.New(nil)
	src := `func RunScript(msg string = "", n int = 1) {
		return msg + msg + msg
	}`
	out, err := e.Run(src, map[string]interface{}{"msg": "hello", "n": 3})
	require.NoError(t, err)
	assert.Equal(t, "hellohellohello", out)
}

func TestRun_RangeBuiltinProducesIndexSlice(t *testing.T) {
	e := evaluator.New(nil)
	out, err := e.Run(`range(4)`, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{0, 1, 2, 3}, out)
}

func TestRun_ZipBuiltinPairsElementsPositionally(t *testing.T) {
	e := evaluator.New(nil)
	out, err := e.Run(`zip(["a", "b", "c"], [1, 2])`, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{
		[]interface{}{"a", 1},
		[]interface{}{"b", 2},
	}, out)
}

func TestRun_CompileErrorSurfacesAsError(t *testing.T) {
	e := evaluator.New(nil)
	_, err := e.Run(`func RunScript(x int = 0) { return x +++ }`, nil)
	assert.Error(t, err)
}
