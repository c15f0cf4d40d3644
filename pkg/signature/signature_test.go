package signature_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AIM-Intelligence/AIM-Forge/pkg/signature"
)

func TestAnalyze_RunScriptExtractsInputsAndOutputs(t *testing.T) {
	src := `func RunScript(x int = 0, label string = "") {
		return {"y": x * 2, "label": label}
	}`
	sig := signature.Analyze(src)
	assert.Equal(t, signature.ModeScript, sig.Mode)
	assert.Len(t, sig.Inputs, 2)
	assert.Equal(t, "x", sig.Inputs[0].Name)
	assert.False(t, sig.Inputs[0].Required)
	assert.ElementsMatch(t, []string{"y", "label"}, []string{sig.Outputs[0].Name, sig.Outputs[1].Name})
}

func TestAnalyze_RequiredParamHasNoDefault(t *testing.T) {
	src := `func RunScript(x int) {
		return x
	}`
	sig := signature.Analyze(src)
	assert.True(t, sig.Inputs[0].Required)
}

func TestAnalyze_NoOutputsDefaultsToGeneric(t *testing.T) {
	src := `func main(x int = 0) {
		return x
	}`
	sig := signature.Analyze(src)
	assert.Equal(t, signature.ModeBasic, sig.Mode)
	assert.Equal(t, []signature.Output{{Name: "output", Type: "Any"}}, sig.Outputs)
}

func TestAnalyze_BareExpressionUsesInputData(t *testing.T) {
	sig := signature.Analyze(`input_data + 1`)
	assert.Equal(t, signature.ModeBasic, sig.Mode)
	assert.Len(t, sig.Inputs, 1)
	assert.Equal(t, "input_data", sig.Inputs[0].Name)
}

func TestAnalyze_SyntaxErrorYieldsUnknown(t *testing.T) {
	sig := signature.Analyze(`func RunScript(x int = 0) { return x`)
	assert.Equal(t, signature.ModeUnknown, sig.Mode)
	assert.NotEmpty(t, sig.Diagnostic)
	assert.Empty(t, sig.Inputs)
	assert.Empty(t, sig.Outputs)
}
