package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPlainTextIsUnchanged(t *testing.T) {
	ctx := NewContext(nil)
	out, err := Expand(ctx, []byte("nothing special here"))
	require.NoError(t, err)
	assert.Equal(t, "nothing special here", string(out))
}

func TestExpandEscapedPercent(t *testing.T) {
	ctx := NewContext(nil)
	out, err := Expand(ctx, []byte("100%% done"))
	require.NoError(t, err)
	assert.Equal(t, "100% done", string(out))
}

func TestExpandUndefinedReferenceIsInert(t *testing.T) {
	ctx := NewContext(nil)
	out, err := Expand(ctx, []byte("%undefined and %{also_undefined}"))
	require.NoError(t, err)
	assert.Equal(t, "%undefined and %{also_undefined}", string(out))
}

func TestExpandDefinedBracedAndBareForms(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Define("foo", []byte("bar"), nil, LevelSpecFile)

	out, err := Expand(ctx, []byte("%foo-%{foo}-%%foo"))
	require.NoError(t, err)
	assert.Equal(t, "bar-bar-%foo", string(out))
}

func TestExpandIsSinglePassNotRescanned(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Define("a", []byte("%b"), nil, LevelSpecFile)
	ctx.Define("b", []byte("final"), nil, LevelSpecFile)

	out, err := Expand(ctx, []byte("%a"))
	require.NoError(t, err)
	assert.Equal(t, "%b", string(out), "expansion must not be rescanned for further macro references")
}

func TestExpandIdempotentOnOutputWithNoMacros(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Define("name", []byte("rpmbuilder"), nil, LevelSpecFile)

	first, err := Expand(ctx, []byte("%{name}"))
	require.NoError(t, err)
	second, err := Expand(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpandDefineDirectiveConsumesWholeBuffer(t *testing.T) {
	ctx := NewContext(nil)
	out, err := Expand(ctx, []byte("%define foo bar"))
	require.NoError(t, err)
	assert.Nil(t, out)

	m, ok := ctx.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", string(m.Body))
}

func TestExpandDefineBodyIsExpandedAtDefineTime(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Define("inner", []byte("INNER"), nil, LevelSpecFile)

	_, err := Expand(ctx, []byte("%define outer prefix-%{inner}-suffix"))
	require.NoError(t, err)

	m, ok := ctx.Lookup("outer")
	require.True(t, ok)
	assert.Equal(t, "prefix-INNER-suffix", string(m.Body))
}

func TestExpandDefineOnlyRecognizedAtBufferStart(t *testing.T) {
	ctx := NewContext(nil)
	out, err := Expand(ctx, []byte("echo %define foo bar"))
	require.NoError(t, err)
	assert.Equal(t, "echo %define foo bar", string(out))
	assert.False(t, ctx.IsDefined("foo"))
}

func TestExpandUnterminatedBraceIsBadSpec(t *testing.T) {
	ctx := NewContext(nil)
	_, err := Expand(ctx, []byte("%{unterminated"))
	require.Error(t, err)
	assert.Equal(t, "Unterminated {", Reason(err))
}

func TestExpandEmptyBraceNameIsBadSpec(t *testing.T) {
	ctx := NewContext(nil)
	_, err := Expand(ctx, []byte("%{}"))
	require.Error(t, err)
	assert.Equal(t, "Illegal % syntax", Reason(err))
}

func TestExpandBraceNameTakesFirstTokenOnly(t *testing.T) {
	ctx := NewContext(nil)
	ctx.Define("foo", []byte("FOUND"), nil, LevelSpecFile)
	out, err := Expand(ctx, []byte("%{foo junk}"))
	require.NoError(t, err)
	assert.Equal(t, "FOUND", string(out))
}
