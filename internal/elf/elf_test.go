package elf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIterator struct {
	sections []Section
}

func (f *fakeIterator) Sections() []Section { return f.sections }
func (f *fakeIterator) Close() error        { return nil }

func TestIsDebugSection(t *testing.T) {
	assert.True(t, isDebugSection(".debug_info"))
	assert.True(t, isDebugSection(".debug_line"))
	assert.True(t, isDebugSection(".symtab"))
	assert.False(t, isDebugSection(".text"))
	assert.False(t, isDebugSection(".rodata"))
}

func TestStripDebugSectionsOmitsDebugRanges(t *testing.T) {
	src := []byte("AAAABBBBCCCCDDDD")
	it := &fakeIterator{sections: []Section{
		{Name: ".text", Offset: 0, Size: 4, IsDebug: false},
		{Name: ".debug_info", Offset: 4, Size: 8, IsDebug: true},
		{Name: ".rodata", Offset: 12, Size: 4, IsDebug: false},
	}}

	var out bytes.Buffer
	err := StripDebugSections(it, bytes.NewReader(src), &out, int64(len(src)))
	require.NoError(t, err)
	assert.Equal(t, "AAAADDDD", out.String())
}

func TestStripDebugSectionsNoDebugIsIdentity(t *testing.T) {
	src := []byte("hello world")
	it := &fakeIterator{sections: []Section{{Name: ".text", Offset: 0, Size: uint64(len(src))}}}

	var out bytes.Buffer
	err := StripDebugSections(it, bytes.NewReader(src), &out, int64(len(src)))
	require.NoError(t, err)
	assert.Equal(t, string(src), out.String())
}
