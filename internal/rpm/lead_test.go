package rpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLeadMagicAndSizes(t *testing.T) {
	lead := NewLead("hello", "1.0", "1", "x86_64", KindBinary)
	data := lead.ToBinary()
	require.Len(t, data, 96)
	assert.Equal(t, []byte{0xed, 0xab, 0xee, 0xdb}, data[0:4])
	assert.Equal(t, byte(0), data[6]) // Type high byte: binary package
	assert.Equal(t, byte(0), data[7])
}

func TestNewLeadNameVersionReleaseIsNulTerminated(t *testing.T) {
	lead := NewLead("hello", "1.0", "1", "x86_64", KindBinary)
	assert.Equal(t, byte(0), lead.NameVersionRelease[65])
	assert.Contains(t, string(lead.NameVersionRelease[:]), "hello-1.0-1")
}

func TestNewLeadTruncatesOverlongNameVersionRelease(t *testing.T) {
	long := "a-package-with-a-genuinely-extremely-long-name-that-overflows-the-field"
	lead := NewLead(long, "99.99.99", "100", "x86_64", KindBinary)
	data := lead.ToBinary()
	require.Len(t, data, 96)
}

func TestNewLeadSourceKind(t *testing.T) {
	lead := NewLead("hello", "1.0", "1", "x86_64", KindSource)
	assert.Equal(t, uint16(1), lead.Type)
}
