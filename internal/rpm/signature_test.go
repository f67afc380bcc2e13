package rpm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSigner struct {
	pgp, gpg []byte
	err      error
}

func (f *fakeSigner) Sign(data []byte) ([]byte, []byte, error) {
	return f.pgp, f.gpg, f.err
}

func TestBuildSignatureHeaderUnsigned(t *testing.T) {
	h, err := BuildSignatureHeader([]byte("header-bytes"), []byte("payload-bytes"), nil)
	require.NoError(t, err)

	size, ok := h.Get(SigTagSize)
	require.True(t, ok)
	assert.Equal(t, uint32(len("header-bytes")+len("payload-bytes")), size.U32s[0])

	_, ok = h.Get(SigTagMD5)
	assert.True(t, ok)
	_, ok = h.Get(SigTagSHA1)
	assert.True(t, ok)
	_, ok = h.Get(SigTagPGP)
	assert.False(t, ok, "no PGP tag without a signer")
}

func TestBuildSignatureHeaderWithSigner(t *testing.T) {
	signer := &fakeSigner{pgp: []byte("pgp-sig")}
	h, err := BuildSignatureHeader([]byte("h"), []byte("p"), signer)
	require.NoError(t, err)
	v, ok := h.Get(SigTagPGP)
	require.True(t, ok)
	assert.Equal(t, []byte("pgp-sig"), v.Bytes)
}

func TestBuildSignatureHeaderPropagatesSignerError(t *testing.T) {
	signer := &fakeSigner{err: assert.AnError}
	_, err := BuildSignatureHeader([]byte("h"), []byte("p"), signer)
	require.Error(t, err)
}
