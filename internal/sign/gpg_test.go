package sign

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGPG writes a fixed stub script posing as gpg(1) so these tests never
// need a real keyring.
func fakeGPG(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "gpg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestGPGSignerReturnsSameSignatureForBothSlots(t *testing.T) {
	bin := fakeGPG(t, "cat >/dev/null; echo -n fake-signature\n")
	s := &GPGSigner{Binary: bin}

	pgp, gpgSig, err := s.Sign([]byte("some header and payload bytes"))
	require.NoError(t, err)
	assert.Equal(t, "fake-signature", string(pgp))
	assert.Equal(t, pgp, gpgSig)
}

func TestGPGSignerPropagatesFailure(t *testing.T) {
	bin := fakeGPG(t, "echo bad key >&2; exit 2\n")
	s := &GPGSigner{Binary: bin}

	_, _, err := s.Sign([]byte("data"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestGPGSignerPassesLocalUser(t *testing.T) {
	bin := fakeGPG(t, `
for a in "$@"; do
  if [ "$a" = "--local-user" ]; then echo -n seen-local-user; fi
done
`)
	s := &GPGSigner{Binary: bin, KeyID: "ABCDEF"}
	pgp, _, err := s.Sign([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "seen-local-user", string(pgp))
}
