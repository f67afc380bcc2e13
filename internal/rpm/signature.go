package rpm

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"

	"github.com/rpmforge/rpmbuilder/internal/header"
)

// Signer produces a detached signature over the concatenation of the
// header + payload sections. A nil Signer is valid (unsigned build);
// BuildSignatureHeader skips the PGP/GPG tags in that case.
type Signer interface {
	Sign(headerAndPayload []byte) (pgp, gpg []byte, err error)
}

// BuildSignatureHeader assembles the SignatureHeader section: size/SHA1/MD5
// digests covering headerSection and payload (per [LSB, 22.2.3]), plus,
// when signer is non-nil, a detached PGP/GPG signature over header+payload.
func BuildSignatureHeader(headerSection, payload []byte, signer Signer) (*header.Header, error) {
	h := header.New()

	_ = h.Put(SigTagSize, header.Value{
		Type: header.U32,
		U32s: []uint32{uint32(len(headerSection) + len(payload))},
	})
	_ = h.Put(SigTagPayloadSize, header.Value{
		Type: header.U32,
		U32s: []uint32{uint32(len(payload))},
	})

	sha1sum := sha1.Sum(headerSection)
	_ = h.Put(SigTagSHA1, header.Value{
		Type: header.Str,
		Str:  hex.EncodeToString(sha1sum[:]),
	})

	md5digest := md5.New()
	md5digest.Write(headerSection)
	md5digest.Write(payload)
	_ = h.Put(SigTagMD5, header.Value{
		Type:  header.Bin,
		Bytes: md5digest.Sum(nil),
	})

	if signer != nil {
		combined := make([]byte, 0, len(headerSection)+len(payload))
		combined = append(combined, headerSection...)
		combined = append(combined, payload...)
		pgp, gpg, err := signer.Sign(combined)
		if err != nil {
			return nil, err
		}
		if len(pgp) > 0 {
			_ = h.Put(SigTagPGP, header.Value{Type: header.Bin, Bytes: pgp})
		}
		if len(gpg) > 0 {
			_ = h.Put(SigTagGPG, header.Value{Type: header.Bin, Bytes: gpg})
		}
	}

	h.Reload(TagHeaderSignatures)
	return h, nil
}
