package rpm

import (
	"bytes"
	"encoding/binary"
)

// Lead is the 96-byte fixed header that opens every RPM file, preceding the
// SignatureHeader and Header sections, per [LSB, 22.2.1].
type Lead struct {
	Magic              [4]byte
	Version            [2]byte
	Type               uint16
	Architecture       uint16
	NameVersionRelease [66]byte
	OperatingSystem    uint16
	SignatureType      uint16
	Reserved           [16]byte
}

// PackageKind selects the Lead's Type field.
type PackageKind uint16

const (
	KindBinary PackageKind = 0
	KindSource PackageKind = 1
)

var archIDMap = map[string]uint16{
	"x86_64":  1,
	"i386":    1,
	"i686":    1,
	"noarch":  1,
	"armv7hl": 12,
	"aarch64": 19,
}

// NewLead builds a Lead for a package named name-version-release targeting
// arch.
func NewLead(name, version, release, arch string, kind PackageKind) *Lead {
	lead := &Lead{
		Magic:           [4]byte{0xed, 0xab, 0xee, 0xdb},
		Version:         [2]byte{0x03, 0x00},
		Type:            uint16(kind),
		Architecture:    archIDMap[arch],
		OperatingSystem: 1, // Linux
		SignatureType:   5, // signature section follows
	}

	nvr := []byte(name + "-" + version + "-" + release)
	for i := 0; i < 65; i++ {
		if i < len(nvr) {
			lead.NameVersionRelease[i] = nvr[i]
		}
	}
	lead.NameVersionRelease[65] = 0
	return lead
}

// ToBinary returns the 96-byte big-endian on-disk encoding of the Lead.
func (l *Lead) ToBinary() []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, l)
	return buf.Bytes()
}
