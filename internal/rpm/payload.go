package rpm

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// PayloadPlanEntry is one resolved file destined for the cpio payload,
// produced by internal/build's glob expansion and consumed here to render
// the archive.
type PayloadPlanEntry struct {
	SrcPath     string // absolute path on disk to read file content from
	ArchiveName string // path the file will have inside the installed tree, e.g. "/usr/bin/hello"
	Mode        uint32
	UserName    string
	GroupName   string
	Mtime       int64
	Size        int64
	LinkTarget  string
	Flags       FileFlags
}

// PayloadCompressor names a payload compressor, selected via the spec's
// %_binary_payload / config default.
type PayloadCompressor string

const (
	CompressGzip PayloadCompressor = "gzip"

	// CompressBzip2 is accepted as a config value for compatibility but is
	// a known no-op: stdlib ships compress/bzip2 as a reader only, so
	// CompressPayload always rejects it with ErrUnsupportedCompressor
	// rather than silently mis-writing. gzip is the default and the only
	// compressor actually written.
	CompressBzip2 PayloadCompressor = "bzip2"
)

// ErrUnsupportedCompressor is returned by CompressPayload for a compressor
// with no writer available.
var ErrUnsupportedCompressor = fmt.Errorf("rpm: unsupported payload compressor")

// cpioReader abstracts reading a PayloadPlanEntry's file content; a plain
// function so tests can substitute a fixture without touching disk.
type FileOpener func(path string) (io.ReadCloser, error)

// BuildCPIOPayload renders plan as a "newc" cpio archive (the format
// rpmbuild emits), reading each regular file's content via open.
func BuildCPIOPayload(plan []PayloadPlanEntry, open FileOpener) ([]byte, error) {
	var buf bytes.Buffer
	inode := uint32(0)

	for _, entry := range plan {
		inode++
		if err := writeCPIOEntry(&buf, entry, inode, open); err != nil {
			return nil, err
		}
	}
	writeCPIOTrailer(&buf)
	return buf.Bytes(), nil
}

func writeCPIOEntry(buf *bytes.Buffer, entry PayloadPlanEntry, inode uint32, open FileOpener) error {
	name := append([]byte("."+entry.ArchiveName), 0)

	var data []byte
	switch {
	case entry.LinkTarget != "":
		data = []byte(entry.LinkTarget)
	case entry.Mode&0170000 == 0100000: // regular file
		f, err := open(entry.SrcPath)
		if err != nil {
			return fmt.Errorf("rpm: open %s for payload: %w", entry.SrcPath, err)
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("rpm: read %s for payload: %w", entry.SrcPath, err)
		}
		data = content
	}

	header := cpioHeaderFields{
		inode:   inode,
		mode:    entry.Mode,
		uid:     0,
		gid:     0,
		nlink:   1,
		mtime:   uint32(entry.Mtime),
		size:    uint32(len(data)),
		namelen: uint32(len(name)),
	}
	writeCPIOHeader(buf, header)
	cpioWritePadded(buf, name)
	cpioWritePadded(buf, data)
	return nil
}

func writeCPIOTrailer(buf *bytes.Buffer) {
	trailerName := []byte("TRAILER!!!\000")
	writeCPIOHeader(buf, cpioHeaderFields{nlink: 1, namelen: uint32(len(trailerName))})
	cpioWritePadded(buf, trailerName)
}

// cpioHeaderFields is the decoded form of one "newc"-format cpio header
// record; writeCPIOHeader renders it as the classic 110-byte "070701"
// ASCII-hex on-disk record, field-for-field.
type cpioHeaderFields struct {
	inode, mode, uid, gid, nlink, mtime, size, namelen uint32
}

var cpioMagic = [6]byte{'0', '7', '0', '7', '0', '1'}

func writeCPIOHeader(buf *bytes.Buffer, f cpioHeaderFields) {
	buf.Write(cpioMagic[:])
	writeHex8(buf, f.inode)
	writeHex8(buf, f.mode)
	writeHex8(buf, f.uid)
	writeHex8(buf, f.gid)
	writeHex8(buf, f.nlink)
	writeHex8(buf, f.mtime)
	writeHex8(buf, f.size)
	writeHex8(buf, 0) // dev major
	writeHex8(buf, 0) // dev minor
	writeHex8(buf, 0) // rdev major
	writeHex8(buf, 0) // rdev minor
	writeHex8(buf, f.namelen)
	writeHex8(buf, 0) // checksum
}

var hexDigits = []byte("0123456789ABCDEF")

func writeHex8(buf *bytes.Buffer, v uint32) {
	var out [8]byte
	for i := 7; i >= 0; i-- {
		out[i] = hexDigits[v&0xF]
		v >>= 4
	}
	buf.Write(out[:])
}

// cpioWritePadded writes data followed by NUL padding out to the next
// 4-byte boundary of buf's current length (names/contents/targets in a
// "newc" cpio stream are individually 4-byte aligned).
func cpioWritePadded(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
	for buf.Len()%4 != 0 {
		buf.WriteByte(0)
	}
}

// CompressPayload compresses uncompressed with the given compressor.
func CompressPayload(uncompressed []byte, compressor PayloadCompressor) ([]byte, error) {
	switch compressor {
	case CompressGzip, "":
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(uncompressed); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompressor, compressor)
	}
}
