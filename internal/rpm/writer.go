package rpm

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/rpmforge/rpmbuilder/internal/header"
	"github.com/rpmforge/rpmbuilder/internal/pathutil"
)

// Writer streams Lead → SignatureHeader → Header → compressed payload to
// disk, in that order.
type Writer struct {
	Signer      Signer
	Compressor  PayloadCompressor
	TempDir     string
	Open        FileOpener
	Arch        string
	NameVersion func(h *header.Header) (name, version, release string)
}

// NewWriter returns a Writer with sane defaults: gzip compression, no
// signer (unsigned builds), os.Open for file content, and the standard
// {Name,Version,Release} tag triple for naming.
func NewWriter(tempDir string) *Writer {
	return &Writer{
		Compressor: CompressGzip,
		TempDir:    tempDir,
		Open:       func(p string) (io.ReadCloser, error) { return os.Open(p) },
		Arch:       "x86_64",
	}
}

// WriteBinary finalises h, renders plan as a cpio payload, and writes a
// complete binary RPM under destDir, returning its path.
func (w *Writer) WriteBinary(h *header.Header, plan []PayloadPlanEntry, destDir string) (string, error) {
	return w.write(KindBinary, h, plan, destDir)
}

// WriteSource is identical to WriteBinary but selects the Lead's source
// package type; the source-package pipeline calls this exactly once per
// Spec, regardless of how many binary Packages it defines.
func (w *Writer) WriteSource(h *header.Header, plan []PayloadPlanEntry, destDir string) (string, error) {
	return w.write(KindSource, h, plan, destDir)
}

func (w *Writer) write(kind PackageKind, h *header.Header, plan []PayloadPlanEntry, destDir string) (string, error) {
	open := w.Open
	if open == nil {
		open = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}

	addFileInformationTags(h, plan)

	uncompressed, err := BuildCPIOPayload(plan, open)
	if err != nil {
		return "", err
	}

	var totalSize int64
	for _, e := range plan {
		if e.Mode&0170000 == 0100000 {
			totalSize += e.Size
		}
	}
	_ = h.Put(TagArchiveSize, header.Value{Type: header.U32, U32s: []uint32{uint32(len(uncompressed))}})
	_ = h.Put(TagSize, header.Value{Type: header.U32, U32s: []uint32{uint32(totalSize)}})
	if !h.IsEntry(TagPayloadFormat) {
		_ = h.Put(TagPayloadFormat, header.Value{Type: header.Str, Str: "cpio"})
	}
	if !h.IsEntry(TagPayloadCompress) {
		compressorName := string(w.Compressor)
		if compressorName == "" {
			compressorName = string(CompressGzip)
		}
		_ = h.Put(TagPayloadCompress, header.Value{Type: header.Str, Str: compressorName})
	}

	h.Reload(TagHeaderImmutable)
	headerBytes := h.Unload(true)

	compressed, err := CompressPayload(uncompressed, w.Compressor)
	if err != nil {
		return "", err
	}

	sigHeader, err := BuildSignatureHeader(headerBytes, compressed, w.Signer)
	if err != nil {
		return "", fmt.Errorf("rpm: sign package: %w", err)
	}
	sigBytes := sigHeader.Unload(true)

	name, version, release := w.packageNVR(h)
	lead := NewLead(name, version, release, w.arch(), kind)

	handle, err := pathutil.NewTempFile(w.TempDir, "rpmbuilder-pkg")
	if err != nil {
		return "", fmt.Errorf("rpm: allocate package temp file: %w", err)
	}
	defer handle.Close()

	for _, chunk := range [][]byte{lead.ToBinary(), sigBytes, headerBytes, compressed} {
		if _, err := handle.File.Write(chunk); err != nil {
			return "", fmt.Errorf("rpm: write package temp file: %w", err)
		}
	}

	finalName := fmt.Sprintf("%s-%s-%s.%s.rpm", name, version, release, w.arch())
	if kind == KindSource {
		finalName = fmt.Sprintf("%s-%s-%s.src.rpm", name, version, release)
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("rpm: create destination dir: %w", err)
	}
	finalPath := pathutil.Join(destDir, finalName)
	if err := os.Rename(handle.Path, finalPath); err != nil {
		return "", fmt.Errorf("rpm: move package into place: %w", err)
	}
	return finalPath, nil
}

func (w *Writer) arch() string {
	if w.Arch != "" {
		return w.Arch
	}
	return "x86_64"
}

func (w *Writer) packageNVR(h *header.Header) (name, version, release string) {
	if w.NameVersion != nil {
		return w.NameVersion(h)
	}
	get := func(tag uint32) string {
		v, ok := h.Get(tag)
		if !ok {
			return ""
		}
		return v.Str
	}
	return get(TagName), get(TagVersion), get(TagRelease)
}

// addFileInformationTags populates the per-file tag arrays (basenames,
// dirnames, dirindexes, sizes, modes, mtimes, owners, link targets, flags)
// from plan, matching rpmbuild's basename/dirname-splitting scheme so the
// header's file manifest can be reconstructed without re-reading the
// payload.
func addFileInformationTags(h *header.Header, plan []PayloadPlanEntry) {
	var dirNames []string
	dirIndex := map[string]uint32{}
	var dirIndexes, sizes, mtimes, flags []uint32
	var modes []uint16
	var basenames, userNames, groupNames, linktos []string

	for _, e := range plan {
		dir := path.Dir(e.ArchiveName) + "/"
		base := path.Base(e.ArchiveName)
		idx, ok := dirIndex[dir]
		if !ok {
			idx = uint32(len(dirNames))
			dirIndex[dir] = idx
			dirNames = append(dirNames, dir)
		}
		dirIndexes = append(dirIndexes, idx)
		basenames = append(basenames, base)
		sizes = append(sizes, uint32(e.Size))
		modes = append(modes, uint16(e.Mode))
		mtimes = append(mtimes, uint32(e.Mtime))
		flags = append(flags, uint32(e.Flags))
		userNames = append(userNames, e.UserName)
		groupNames = append(groupNames, e.GroupName)
		linktos = append(linktos, e.LinkTarget)
	}

	putStrArray(h, TagBasenames, basenames)
	putStrArray(h, TagDirNames, dirNames)
	putU32Array(h, TagDirIndexes, dirIndexes)
	putU32Array(h, TagFileSizes, sizes)
	putU16Array(h, TagFileModes, modes)
	putU32Array(h, TagFileMtimes, mtimes)
	putU32Array(h, TagFileFlags, flags)
	putStrArray(h, TagFileUserName, userNames)
	putStrArray(h, TagFileGroupName, groupNames)
	putStrArray(h, TagFileLinktos, linktos)
}

func putStrArray(h *header.Header, tag uint32, values []string) {
	if len(values) == 0 {
		return
	}
	_ = h.Put(tag, header.Value{Type: header.StrArray, StrArray: values})
}

func putU32Array(h *header.Header, tag uint32, values []uint32) {
	if len(values) == 0 {
		return
	}
	_ = h.Put(tag, header.Value{Type: header.U32, U32s: values})
}

func putU16Array(h *header.Header, tag uint32, values []uint16) {
	if len(values) == 0 {
		return
	}
	_ = h.Put(tag, header.Value{Type: header.U16, U16s: values})
}
