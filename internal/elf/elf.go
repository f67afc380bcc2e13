// Package elf defines the narrow contract the build pipeline needs from an
// ELF object file: enumerate sections and tell debug sections apart from the
// rest, so that payload assembly can strip debug info and checksum the
// remaining bytes consistently with the target platform's packaging tools.
//
// This contract's default implementation is built on the standard
// library's debug/elf package; callers that need something else (an
// objcopy wrapper, a cross-compiled reader) can supply their own
// Opener/SectionIterator.
package elf

import (
	"debug/elf"
	"fmt"
	"io"
	"strings"
)

// Section describes one section of an ELF object relevant to packaging:
// whether it carries debug information and how large its on-disk image is.
type Section struct {
	Name    string
	Size    uint64
	Offset  uint64
	IsDebug bool
}

// SectionIterator is the contract the build pipeline consumes; it never
// touches debug/elf types directly so an alternate implementation (for a
// platform stdlib's debug/elf can't parse, or a stripped-down reader) can be
// substituted without touching callers.
type SectionIterator interface {
	// Sections returns every section in file order.
	Sections() []Section
	// Close releases any underlying file handle.
	Close() error
}

// Opener produces a SectionIterator for a path on disk.
type Opener func(path string) (SectionIterator, error)

// Open is the default Opener, backed by debug/elf.
func Open(path string) (SectionIterator, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elf: open %s: %w", path, err)
	}
	return &stdlibFile{f: f}, nil
}

type stdlibFile struct {
	f *elf.File
}

func (s *stdlibFile) Sections() []Section {
	out := make([]Section, 0, len(s.f.Sections))
	for _, sec := range s.f.Sections {
		out = append(out, Section{
			Name:    sec.Name,
			Size:    sec.Size,
			Offset:  sec.Offset,
			IsDebug: isDebugSection(sec.Name),
		})
	}
	return out
}

func (s *stdlibFile) Close() error {
	return s.f.Close()
}

func isDebugSection(name string) bool {
	return strings.HasPrefix(name, ".debug_") || name == ".symtab" || name == ".comment"
}

// StripDebugSections copies src to dst, omitting the byte ranges of any
// section reported as debug information by it. This is a best-effort strip
// suitable for deriving a -debuginfo split payload; it does not rewrite ELF
// section headers, so the result is for checksum/packaging purposes rather
// than as a directly loadable binary.
func StripDebugSections(it SectionIterator, src io.ReaderAt, dst io.Writer, size int64) error {
	type gap struct{ start, end int64 }
	var gaps []gap
	for _, sec := range it.Sections() {
		if !sec.IsDebug || sec.Size == 0 {
			continue
		}
		gaps = append(gaps, gap{start: int64(sec.Offset), end: int64(sec.Offset + sec.Size)})
	}

	var cursor int64
	buf := make([]byte, 32*1024)
	copyRange := func(from, to int64) error {
		for from < to {
			n := to - from
			if n > int64(len(buf)) {
				n = int64(len(buf))
			}
			read, err := src.ReadAt(buf[:n], from)
			if read > 0 {
				if _, werr := dst.Write(buf[:read]); werr != nil {
					return werr
				}
			}
			if err != nil && err != io.EOF {
				return err
			}
			from += int64(read)
			if read == 0 {
				break
			}
		}
		return nil
	}

	for _, g := range gaps {
		if g.start > cursor {
			if err := copyRange(cursor, g.start); err != nil {
				return err
			}
		}
		if g.end > cursor {
			cursor = g.end
		}
	}
	if cursor < size {
		if err := copyRange(cursor, size); err != nil {
			return err
		}
	}
	return nil
}
