package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/rpmforge/rpmbuilder/internal/rpm"
	"github.com/rpmforge/rpmbuilder/internal/spec"
)

// PayloadPlanEntry is one resolved file destined for the cpio payload.
// Defined in internal/rpm (the cpio codec's own package) and aliased here so
// internal/build's glob-expansion code can keep referring to it unqualified;
// internal/rpm must not import internal/build (header ← rpm ← spec ← build),
// so the type lives at the lower layer and build merely produces values of
// it.
type PayloadPlanEntry = rpm.PayloadPlanEntry

// BuildPayloadPlan expands every glob in manifest against buildRoot and
// resolves each match to a PayloadPlanEntry record. Patterns are
// spec-absolute ("/usr/bin/x"); a pattern is expanded relative to buildRoot
// by stripping its leading "/".
func BuildPayloadPlan(buildRoot string, manifest []spec.FileEntry) ([]PayloadPlanEntry, error) {
	seen := make(map[string]bool)
	var out []PayloadPlanEntry

	for _, fe := range manifest {
		rel := strings.TrimPrefix(fe.Pattern, "/")
		matches, err := doublestar.Glob(os.DirFS(buildRoot), rel)
		if err != nil {
			return nil, fmt.Errorf("build: bad file pattern %q: %w", fe.Pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("build: file pattern %q matched nothing under %s", fe.Pattern, buildRoot)
		}
		for _, m := range matches {
			archiveName := "/" + m
			if seen[archiveName] {
				continue
			}
			entry, err := statEntry(buildRoot, m, archiveName, fe.Flags)
			if err != nil {
				return nil, err
			}
			seen[archiveName] = true
			out = append(out, entry)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ArchiveName < out[j].ArchiveName })
	return out, nil
}

func statEntry(buildRoot, rel, archiveName string, flags spec.FileFlag) (PayloadPlanEntry, error) {
	full := filepath.Join(buildRoot, rel)
	info, err := os.Lstat(full)
	if err != nil {
		return PayloadPlanEntry{}, fmt.Errorf("build: stat %s: %w", full, err)
	}

	entry := PayloadPlanEntry{
		SrcPath:     full,
		ArchiveName: archiveName,
		Mode:        uint32(info.Mode().Perm()),
		UserName:    "root",
		GroupName:   "root",
		Mtime:       info.ModTime().Unix(),
		Size:        info.Size(),
		Flags:       rpmFlagsFor(flags),
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(full)
		if err != nil {
			return PayloadPlanEntry{}, fmt.Errorf("build: readlink %s: %w", full, err)
		}
		entry.LinkTarget = target
		entry.Mode |= 0120000
	case info.IsDir():
		entry.Mode |= 040000
	default:
		entry.Mode |= 0100000
	}
	return entry, nil
}

func rpmFlagsFor(f spec.FileFlag) rpm.FileFlags {
	var out rpm.FileFlags
	if f&spec.FileDoc != 0 {
		out |= rpm.RPMFileDoc
	}
	if f&spec.FileConfig != 0 {
		out |= rpm.RPMFileConfig
	}
	if f&spec.FileGhost != 0 {
		out |= rpm.RPMFileGhost
	}
	if f&spec.FileLicense != 0 {
		out |= rpm.RPMFileLicense
	}
	if f&spec.FileNoReplace != 0 {
		out |= rpm.RPMFileNoReplace
	}
	return out
}
