// Package spec parses a line-oriented build recipe (a ".spec" file) into a
// Spec value, honoring %if-gating and macro expansion per line.
package spec

import (
	"github.com/rpmforge/rpmbuilder/internal/header"
	"github.com/rpmforge/rpmbuilder/internal/macro"
)

// Stage names the five script-bearing build phases.
type Stage int

const (
	StagePrep Stage = iota
	StageBuild
	StageInstall
	StageCheck
	StageClean
)

func (s Stage) String() string {
	switch s {
	case StagePrep:
		return "prep"
	case StageBuild:
		return "build"
	case StageInstall:
		return "install"
	case StageCheck:
		return "check"
	case StageClean:
		return "clean"
	default:
		return "unknown-stage"
	}
}

// ScriptKind names the five package-lifecycle scriptlets.
type ScriptKind int

const (
	PreIn ScriptKind = iota
	PostIn
	PreUn
	PostUn
	Verify
)

// SourceFlag bits describe a Source entry.
type SourceFlag uint32

const (
	IsSource SourceFlag = 1 << iota
	IsPatch
	IsIcon
	NoIncludeInPkg
)

// Source is one %sourceN/%patchN/%icon entry.
type Source struct {
	FullURL  string
	Basename string
	Index    uint32
	Flags    SourceFlag
}

// FileFlag bits mark a %files manifest line's %doc/%config/%ghost/%license
// modifier.
type FileFlag uint32

const (
	FileFlagNone FileFlag = 0
	FileDoc      FileFlag = 1 << iota
	FileConfig
	FileGhost
	FileLicense
	FileNoReplace
)

// iota above starts at 1 (FileFlagNone occupies the explicit-zero line),
// so FileDoc=2, FileConfig=4, FileGhost=8, FileLicense=16, FileNoReplace=32:
// still distinct, independent bits, just not starting at bit 0.

// FileEntry is one parsed %files manifest line.
type FileEntry struct {
	Pattern string
	Flags   FileFlag
}

// TriggerEntry models one %triggerin/%triggerun/%triggerpostun directive.
// Index is assigned in insertion (parse) order, shared across inline and
// file-sourced scripts so ordering stays stable regardless of how a
// trigger's script was supplied.
type TriggerEntry struct {
	Index     uint32
	Kind      string // "triggerin", "triggerun", "triggerpostun"
	Name      string // the subject package name the trigger watches
	Sense     string // comparison operator token, e.g. "<=", "="; empty if unversioned
	Version   string
	Prog      string // interpreter, default "/bin/sh"
	Script    string
	FromFile  bool
	FilePath  string
}

// RequireEntry is one parsed dependency token (Requires/Provides/Conflicts/
// Obsoletes/BuildRequires all reuse this shape).
type RequireEntry struct {
	Name    string
	Sense   string // "<", "<=", "=", ">=", ">", or "" for unversioned
	Version string
}

// ChangelogEntry is one %changelog "* DATE AUTHOR" block.
type ChangelogEntry struct {
	Date   string
	Author string
	Text   string
}

// Package is one built artifact (the main package or a %package -n
// subpackage).
type Package struct {
	Name         string
	Header       *header.Header
	FileManifest []FileEntry
	Scripts      map[ScriptKind]ScriptBody
	Triggers     []TriggerEntry
	AutoReqProv  bool

	Requires      []RequireEntry
	Provides      []RequireEntry
	Conflicts     []RequireEntry
	Obsoletes     []RequireEntry
	BuildRequires []RequireEntry

	Summary     string
	Description string
	Group       string
	License     string
	BuildArch   string
}

// ScriptBody pairs a scriptlet's body text with its optional interpreter
// override (e.g. "%post -p /usr/bin/lua").
type ScriptBody struct {
	Interpreter string
	Body        string
}

// Spec is the fully parsed build recipe.
type Spec struct {
	SpecPath      string
	SourceRPMName string
	BuildRoot     string
	BuildSubdir   string

	Sources  []Source
	NoSource bool

	SourceHeader *header.Header
	Macros       *macro.Context

	StageBodies map[Stage]string
	Packages    []*Package

	Changelog []ChangelogEntry

	Cookie     []byte
	Passphrase []byte
}

// NewSpec returns an empty Spec with an initialized main Package, macro
// context, and source header, ready for the parser to populate.
func NewSpec(macros *macro.Context) *Spec {
	s := &Spec{
		Macros:       macros,
		SourceHeader: header.New(),
		StageBodies:  make(map[Stage]string),
	}
	main := &Package{
		Header:  header.New(),
		Scripts: make(map[ScriptKind]ScriptBody),
	}
	s.Packages = append(s.Packages, main)
	return s
}

// MainPackage returns the first (unnamed) package, which always exists.
func (s *Spec) MainPackage() *Package {
	return s.Packages[0]
}

// PackageNamed returns the subpackage named name, creating it if absent.
// name is already resolved (e.g. "main-NAME" or "NAME" for -n) by the
// caller.
func (s *Spec) PackageNamed(name string) *Package {
	for _, p := range s.Packages {
		if p.Name == name {
			return p
		}
	}
	p := &Package{
		Name:    name,
		Header:  header.New(),
		Scripts: make(map[ScriptKind]ScriptBody),
	}
	s.Packages = append(s.Packages, p)
	return p
}
