package build

import (
	"fmt"
	"strings"

	"github.com/rpmforge/rpmbuilder/internal/rpm"
	"github.com/rpmforge/rpmbuilder/internal/spec"
)

// Environment holds the values the generated script prologue exports as
// environment variables consumed by scripts.
type Environment struct {
	BuildRoot   string
	BuildDir    string
	SourceDir   string
	OptFlags    string
	Arch        string
	OS          string
	DocDir      string
	PackageName string
	Version     string
	Release     string
}

// prologue renders the shell preamble prepended to every stage script body:
// exported standard variables, "set -e" semantics, and a "cd" into the
// build subdirectory (skipped under short-circuit, which reuses whatever
// tree a previous run left behind).
func prologue(env Environment, buildSubdir string, shortCircuit bool) string {
	var b strings.Builder
	b.WriteString("set -e\n")
	fmt.Fprintf(&b, "export RPM_BUILD_ROOT=%s\n", shQuote(env.BuildRoot))
	fmt.Fprintf(&b, "export RPM_BUILD_DIR=%s\n", shQuote(env.BuildDir))
	fmt.Fprintf(&b, "export RPM_SOURCE_DIR=%s\n", shQuote(env.SourceDir))
	fmt.Fprintf(&b, "export RPM_OPT_FLAGS=%s\n", shQuote(env.OptFlags))
	fmt.Fprintf(&b, "export RPM_ARCH=%s\n", shQuote(env.Arch))
	fmt.Fprintf(&b, "export RPM_OS=%s\n", shQuote(env.OS))
	fmt.Fprintf(&b, "export RPM_DOC_DIR=%s\n", shQuote(env.DocDir))
	fmt.Fprintf(&b, "export RPM_PACKAGE_NAME=%s\n", shQuote(env.PackageName))
	fmt.Fprintf(&b, "export RPM_PACKAGE_VERSION=%s\n", shQuote(env.Version))
	fmt.Fprintf(&b, "export RPM_PACKAGE_RELEASE=%s\n", shQuote(env.Release))
	if !shortCircuit && buildSubdir != "" {
		fmt.Fprintf(&b, "cd %s\n", shQuote(buildSubdir))
	}
	return b.String()
}

// shQuote wraps s in single quotes, escaping any embedded single quote the
// POSIX-shell way ('\'' ).
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// environmentFor derives the Environment for one stage run from the Spec
// and the orchestrator's Config.
func environmentFor(s *spec.Spec, cfg Config) Environment {
	main := s.MainPackage()
	name, _ := main.Header.Get(rpm.TagName)
	version, _ := main.Header.Get(rpm.TagVersion)
	release, _ := main.Header.Get(rpm.TagRelease)
	return Environment{
		BuildRoot:   s.BuildRoot,
		BuildDir:    cfg.BuildDir,
		SourceDir:   cfg.SourceDir,
		OptFlags:    cfg.OptFlags,
		Arch:        cfg.Arch,
		OS:          cfg.OS,
		DocDir:      cfg.BuildRoot + "/usr/share/doc",
		PackageName: name.Str,
		Version:     version.Str,
		Release:     release.Str,
	}
}
