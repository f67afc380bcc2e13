package build

import (
	"go.uber.org/zap"

	"github.com/rpmforge/rpmbuilder/internal/metrics"
)

// Config bundles everything the orchestrator needs beyond the Spec and Plan
// themselves: environment values for the script prologue, the working
// directories, and optional observability hooks.
type Config struct {
	// BuildDir is RPM_BUILD_DIR: the top-level scratch tree scripts build
	// under (holds BuildSubdir).
	BuildDir string
	// SourceDir is RPM_SOURCE_DIR: where %sourceN/%patchN files live.
	SourceDir string
	// OptFlags is RPM_OPT_FLAGS, passed through to %build compiler
	// invocations verbatim.
	OptFlags string
	Arch     string
	OS       string

	// TempDir is the process-private scratch directory script temp files
	// and packaging staging files are allocated under.
	TempDir string
	// Interpreter is the default script interpreter ("/bin/sh" unless a
	// scriptlet overrides it with "-p").
	Interpreter string

	// AutoReqProvExtractor, if non-nil, is invoked on every regular file
	// in a packaging stage's expanded manifest when a Package has
	// AutoReqProv set. A nil value disables auto-dependency extraction
	// entirely.
	AutoReqProvExtractor DependencyExtractor

	Logger  *zap.Logger
	Metrics *metrics.Registry
}

// DependencyExtractor inspects one on-disk file and reports the (Requires,
// Provides) tokens it implies; this is the external dependency-extractor
// collaborator an auto_req_prov-enabled Package invokes per regular file.
type DependencyExtractor func(path string) (requires, provides []string, err error)

func (c Config) interpreter() string {
	if c.Interpreter != "" {
		return c.Interpreter
	}
	return "/bin/sh"
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
