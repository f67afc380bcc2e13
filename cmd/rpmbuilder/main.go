// Command rpmbuilder is the CLI front-end over the package construction
// engine: it parses a spec file, drives it through the requested stages,
// and writes the resulting binary/source RPMs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rpmforge/rpmbuilder/internal/build"
	"github.com/rpmforge/rpmbuilder/internal/buildlog"
	"github.com/rpmforge/rpmbuilder/internal/config"
	"github.com/rpmforge/rpmbuilder/internal/macro"
	"github.com/rpmforge/rpmbuilder/internal/metrics"
	"github.com/rpmforge/rpmbuilder/internal/rpm"
	"github.com/rpmforge/rpmbuilder/internal/sign"
	"github.com/rpmforge/rpmbuilder/internal/spec"
)

type buildFlags struct {
	prep          bool
	configure     bool
	install       bool
	listCheck     bool
	all           bool
	binary        bool
	source        bool
	shortCircuit  bool
	buildRoot     string
	target        string
	noDeps        bool
	noCheck       bool
	signKeyID     string
	quiet         bool
	verbose       bool
	metricsAddr   string
	configPath    string
	destDir       string
}

// errUsage marks an argument/flag error so main can report exit code 2
// (matching rpmbuild's own usage-error convention) instead of 1.
type errUsage struct{ error }

func main() {
	cmd := newRootCmd()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	if err == nil {
		return
	}

	color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "!! ")
	fmt.Fprintln(os.Stderr, err)

	if _, ok := err.(errUsage); ok {
		os.Exit(2)
	}
	os.Exit(1)
}

func newRootCmd() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "rpmbuilder SPECFILE",
		Short: "Build RPM packages from a spec file",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return errUsage{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(args[0], flags)
		},
	}

	pf := cmd.Flags()
	pf.BoolVar(&flags.prep, "bp", false, "stop after %prep")
	pf.BoolVar(&flags.configure, "bc", false, "stop after %build")
	pf.BoolVar(&flags.install, "bi", false, "stop after %install")
	pf.BoolVar(&flags.listCheck, "bl", false, "stop after the file-manifest check")
	pf.BoolVar(&flags.all, "ba", false, "run every stage (default)")
	pf.BoolVar(&flags.binary, "bb", false, "build binary packages only")
	pf.BoolVar(&flags.source, "bs", false, "build the source package only")
	pf.BoolVar(&flags.shortCircuit, "short-circuit", false, "skip stages before the selected one and reuse the existing build tree")
	pf.StringVar(&flags.buildRoot, "buildroot", "", "override the install staging root")
	pf.StringVar(&flags.target, "target", "", "target platform, e.g. x86_64-linux")
	pf.BoolVar(&flags.noDeps, "nodeps", false, "skip automatic dependency extraction")
	pf.BoolVar(&flags.noCheck, "nocheck", false, "skip the %check stage")
	pf.StringVar(&flags.signKeyID, "sign", "", "GPG key ID to sign packages with (empty disables signing)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "suppress informational output")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level output")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address while building")
	pf.StringVar(&flags.configPath, "config", "rpmbuilder.toml", "path to the project configuration file")
	pf.StringVar(&flags.destDir, "destdir", ".", "directory built packages are written to")

	return cmd
}

func runBuild(specPath string, flags *buildFlags) error {
	logger, err := buildlog.New(flags.verbose, flags.quiet)
	if err != nil {
		return fmt.Errorf("rpmbuilder: build logger: %w", err)
	}
	defer logger.Sync()

	proj, err := config.LoadOrDefault(flags.configPath)
	if err != nil {
		return err
	}

	if flags.metricsAddr != "" {
		go serveMetrics(flags.metricsAddr, logger)
	}

	content, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("rpmbuilder: read %s: %w", specPath, err)
	}

	macros := macro.NewContext(logger)
	s, err := spec.Parse(specPath, string(content), macros, spec.Options{
		CurrentArch: runtime.GOARCH,
		CurrentOS:   runtime.GOOS,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("rpmbuilder: parse %s: %w", specPath, err)
	}

	buildRoot := flags.buildRoot
	if buildRoot == "" {
		buildRoot = proj.BuildRoot
	}
	s.BuildRoot = buildRoot

	tempDir, err := os.MkdirTemp("", "rpmbuilder-")
	if err != nil {
		return fmt.Errorf("rpmbuilder: allocate temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)

	// No default AutoReqProvExtractor ships yet, so --nodeps has nothing to
	// disable in this binary; a future --autoreq-helper flag would wire one.
	cfg := build.Config{
		BuildDir:  filepath.Join(buildRoot, "BUILD"),
		SourceDir: filepath.Join(buildRoot, "SOURCES"),
		Arch:      flags.target,
		OS:        runtime.GOOS,
		TempDir:   tempDir,
		Logger:    logger,
		Metrics:   reg,
	}

	var signer rpm.Signer
	if flags.signKeyID != "" || proj.SignerKeyID != "" {
		keyID := flags.signKeyID
		if keyID == "" {
			keyID = proj.SignerKeyID
		}
		signer = &sign.GPGSigner{KeyID: keyID}
	}

	writer := rpm.NewWriter(tempDir)
	writer.Signer = signer
	if proj.PayloadCompress == "bzip2" {
		writer.Compressor = rpm.CompressBzip2
	}
	if flags.target != "" {
		writer.Arch = flags.target
	}

	orch := build.New(cfg, writer)

	plan := planFor(flags)
	if flags.noCheck {
		plan.Stages &^= uint32(1) << uint(build.Check)
	}

	if err := orch.Run(context.Background(), s, plan, flags.destDir); err != nil {
		return err
	}

	logger.Info("build finished", zap.String("spec", specPath))
	return nil
}

// planFor maps the CLI's -bp/-bc/-bi/-bl/-ba/-bb/-bs stage-selection flags
// onto a build.Plan, in the same "each flag widens the selected stage set"
// style as rpmbuild's own mode flags.
func planFor(flags *buildFlags) build.Plan {
	var stages []build.Stage
	switch {
	case flags.prep:
		stages = []build.Stage{build.Prep}
	case flags.configure:
		stages = []build.Stage{build.Prep, build.Build}
	case flags.install:
		stages = []build.Stage{build.Prep, build.Build, build.Install, build.FileCheck}
	case flags.listCheck:
		stages = []build.Stage{build.Prep, build.Build, build.Install, build.FileCheck}
	case flags.binary:
		stages = []build.Stage{build.Prep, build.Build, build.Install, build.Check, build.FileCheck, build.PackageBinary, build.RmBuild}
	case flags.source:
		stages = []build.Stage{build.PackageSource}
	default: // --ba, or no stage flag given at all
		stages = []build.Stage{
			build.Prep, build.Build, build.Install, build.Check, build.FileCheck,
			build.PackageSource, build.PackageBinary, build.RmBuild,
		}
	}

	plan := build.NewPlan(stages...)
	plan.ShortCircuit = flags.shortCircuit
	return plan
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", zap.Error(err))
	}
}
