package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/rpmforge/rpmbuilder/internal/header"
	"github.com/rpmforge/rpmbuilder/internal/pathutil"
	"github.com/rpmforge/rpmbuilder/internal/rpm"
	"github.com/rpmforge/rpmbuilder/internal/spec"
)

// PackageWriter is the external collaborator that turns a finished Header +
// PayloadPlan into bytes on disk. internal/rpm's Writer implements this;
// kept as an interface here so internal/build never imports the concrete
// on-disk format.
type PackageWriter interface {
	WriteBinary(h *header.Header, plan []PayloadPlanEntry, destDir string) (path string, err error)
	WriteSource(h *header.Header, plan []PayloadPlanEntry, destDir string) (path string, err error)
}

// Orchestrator drives one Spec through a Plan's selected stages.
type Orchestrator struct {
	Config Config
	Writer PackageWriter
	Cache  *StageCache
}

// New returns an Orchestrator. writer may be nil if the caller never plans
// to run a PackageSource/PackageBinary stage (e.g. "-bp" dry runs).
func New(cfg Config, writer PackageWriter) *Orchestrator {
	cache := (*StageCache)(nil)
	if cfg.TempDir != "" {
		cache = NewStageCache(pathutil.Join(cfg.TempDir, "stage-cache"))
	}
	return &Orchestrator{Config: cfg, Writer: writer, Cache: cache}
}

// Run executes every stage plan selects, in canonical order, against s.
// Destination directories for built packages are written under destDir.
func (o *Orchestrator) Run(ctx context.Context, s *spec.Spec, plan Plan, destDir string) error {
	log := o.Config.logger()
	for _, stage := range plan.orderedStages() {
		start := time.Now()
		err := o.runStage(ctx, s, stage, plan, destDir)
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		o.Config.Metrics.ObserveStage(stage.String(), outcome, time.Since(start).Seconds())
		log.Info("stage finished", zap.String("stage", stage.String()), zap.Error(err))
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runStage(ctx context.Context, s *spec.Spec, stage Stage, plan Plan, destDir string) error {
	switch stage {
	case Prep, Build, Install, Check, Clean:
		return o.runScriptStage(ctx, s, stage, plan)
	case FileCheck:
		return o.runFileCheck(s)
	case PackageSource:
		return o.runPackageSource(s, destDir)
	case PackageBinary:
		return o.runPackageBinary(s, destDir)
	case RmSource:
		return os.RemoveAll(o.Config.SourceDir)
	case RmBuild:
		return os.RemoveAll(o.Config.BuildDir)
	case RmSpec:
		return os.Remove(s.SpecPath)
	}
	return nil
}

var specStageOf = map[Stage]spec.Stage{
	Prep:    spec.StagePrep,
	Build:   spec.StageBuild,
	Install: spec.StageInstall,
	Check:   spec.StageCheck,
	Clean:   spec.StageClean,
}

// runScriptStage materializes the prologue+body, writes it to a temp file,
// spawns the configured interpreter, and converts a non-zero exit into
// ErrScript. Under short-circuit, a stage whose cache key is unchanged
// since the previous run is skipped outright.
func (o *Orchestrator) runScriptStage(ctx context.Context, s *spec.Spec, stage Stage, plan Plan) error {
	body, ok := s.StageBodies[specStageOf[stage]]
	if !ok || body == "" {
		return nil
	}

	key := Key(body, s.Macros.Snapshot())
	if plan.ShortCircuit && o.Cache.Unchanged(stage, key) {
		o.Config.logger().Info("stage skipped (short-circuit, unchanged)", zap.String("stage", stage.String()))
		return nil
	}

	env := environmentFor(s, o.Config)
	script := prologue(env, s.BuildSubdir, plan.ShortCircuit) + body

	handle, err := pathutil.NewTempFile(o.Config.TempDir, "rpmbuilder-"+stage.String())
	if err != nil {
		return fmt.Errorf("build: allocate script temp file: %w", err)
	}
	defer handle.Close()

	if _, err := handle.File.WriteString(script); err != nil {
		return fmt.Errorf("build: write script temp file: %w", err)
	}

	cmd := exec.CommandContext(ctx, o.Config.interpreter(), handle.Path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	runErr := cmd.Run()
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			return &ErrScript{Stage: stage, ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("build: spawn interpreter for stage %s: %w", stage, runErr)
	}

	if o.Cache != nil {
		_ = o.Cache.Record(stage, key)
	}
	return nil
}

// runFileCheck dry-expands every package's manifest against the build root,
// surfacing unmatched-glob errors before any packaging stage runs.
func (o *Orchestrator) runFileCheck(s *spec.Spec) error {
	for _, pkg := range s.Packages {
		if len(pkg.FileManifest) == 0 {
			continue
		}
		if _, err := BuildPayloadPlan(s.BuildRoot, pkg.FileManifest); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runPackageBinary(s *spec.Spec, destDir string) error {
	if o.Writer == nil {
		return fmt.Errorf("build: package-binary stage requires a PackageWriter")
	}
	for _, pkg := range s.Packages {
		if len(pkg.FileManifest) == 0 {
			continue
		}
		plan, err := BuildPayloadPlan(s.BuildRoot, pkg.FileManifest)
		if err != nil {
			return err
		}
		if pkg.AutoReqProv && o.Config.AutoReqProvExtractor != nil {
			if err := extractAutoDeps(pkg, plan, o.Config.AutoReqProvExtractor); err != nil {
				return err
			}
		}
		finalizeHeader(pkg)
		if _, err := o.Writer.WriteBinary(pkg.Header, plan, destDir); err != nil {
			return fmt.Errorf("build: write binary package %s: %w", pkg.Name, err)
		}
	}
	return nil
}

func (o *Orchestrator) runPackageSource(s *spec.Spec, destDir string) error {
	if o.Writer == nil {
		return fmt.Errorf("build: package-source stage requires a PackageWriter")
	}
	var plan []PayloadPlanEntry
	for _, src := range s.Sources {
		info, err := os.Lstat(pathutil.Join(o.Config.SourceDir, src.Basename))
		if err != nil {
			return fmt.Errorf("build: stat source %s: %w", src.Basename, err)
		}
		plan = append(plan, PayloadPlanEntry{
			SrcPath:     pathutil.Join(o.Config.SourceDir, src.Basename),
			ArchiveName: src.Basename,
			Mode:        0100644,
			UserName:    "root",
			GroupName:   "root",
			Mtime:       info.ModTime().Unix(),
			Size:        info.Size(),
		})
	}
	_, err := o.Writer.WriteSource(s.SourceHeader, plan, destDir)
	return err
}

// extractAutoDeps runs extract over every regular file in plan and merges
// the resulting Requires/Provides tokens into pkg's Header.
func extractAutoDeps(pkg *spec.Package, plan []PayloadPlanEntry, extract DependencyExtractor) error {
	var requires, provides []string
	for _, entry := range plan {
		if entry.Mode&0170000 != 0100000 {
			continue // regular files only
		}
		req, prov, err := extract(entry.SrcPath)
		if err != nil {
			return fmt.Errorf("build: auto-dependency extraction on %s: %w", entry.SrcPath, err)
		}
		requires = append(requires, req...)
		provides = append(provides, prov...)
	}
	if len(requires) > 0 {
		mergeNameList(pkg.Header, rpm.TagRequireName, rpm.TagRequireVersion, rpm.TagRequireFlags, requires)
	}
	if len(provides) > 0 {
		mergeNameList(pkg.Header, rpm.TagProvideName, rpm.TagProvideVersion, rpm.TagProvideFlags, provides)
	}
	return nil
}

// mergeNameList appends names (unversioned, SenseAny) into the header's
// {name,version,flags} tag triple, creating the entries if absent.
func mergeNameList(h *header.Header, nameTag, versionTag, flagsTag uint32, names []string) {
	versions := make([]string, len(names))
	flags := make([]uint32, len(names))
	for i := range names {
		versions[i] = ""
		flags[i] = uint32(rpm.SenseAny)
	}

	nameVal := header.Value{Type: header.StrArray, StrArray: names}
	versionVal := header.Value{Type: header.StrArray, StrArray: versions}
	flagsVal := header.Value{Type: header.U32, U32s: flags}

	if h.IsEntry(nameTag) {
		_ = h.Append(nameTag, nameVal)
		_ = h.Append(versionTag, versionVal)
		_ = h.Append(flagsTag, flagsVal)
		return
	}
	_ = h.Put(nameTag, nameVal)
	_ = h.Put(versionTag, versionVal)
	_ = h.Put(flagsTag, flagsVal)
}
