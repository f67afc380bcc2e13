// Package build drives a parsed spec.Spec through its lifecycle stages,
// spawning the configured interpreter over generated script prologues and,
// on packaging stages, handing the file manifest + header to the package
// writer.
package build

// Stage enumerates every phase the orchestrator can run, in canonical order.
// Values are bit positions into a Plan bitset.
type Stage uint

const (
	Prep Stage = iota
	Build
	Install
	Check
	Clean
	FileCheck
	PackageSource
	PackageBinary
	RmSource
	RmBuild
	RmSpec
)

// canonicalOrder is the fixed execution order the orchestrator honors
// regardless of how a Plan's bitset was assembled.
var canonicalOrder = []Stage{
	Prep, Build, Install, Check, Clean, FileCheck, PackageSource, PackageBinary,
	RmSource, RmBuild, RmSpec,
}

func (s Stage) String() string {
	switch s {
	case Prep:
		return "prep"
	case Build:
		return "build"
	case Install:
		return "install"
	case Check:
		return "check"
	case Clean:
		return "clean"
	case FileCheck:
		return "filecheck"
	case PackageSource:
		return "package-source"
	case PackageBinary:
		return "package-binary"
	case RmSource:
		return "rm-source"
	case RmBuild:
		return "rm-build"
	case RmSpec:
		return "rm-spec"
	default:
		return "unknown-stage"
	}
}

// Plan is the bitset of requested stages plus the short-circuit flag.
type Plan struct {
	Stages       uint32
	ShortCircuit bool
}

// NewPlan builds a Plan from a set of stages.
func NewPlan(stages ...Stage) Plan {
	var p Plan
	for _, s := range stages {
		p.Stages |= 1 << s
	}
	return p
}

// Has reports whether s is selected.
func (p Plan) Has(s Stage) bool {
	return p.Stages&(1<<s) != 0
}

// orderedStages returns every stage selected by p, in canonical order,
// regardless of the order in which the bitset was assembled. The
// orchestrator never runs a stage the caller did not select, so
// "--short-circuit --install" (Plan{Stages: 1<<Install,
// ShortCircuit: true}) naturally skips Prep and Build: they were never in
// the bitset to begin with. ShortCircuit only changes the generated
// prologue (it suppresses the "cd into a freshly re-extracted build
// subdirectory" step so an in-progress tree from a previous run is reused).
func (p Plan) orderedStages() []Stage {
	var selected []Stage
	for _, s := range canonicalOrder {
		if p.Has(s) {
			selected = append(selected, s)
		}
	}
	return selected
}
