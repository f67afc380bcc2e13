package build

import (
	"github.com/rpmforge/rpmbuilder/internal/header"
	"github.com/rpmforge/rpmbuilder/internal/rpm"
	"github.com/rpmforge/rpmbuilder/internal/spec"
)

// finalizeHeader folds a Package's scripts, triggers, and dependency lists
// (accumulated on the Go-level spec.Package during parsing, not yet in its
// Header) into header tags, the package writer's header-finalisation step.
// Called exactly once per Package, immediately before handing it to the
// PackageWriter.
func finalizeHeader(pkg *spec.Package) {
	h := pkg.Header

	putScript(h, pkg, spec.PreIn, rpm.TagPreIn, rpm.TagPreInProg)
	putScript(h, pkg, spec.PostIn, rpm.TagPostIn, rpm.TagPostInProg)
	putScript(h, pkg, spec.PreUn, rpm.TagPreUn, rpm.TagPreUnProg)
	putScript(h, pkg, spec.PostUn, rpm.TagPostUn, rpm.TagPostUnProg)
	putScript(h, pkg, spec.Verify, rpm.TagVerifyScript, rpm.TagVerifyScriptProg)

	putTriggers(h, pkg.Triggers)

	putDependencyList(h, rpm.TagRequireName, rpm.TagRequireVersion, rpm.TagRequireFlags, pkg.Requires)
	putDependencyList(h, rpm.TagProvideName, rpm.TagProvideVersion, rpm.TagProvideFlags, pkg.Provides)
	putDependencyList(h, rpm.TagConflictName, rpm.TagConflictVersion, rpm.TagConflictFlags, pkg.Conflicts)
	putDependencyList(h, rpm.TagObsoleteName, rpm.TagObsoleteVersion, rpm.TagObsoleteFlags, pkg.Obsoletes)
}

func putScript(h *header.Header, pkg *spec.Package, kind spec.ScriptKind, bodyTag, progTag uint32) {
	script, ok := pkg.Scripts[kind]
	if !ok || script.Body == "" {
		return
	}
	_ = h.Put(bodyTag, header.Value{Type: header.Str, Str: script.Body})
	prog := script.Interpreter
	if prog == "" {
		prog = "/bin/sh"
	}
	_ = h.Put(progTag, header.Value{Type: header.Str, Str: prog})
}

func putTriggers(h *header.Header, triggers []spec.TriggerEntry) {
	if len(triggers) == 0 {
		return
	}
	names := make([]string, len(triggers))
	versions := make([]string, len(triggers))
	progs := make([]string, len(triggers))
	scripts := make([]string, len(triggers))
	flags := make([]uint32, len(triggers))
	indexes := make([]uint32, len(triggers))

	for i, t := range triggers {
		names[i] = t.Name
		versions[i] = t.Version
		progs[i] = t.Prog
		scripts[i] = t.Script
		flags[i] = uint32(triggerKindFlag(t.Kind)) | uint32(rpm.SenseFromToken(t.Sense))
		indexes[i] = t.Index
	}

	_ = h.Put(rpm.TagTriggerName, header.Value{Type: header.StrArray, StrArray: names})
	_ = h.Put(rpm.TagTriggerVersion, header.Value{Type: header.StrArray, StrArray: versions})
	_ = h.Put(rpm.TagTriggerScriptProg, header.Value{Type: header.StrArray, StrArray: progs})
	_ = h.Put(rpm.TagTriggerScripts, header.Value{Type: header.StrArray, StrArray: scripts})
	_ = h.Put(rpm.TagTriggerFlags, header.Value{Type: header.U32, U32s: flags})
	_ = h.Put(rpm.TagTriggerIndex, header.Value{Type: header.U32, U32s: indexes})
}

func triggerKindFlag(kind string) rpm.SenseFlags {
	switch kind {
	case "triggerin":
		return rpm.SenseTriggerIn
	case "triggerun":
		return rpm.SenseTriggerUn
	case "triggerpostun":
		return rpm.SenseTriggerPostUn
	}
	return rpm.SenseAny
}

func putDependencyList(h *header.Header, nameTag, versionTag, flagsTag uint32, entries []spec.RequireEntry) {
	if len(entries) == 0 {
		return
	}
	names := make([]string, len(entries))
	versions := make([]string, len(entries))
	flags := make([]uint32, len(entries))
	for i, e := range entries {
		names[i] = e.Name
		versions[i] = e.Version
		flags[i] = uint32(rpm.SenseFromToken(e.Sense))
	}
	_ = h.Put(nameTag, header.Value{Type: header.StrArray, StrArray: names})
	_ = h.Put(versionTag, header.Value{Type: header.StrArray, StrArray: versions})
	_ = h.Put(flagsTag, header.Value{Type: header.U32, U32s: flags})
}
