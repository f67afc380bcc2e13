package spec

import (
	"strings"

	"go.uber.org/zap"

	"github.com/rpmforge/rpmbuilder/internal/macro"
)

// section names the current target buffer for non-preamble, non-directive
// lines during section dispatch.
type section int

const (
	sectionPreamble section = iota
	sectionDescription
	sectionPrep
	sectionBuild
	sectionInstall
	sectionCheck
	sectionClean
	sectionFiles
	sectionChangelog
	sectionScript
)

// parser holds the full mutable state of one spec-file parse.
type parser struct {
	path string
	log  *zap.Logger

	reader *lineReader
	cond   *conditionalStack
	spec   *Spec

	currentArch string
	currentOS   string

	section     section
	currentPkg  *Package
	scriptKind  ScriptKind
	scriptProg  string
	changelog   changelogParser

	buf strings.Builder
}

// Options configures a Parse call.
type Options struct {
	// CurrentArch/CurrentOS gate %ifarch/%ifnarch/%ifos/%ifnos directives.
	CurrentArch string
	CurrentOS   string
	Logger      *zap.Logger
}

// Parse parses the spec file at path with content content into a new Spec,
// seeding its macro context from macros (which Parse does not mutate; a
// clone is taken so per-file %define installs don't leak to the caller).
func Parse(path, content string, macros *macro.Context, opts Options) (*Spec, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	arch := opts.CurrentArch
	if arch == "" {
		arch = "x86_64"
	}
	os := opts.CurrentOS
	if os == "" {
		os = "linux"
	}

	ctx := macros.Clone()
	s := NewSpec(ctx)
	s.SpecPath = path

	p := &parser{
		path:        path,
		log:         log,
		reader:      newLineReader(path, content),
		cond:        newConditionalStack(),
		spec:        s,
		currentArch: arch,
		currentOS:   os,
		section:     sectionPreamble,
		currentPkg:  s.MainPackage(),
	}

	if err := p.run(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) run() error {
	for {
		raw, status := p.reader.next()
		if status == readEOF {
			break
		}
		lineNum := p.reader.lineNum

		if directive, args, isDirective := splitDirective(raw); isDirective && isConditionalDirective(directive) {
			if err := p.handleConditional(directive, args, lineNum); err != nil {
				return err
			}
			continue
		}

		if !p.cond.reading() {
			continue
		}

		line := stripComment(raw)
		if line == "" {
			p.feedBlank()
			continue
		}

		expanded, err := expandLine(p.spec.Macros, line)
		if err != nil {
			return &ErrBadSpec{File: p.path, Line: lineNum, Reason: macro.Reason(err)}
		}

		if directive, args, isDirective := splitDirective(expanded); isDirective && !isConditionalDirective(directive) {
			if err := p.handleSectionDirective(directive, args, lineNum); err != nil {
				return err
			}
			continue
		}

		if err := p.feedLine(expanded, lineNum); err != nil {
			return err
		}
	}

	if !p.cond.atBase() {
		return &ErrUnmatchedIf{File: p.path, Line: p.reader.lineNum}
	}
	p.flushScript()
	p.flushFiles()
	p.spec.Changelog = p.changelog.entries
	return nil
}

// splitDirective reports whether line begins with '%' followed by a
// directive word, and splits it into (directive, trailing-args).
func splitDirective(line string) (directive, args string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "%") {
		return "", "", false
	}
	rest := trimmed[1:]
	i := 0
	for i < len(rest) && !isSpaceOrTab(rest[i]) {
		i++
	}
	word := rest[:i]
	if word == "" {
		return "", "", false
	}
	return strings.ToLower(word), strings.TrimSpace(rest[i:]), true
}

func isSpaceOrTab(b byte) bool { return b == ' ' || b == '\t' }

func isConditionalDirective(d string) bool {
	switch d {
	case "ifarch", "ifnarch", "ifos", "ifnos", "else", "endif":
		return true
	}
	return false
}

func (p *parser) handleConditional(directive, args string, lineNum int) error {
	switch directive {
	case "ifarch":
		p.cond.pushIf(matchesArch(args, p.currentArch))
	case "ifnarch":
		p.cond.pushIf(!matchesArch(args, p.currentArch))
	case "ifos":
		p.cond.pushIf(matchesOS(args, p.currentOS))
	case "ifnos":
		p.cond.pushIf(!matchesOS(args, p.currentOS))
	case "else":
		if err := p.cond.handleElse(); err != nil {
			return &ErrUnmatchedIf{File: p.path, Line: lineNum}
		}
	case "endif":
		if err := p.cond.handleEndif(); err != nil {
			return &ErrUnmatchedIf{File: p.path, Line: lineNum}
		}
	}
	return nil
}

// handleSectionDirective dispatches a non-conditional directive line: either
// a section marker (%prep, %files NAME, %pre -p ..., etc.) or a %package/
// %define/trigger directive.
func (p *parser) handleSectionDirective(directive, args string, lineNum int) error {
	switch directive {
	case "undefine":
		// "%define" at column 0 is already consumed by macro.Expand itself
		// (it empties the buffer before this dispatch ever sees it); only
		// "%undefine NAME" needs handling here.
		if fields := strings.Fields(args); len(fields) > 0 {
			p.spec.Macros.Undefine(fields[0])
		}
		return nil
	case "package":
		p.flushScript()
		p.flushFiles()
		name, isDashN := parsePackageDirective(args)
		if !isDashN {
			name = "main-" + name
		}
		p.currentPkg = p.spec.PackageNamed(name)
		p.section = sectionDescription
		return nil
	case "description":
		p.flushScript()
		p.flushFiles()
		p.currentPkg = p.packageForArg(args)
		p.section = sectionDescription
		return nil
	case "prep":
		p.flushScript()
		p.flushFiles()
		p.section = sectionPrep
		return nil
	case "build":
		p.flushScript()
		p.flushFiles()
		p.section = sectionBuild
		return nil
	case "install":
		p.flushScript()
		p.flushFiles()
		p.section = sectionInstall
		return nil
	case "check":
		p.flushScript()
		p.flushFiles()
		p.section = sectionCheck
		return nil
	case "clean":
		p.flushScript()
		p.flushFiles()
		p.section = sectionClean
		return nil
	case "changelog":
		p.flushScript()
		p.flushFiles()
		p.section = sectionChangelog
		return nil
	case "files":
		p.flushScript()
		p.flushFiles()
		p.currentPkg = p.packageForArg(args)
		p.section = sectionFiles
		return nil
	case "pre", "post", "preun", "postun", "verify":
		p.flushScript()
		p.flushFiles()
		p.section = sectionScript
		p.scriptKind = scriptKindFor(directive)
		p.scriptProg = parseScriptProg(args)
		return nil
	case "triggerin", "triggerun", "triggerpostun":
		p.flushScript()
		p.flushFiles()
		entry := parseTriggerDirective(directive, args)
		entry.Index = uint32(len(p.currentPkg.Triggers))
		p.currentPkg.Triggers = append(p.currentPkg.Triggers, entry)
		p.section = sectionScript
		p.scriptKind = -1 // sentinel: body goes to the just-appended trigger
		return nil
	default:
		// unrecognized directive: treat as an ordinary content line so that
		// e.g. shell constructs beginning with '%' inside scripts (rare)
		// are not silently dropped.
		return p.feedLine("%"+directive+" "+args, lineNum)
	}
}

func parsePackageDirective(args string) (name string, isDashN bool) {
	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		if fields[i] == "-n" && i+1 < len(fields) {
			return fields[i+1], true
		}
	}
	if len(fields) > 0 {
		return fields[0], false
	}
	return "", false
}

func (p *parser) packageForArg(args string) *Package {
	name := strings.TrimSpace(args)
	if name == "" {
		return p.spec.MainPackage()
	}
	return p.spec.PackageNamed("main-" + name)
}

func scriptKindFor(directive string) ScriptKind {
	switch directive {
	case "pre":
		return PreIn
	case "post":
		return PostIn
	case "preun":
		return PreUn
	case "postun":
		return PostUn
	case "verify":
		return Verify
	}
	return PreIn
}

func parseScriptProg(args string) string {
	fields := strings.Fields(args)
	for i := 0; i < len(fields); i++ {
		if fields[i] == "-p" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

// feedLine routes one content line to whatever buffer the current section
// points at.
func (p *parser) feedLine(line string, lineNum int) error {
	switch p.section {
	case sectionPreamble:
		if tag, value, ok := splitPreambleTag(line); ok {
			if _, err := applyPreambleTag(p.spec, p.currentPkg, tag, value, p.path, lineNum); err != nil {
				return err
			}
			return nil
		}
		return nil
	case sectionDescription:
		if p.buf.Len() > 0 {
			p.buf.WriteByte('\n')
		}
		p.buf.WriteString(line)
		return nil
	case sectionPrep, sectionBuild, sectionInstall, sectionCheck, sectionClean:
		p.buf.WriteString(line)
		p.buf.WriteByte('\n')
		return nil
	case sectionFiles:
		p.currentPkg.FileManifest = append(p.currentPkg.FileManifest, parseFileLine(line)...)
		return nil
	case sectionChangelog:
		p.changelog.feed(line)
		return nil
	case sectionScript:
		p.buf.WriteString(line)
		p.buf.WriteByte('\n')
		return nil
	}
	return nil
}

func (p *parser) feedBlank() {
	if p.section == sectionDescription || p.section == sectionScript ||
		p.section == sectionPrep || p.section == sectionBuild ||
		p.section == sectionInstall || p.section == sectionCheck ||
		p.section == sectionClean {
		p.buf.WriteByte('\n')
	}
}

// flushScript commits the accumulated buffer into the stage/script/
// description target it belongs to, and resets the buffer for the next
// section.
func (p *parser) flushScript() {
	text := p.buf.String()
	p.buf.Reset()
	if text == "" {
		return
	}
	switch p.section {
	case sectionDescription:
		p.currentPkg.Description = strings.TrimRight(text, "\n")
	case sectionPrep:
		p.spec.StageBodies[StagePrep] = text
	case sectionBuild:
		p.spec.StageBodies[StageBuild] = text
	case sectionInstall:
		p.spec.StageBodies[StageInstall] = text
	case sectionCheck:
		p.spec.StageBodies[StageCheck] = text
	case sectionClean:
		p.spec.StageBodies[StageClean] = text
	case sectionScript:
		if p.scriptKind == -1 {
			if n := len(p.currentPkg.Triggers); n > 0 {
				p.currentPkg.Triggers[n-1].Script = text
			}
			return
		}
		p.currentPkg.Scripts[p.scriptKind] = ScriptBody{Interpreter: p.scriptProg, Body: text}
	}
}

func (p *parser) flushFiles() {
	// %files accumulates directly into FileManifest per-line; nothing to
	// flush, but kept symmetrical with flushScript for call-site clarity.
}
