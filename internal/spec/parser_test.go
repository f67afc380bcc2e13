package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpmforge/rpmbuilder/internal/macro"
	"github.com/rpmforge/rpmbuilder/internal/rpm"
)

func testOpts() Options {
	return Options{CurrentArch: "x86_64", CurrentOS: "linux"}
}

func TestParseTrivialPackage(t *testing.T) {
	content := `Name: hello
Version: 1.0
Release: 1
Summary: h
License: MIT
Group: U

%description

%prep

%files
/usr/bin/hello
`
	s, err := Parse("hello.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)

	main := s.MainPackage()
	name, _ := main.Header.Get(rpm.TagName)
	assert.Equal(t, "hello", name.Str)
	version, _ := main.Header.Get(rpm.TagVersion)
	assert.Equal(t, "1.0", version.Str)
	release, _ := main.Header.Get(rpm.TagRelease)
	assert.Equal(t, "1", release.Str)

	require.Len(t, main.FileManifest, 1)
	assert.Equal(t, "/usr/bin/hello", main.FileManifest[0].Pattern)
}

func TestParseMacroExpansionInBody(t *testing.T) {
	content := "%define foo bar\n%foo-%{foo}-%%foo\n"
	macros := macro.NewContext(nil)
	s, err := Parse("macros.spec", content, macros, testOpts())
	require.NoError(t, err)
	// the "%foo-%{foo}-%%foo" line lands in the preamble section (no
	// section directive precedes it); since it is not a "TAG: value" line
	// it is silently ignored there, but the macro definition itself must
	// still have taken effect in the spec's own macro context.
	m, ok := s.Macros.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, "bar", string(m.Body))
}

func TestParseMacroExpansionInDescription(t *testing.T) {
	content := `Name: x
%define foo bar
%description
%foo-%{foo}-%%foo
`
	s, err := Parse("d.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	assert.Equal(t, "bar-bar-%foo", s.MainPackage().Description)
}

func TestParseConditionalFalseBranchExcluded(t *testing.T) {
	content := `Name: x
%ifarch nosuch
Requires: never
%else
Requires: always
%endif
`
	s, err := Parse("c.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	require.Len(t, s.MainPackage().Requires, 1)
	assert.Equal(t, "always", s.MainPackage().Requires[0].Name)
}

func TestParseConditionalTrueBranchIncluded(t *testing.T) {
	content := `Name: x
%ifarch x86_64 i686
Requires: yes-please
%endif
`
	s, err := Parse("c2.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	require.Len(t, s.MainPackage().Requires, 1)
	assert.Equal(t, "yes-please", s.MainPackage().Requires[0].Name)
}

func TestParseUnmatchedIfFails(t *testing.T) {
	content := "Name: x\n%ifarch x86_64\nRequires: a\n"
	_, err := Parse("bad.spec", content, macro.NewContext(nil), testOpts())
	require.Error(t, err)
	_, ok := err.(*ErrUnmatchedIf)
	assert.True(t, ok, "expected *ErrUnmatchedIf, got %T: %v", err, err)
}

func TestParseUnmatchedElseFails(t *testing.T) {
	content := "Name: x\n%else\n"
	_, err := Parse("bad2.spec", content, macro.NewContext(nil), testOpts())
	require.Error(t, err)
	_, ok := err.(*ErrUnmatchedIf)
	assert.True(t, ok)
}

func TestParseRequiresWithVersionConstraint(t *testing.T) {
	content := "Name: x\nRequires: foo >= 1.2.3, bar\n"
	s, err := Parse("req.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	require.Len(t, s.MainPackage().Requires, 2)
	assert.Equal(t, RequireEntry{Name: "foo", Sense: ">=", Version: "1.2.3"}, s.MainPackage().Requires[0])
	assert.Equal(t, RequireEntry{Name: "bar"}, s.MainPackage().Requires[1])
}

func TestParseFilesWithFlags(t *testing.T) {
	content := "Name: x\n%files\n%doc README\n%config(noreplace) /etc/x.conf\n/usr/bin/x\n"
	s, err := Parse("files.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	entries := s.MainPackage().FileManifest
	require.Len(t, entries, 3)
	assert.Equal(t, FileEntry{Pattern: "README", Flags: FileDoc}, entries[0])
	assert.Equal(t, FileEntry{Pattern: "/etc/x.conf", Flags: FileConfig | FileNoReplace}, entries[1])
	assert.Equal(t, FileEntry{Pattern: "/usr/bin/x"}, entries[2])
}

func TestParseScriptsWithInterpreter(t *testing.T) {
	content := "Name: x\n%post -p /usr/bin/lua\nprint('hi')\n"
	s, err := Parse("scripts.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	script := s.MainPackage().Scripts[PostIn]
	assert.Equal(t, "/usr/bin/lua", script.Interpreter)
	assert.Equal(t, "print('hi')\n", script.Body)
}

func TestParseSubpackageWithDashN(t *testing.T) {
	content := "Name: x\n%package -n other\nSummary: sub\n%files -n other\n/opt/other\n"
	s, err := Parse("sub.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	require.Len(t, s.Packages, 2)
	sub := s.PackageNamed("other")
	assert.Equal(t, "sub", sub.Summary)
}

func TestParseTriggers(t *testing.T) {
	content := "Name: x\n%triggerun -- foo >= 1.0\necho bye\n%triggerin -p /bin/bash -- bar\necho hi\n"
	s, err := Parse("trig.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	require.Len(t, s.MainPackage().Triggers, 2)
	first := s.MainPackage().Triggers[0]
	assert.Equal(t, "triggerun", first.Kind)
	assert.Equal(t, "foo", first.Name)
	assert.Equal(t, ">=", first.Sense)
	assert.Equal(t, "1.0", first.Version)
	assert.Equal(t, "echo bye\n", first.Script)
	assert.Equal(t, uint32(0), first.Index)

	second := s.MainPackage().Triggers[1]
	assert.Equal(t, "/bin/bash", second.Prog)
	assert.Equal(t, "bar", second.Name)
	assert.Equal(t, uint32(1), second.Index)
}

func TestParseChangelog(t *testing.T) {
	content := "Name: x\n%changelog\n* Mon Jan 02 2017 Jane Doe <jane@example.com> 1.0-1\n- initial release\n- second line\n"
	s, err := Parse("log.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	require.Len(t, s.Changelog, 1)
	assert.Equal(t, "Mon Jan 02", s.Changelog[0].Date)
	assert.Contains(t, s.Changelog[0].Author, "Jane Doe")
	assert.Contains(t, s.Changelog[0].Text, "initial release")
}

func TestParseStageBodies(t *testing.T) {
	content := "Name: x\n%prep\necho prep\n%build\necho build\n%install\necho install\n"
	s, err := Parse("stages.spec", content, macro.NewContext(nil), testOpts())
	require.NoError(t, err)
	assert.Equal(t, "echo prep\n", s.StageBodies[StagePrep])
	assert.Equal(t, "echo build\n", s.StageBodies[StageBuild])
	assert.Equal(t, "echo install\n", s.StageBodies[StageInstall])
}
