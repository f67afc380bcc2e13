package spec

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rpmforge/rpmbuilder/internal/header"
	"github.com/rpmforge/rpmbuilder/internal/rpm"
)

var sourcePatchRx = regexp.MustCompile(`(?i)^(Source|Patch)(\d*)$`)
var requiresRx = regexp.MustCompile(`(?i)^Requires(\([^)]*\))?$`)

// splitPreambleTag splits "Name: value" into ("Name", "value"), or reports
// ok=false if line is not a "TAG: VALUE" preamble line.
func splitPreambleTag(line string) (tag, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	tag = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if tag == "" || strings.ContainsAny(tag, " \t") {
		return "", "", false
	}
	return tag, value, true
}

// applyPreambleTag dispatches one "TAG: VALUE" preamble line onto s and its
// current package pkg preamble tag list. It reports
// whether tag was recognized at all (an unrecognized tag is not an error —
// unknown-tag tolerance matches rpm's own behavior for third-party
// extensions).
func applyPreambleTag(s *Spec, pkg *Package, tag, value string, path string, lineNum int) (bool, error) {
	h := pkg.Header

	if m := sourcePatchRx.FindStringSubmatch(tag); m != nil {
		kind := strings.ToLower(m[1])
		idx := uint32(0)
		if m[2] != "" {
			n, err := strconv.ParseUint(m[2], 10, 32)
			if err != nil {
				return true, &ErrBadNumber{File: path, Line: lineNum, Token: m[2]}
			}
			idx = uint32(n)
		}
		src := Source{FullURL: value, Basename: basenameOf(value), Index: idx}
		if kind == "source" {
			src.Flags = IsSource
		} else {
			src.Flags = IsPatch
		}
		s.Sources = append(s.Sources, src)
		return true, nil
	}

	if requiresRx.MatchString(tag) {
		pkg.Requires = append(pkg.Requires, parseRequireLine(value)...)
		return true, nil
	}

	switch strings.ToLower(tag) {
	case "name":
		return true, h.Put(rpm.TagName, header.Value{Type: header.Str, Str: value})
	case "version":
		return true, h.Put(rpm.TagVersion, header.Value{Type: header.Str, Str: value})
	case "release":
		return true, h.Put(rpm.TagRelease, header.Value{Type: header.Str, Str: value})
	case "summary":
		pkg.Summary = value
		return true, putI18N(h, rpm.TagSummary, value)
	case "group":
		pkg.Group = value
		return true, putI18N(h, rpm.TagGroup, value)
	case "license", "copyright":
		pkg.License = value
		return true, h.Put(rpm.TagLicense, header.Value{Type: header.Str, Str: value})
	case "url":
		return true, h.Put(rpm.TagURL, header.Value{Type: header.Str, Str: value})
	case "buildroot":
		s.BuildRoot = value
		return true, nil
	case "provides":
		pkg.Provides = append(pkg.Provides, parseRequireLine(value)...)
		return true, nil
	case "obsoletes":
		pkg.Obsoletes = append(pkg.Obsoletes, parseRequireLine(value)...)
		return true, nil
	case "conflicts":
		pkg.Conflicts = append(pkg.Conflicts, parseRequireLine(value)...)
		return true, nil
	case "buildrequires":
		pkg.BuildRequires = append(pkg.BuildRequires, parseRequireLine(value)...)
		return true, nil
	case "buildarch", "buildarchitectures":
		pkg.BuildArch = value
		return true, nil
	case "autoreq", "autoprov", "autoreqprov":
		pkg.AutoReqProv = !isNoValue(value)
		return true, nil
	case "excludearch", "exclusivearch", "excludeos", "exclusiveos":
		// recorded informationally; the orchestrator consults the Spec's
		// build target, not these preamble values, to decide skip/build.
		return true, nil
	case "prefix", "prefixes":
		return true, nil
	case "icon":
		s.Sources = append(s.Sources, Source{FullURL: value, Basename: basenameOf(value), Flags: IsIcon})
		return true, nil
	case "nosource":
		s.NoSource = true
		return true, nil
	case "nopatch":
		return true, nil
	case "vendor":
		return true, h.Put(rpm.TagVendor, header.Value{Type: header.Str, Str: value})
	case "distribution":
		return true, h.Put(rpm.TagDistribution, header.Value{Type: header.Str, Str: value})
	case "packager":
		return true, h.Put(rpm.TagPackager, header.Value{Type: header.Str, Str: value})
	case "epoch", "serial":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return true, &ErrBadNumber{File: path, Line: lineNum, Token: value}
		}
		return true, h.Put(rpm.TagEpoch, header.Value{Type: header.U32, U32s: []uint32{uint32(n)}})
	case "description":
		pkg.Description = value
		return true, putI18N(h, rpm.TagDescription, value)
	}
	return false, nil
}

// putI18N installs value as a single-locale ("C") I18nStrArray entry,
// initializing the shared locale table (TagHeaderI18NTable) on first use.
func putI18N(h *header.Header, tag uint32, value string) error {
	if !h.IsEntry(rpm.TagHeaderI18NTable) {
		if err := h.Put(rpm.TagHeaderI18NTable, header.Value{Type: header.StrArray, StrArray: []string{"C"}}); err != nil {
			return err
		}
	}
	return h.Put(tag, header.Value{Type: header.I18nStrArray, StrArray: []string{value}})
}

func isNoValue(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "no" || v == "0" || v == "false"
}

func basenameOf(url string) string {
	if i := strings.LastIndexAny(url, "/\\"); i >= 0 {
		return url[i+1:]
	}
	return url
}
