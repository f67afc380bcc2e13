package spec

import "strings"

// parseFileLine parses one line of a %files section body, recognizing the
// %doc/%config/%ghost/%license modifiers. A line may name more than one
// pattern under the same modifiers (e.g. "%doc README CHANGES").
func parseFileLine(line string) []FileEntry {
	fields := strings.Fields(line)
	var flags FileFlag
	var patterns []string
	for _, f := range fields {
		switch {
		case f == "%doc":
			flags |= FileDoc
		case f == "%license":
			flags |= FileLicense
		case f == "%ghost":
			flags |= FileGhost
		case f == "%config":
			flags |= FileConfig
		case strings.HasPrefix(f, "%config("):
			flags |= FileConfig
			if strings.Contains(f, "noreplace") {
				flags |= FileNoReplace
			}
		default:
			patterns = append(patterns, f)
		}
	}
	entries := make([]FileEntry, 0, len(patterns))
	for _, p := range patterns {
		entries = append(entries, FileEntry{Pattern: p, Flags: flags})
	}
	return entries
}
