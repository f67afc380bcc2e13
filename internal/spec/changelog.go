package spec

import "strings"

// changelogParser accumulates %changelog entries: lines beginning with "* "
// start a new entry whose header is "* DATE AUTHOR"; everything until the
// next "* " or the next section directive is the entry's body text.
type changelogParser struct {
	entries []ChangelogEntry
}

func (p *changelogParser) feed(line string) {
	if strings.HasPrefix(line, "* ") {
		header := strings.TrimPrefix(line, "* ")
		date, author := splitChangelogHeader(header)
		p.entries = append(p.entries, ChangelogEntry{Date: date, Author: author})
		return
	}
	if len(p.entries) == 0 {
		return // stray body line before any "* " header; ignore
	}
	last := &p.entries[len(p.entries)-1]
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if last.Text != "" {
		last.Text += "\n"
	}
	last.Text += trimmed
}

// splitChangelogHeader splits "Mon Jan 02 2006 Real Name <email>" into its
// date prefix (first three whitespace-delimited tokens) and the remaining
// author text, matching rpm's changelog header convention.
func splitChangelogHeader(header string) (date, author string) {
	fields := strings.Fields(header)
	if len(fields) <= 3 {
		return strings.Join(fields, " "), ""
	}
	return strings.Join(fields[:3], " "), strings.Join(fields[3:], " ")
}
