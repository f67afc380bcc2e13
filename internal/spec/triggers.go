package spec

import "strings"

// parseTriggerDirective parses the arguments of a %triggerin/%triggerun/
// %triggerpostun line, e.g. "%triggerun -- foo >= 1.0" or
// "%triggerin -p /usr/bin/lua -- bar".
func parseTriggerDirective(kind, args string) TriggerEntry {
	t := TriggerEntry{Kind: kind, Prog: "/bin/sh"}

	fields := strings.Fields(args)
	i := 0
	for i < len(fields) {
		switch fields[i] {
		case "-p":
			if i+1 < len(fields) {
				t.Prog = fields[i+1]
				i += 2
				continue
			}
			i++
		case "--":
			i++
		default:
			goto subject
		}
	}
subject:
	rest := fields[i:]
	switch len(rest) {
	case 1:
		t.Name = rest[0]
	case 3:
		t.Name = rest[0]
		t.Sense = normalizeSense(rest[1])
		t.Version = rest[2]
	default:
		if len(rest) > 0 {
			t.Name = rest[0]
		}
	}
	return t
}
