package spec

import "strings"

// senseWords maps the textual comparison-operator spellings accepted
// alongside the symbolic ones ("Requires flags parsing").
var senseWords = map[string]string{
	"lt": "<",
	"le": "<=",
	"eq": "=",
	"ge": ">=",
	"gt": ">",
}

// parseRequireLine parses a single "Requires:"-style value into one entry
// per token. A token is a bare NAME, or "NAME OP VERSION" where OP is one
// of <, <=, =, >=, > or its textual equivalent (lt, le, eq, ge, gt). Tokens
// are separated by commas and/or whitespace.
func parseRequireLine(s string) []RequireEntry {
	words := strings.Fields(strings.ReplaceAll(s, ",", " "))
	var out []RequireEntry
	for i := 0; i < len(words); i++ {
		name := words[i]
		if i+2 < len(words) {
			if op := normalizeSense(words[i+1]); op != "" {
				out = append(out, RequireEntry{Name: name, Sense: op, Version: words[i+2]})
				i += 2
				continue
			}
		}
		out = append(out, RequireEntry{Name: name})
	}
	return out
}

func normalizeSense(tok string) string {
	switch tok {
	case "<", "<=", "=", ">=", ">":
		return tok
	}
	if sym, ok := senseWords[strings.ToLower(tok)]; ok {
		return sym
	}
	return ""
}
