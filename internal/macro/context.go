/*******************************************************************************
*
* Copyright 2015-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

// Package macro implements the %name / %{name} macro expansion language
// used by spec files.
package macro

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Level records where a macro was defined, so that an entire scope (e.g.
// "everything defined while processing this spec file") can be unwound in
// one call to Context.RemoveLevel.
type Level int

// Levels are listed lowest (most easily overridden) to highest.
const (
	LevelBuiltin Level = iota
	LevelRCFile
	LevelCommandLine
	LevelSpecFile
	LevelScript
)

// Macro is a single named text substitution.
type Macro struct {
	Name  string
	Body  []byte
	Opts  []byte
	Level Level
}

// Context is an ordered, name-unique collection of Macros. Lookups are a
// binary search over a name-sorted slice; insertion preserves that
// invariant so Define/Lookup never need to re-sort from scratch.
type Context struct {
	macros []Macro
	log    *zap.Logger
}

// NewContext creates an empty macro context. A nil logger is replaced by a
// no-op logger.
func NewContext(log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{log: log}
}

// Define inserts or replaces the macro named name. The
// body is NOT expanded at define time; expansion is lazy, performed only
// when the macro is later referenced by Expand.
func (c *Context) Define(name string, body, opts []byte, level Level) {
	idx, found := c.search(name)
	if found {
		existing := c.macros[idx]
		if c.log.Core().Enabled(zap.DebugLevel) && string(existing.Body) != string(body) {
			c.log.Debug("macro redefined",
				zap.String("name", name),
				zap.ByteString("old_body", existing.Body),
				zap.ByteString("new_body", body),
			)
		}
		c.macros[idx] = Macro{Name: name, Body: body, Opts: opts, Level: level}
		return
	}
	m := Macro{Name: name, Body: body, Opts: opts, Level: level}
	c.macros = append(c.macros, Macro{})
	copy(c.macros[idx+1:], c.macros[idx:])
	c.macros[idx] = m
}

// Undefine removes the macro named name. It is a no-op if no such macro
// exists.
func (c *Context) Undefine(name string) {
	idx, found := c.search(name)
	if !found {
		return
	}
	c.macros = append(c.macros[:idx], c.macros[idx+1:]...)
}

// RemoveLevel drops every macro whose Level is at least the given level.
// This is how the orchestrator unwinds per-script macro scopes, and how a
// spec reload unwinds per-file scopes.
func (c *Context) RemoveLevel(minLevel Level) {
	kept := c.macros[:0]
	for _, m := range c.macros {
		if m.Level < minLevel {
			kept = append(kept, m)
		}
	}
	c.macros = kept
}

// Lookup returns the macro named name, if defined.
func (c *Context) Lookup(name string) (Macro, bool) {
	idx, found := c.search(name)
	if !found {
		return Macro{}, false
	}
	return c.macros[idx], true
}

// IsDefined reports whether a macro named name currently exists.
func (c *Context) IsDefined(name string) bool {
	_, found := c.search(name)
	return found
}

// search performs the sorted binary search backing Lookup/Define/Undefine.
// The returned index is either the position of an existing entry (found ==
// true) or the insertion point that keeps c.macros sorted (found == false).
func (c *Context) search(name string) (idx int, found bool) {
	idx = sort.Search(len(c.macros), func(i int) bool {
		return c.macros[i].Name >= name
	})
	found = idx < len(c.macros) && c.macros[idx].Name == name
	return idx, found
}

// Snapshot renders every defined macro as "name=body" lines, sorted by name
// (the sort invariant already holds), for use as a change-detection digest
// input by callers such as the build orchestrator's stage cache.
func (c *Context) Snapshot() string {
	var b strings.Builder
	for _, m := range c.macros {
		b.WriteString(m.Name)
		b.WriteByte('=')
		b.Write(m.Body)
		b.WriteByte('\n')
	}
	return b.String()
}

// Clone returns a deep copy of the context, safe to mutate independently of
// the original (used when a per-script scope needs a disposable context
// seeded with the spec's macros).
func (c *Context) Clone() *Context {
	clone := &Context{
		macros: make([]Macro, len(c.macros)),
		log:    c.log,
	}
	copy(clone.macros, c.macros)
	return clone
}
