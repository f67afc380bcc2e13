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

package header

import (
	"errors"
	"sort"
)

// Errors returned by Header operations.
var (
	ErrExisting  = errors.New("header: tag already exists")
	ErrBadType   = errors.New("header: operation not valid for this tag's type")
	ErrBadData   = errors.New("header: type/count inconsistency")
	ErrBadMagic  = errors.New("header: wrong magic bytes")
	ErrNoSuchTag = errors.New("header: no such tag")
)

// I18NTableTag is the well-known tag carrying the parallel locale codes for
// every I18nStrArray entry in this header, driving its locale-selection
// rule.
const I18NTableTag = 100

type entry struct {
	Tag   uint32
	Value Value
}

// Header is an ordered, tag-indexed container. Entries are kept in
// insertion order (the source of truth for Iterate); a secondary
// sorted-by-tag index is rebuilt lazily after mutation to support
// O(log n) Get/IsEntry.
type Header struct {
	entries    []entry
	sortedIdx  []int // indices into entries, sorted by Tag; rebuilt lazily
	indexDirty bool

	// regionTag is non-nil once Reload has been called: the header's
	// on-disk form then begins with a self-referential immutable-region
	// descriptor for this tag, spanning all entries present at the time
	// of the Reload call. Entries added afterwards are NOT covered by the
	// region: put operations after Reload append outside the region.
	regionTag      *uint32
	regionEntCount int // number of entries covered by the region
}

// New returns an empty Header.
func New() *Header {
	return &Header{}
}

// Put adds a new entry. If a same-tag entry already exists, ErrExisting is
// returned; use AppendOrAdd to merge into an existing array-typed entry
// instead.
func (h *Header) Put(tag uint32, v Value) error {
	if h.IsEntry(tag) {
		return ErrExisting
	}
	h.entries = append(h.entries, entry{Tag: tag, Value: v})
	h.indexDirty = true
	return nil
}

// AppendOrAdd adds a new entry for tag, or — if an entry already exists —
// appends v's values onto it, provided the types are array-compatible
// (Str → StrArray, or already the same array type). Scalar-on-scalar
// duplicates are rejected with ErrBadType.
func (h *Header) AppendOrAdd(tag uint32, v Value) error {
	idx := h.indexOfInsertionOrder(tag)
	if idx < 0 {
		return h.Put(tag, v)
	}
	existing := &h.entries[idx].Value
	if !isArrayCompatible(existing.Type, v.Type) {
		return ErrBadType
	}
	return mergeInto(existing, v)
}

// Append appends v's values onto the existing array-typed entry for tag. It
// fails with ErrBadType if the entry is not array-typed, and ErrNoSuchTag if
// no entry for tag exists. Existing pointers obtained from previous Get
// calls on this Header may be invalidated by Append.
func (h *Header) Append(tag uint32, v Value) error {
	idx := h.indexOfInsertionOrder(tag)
	if idx < 0 {
		return ErrNoSuchTag
	}
	existing := &h.entries[idx].Value
	switch existing.Type {
	case StrArray, I18nStrArray, Bin, U8, U16, U32, U64, Char:
		// arrays and fixed-width vectors are appendable
	default:
		return ErrBadType
	}
	if existing.Type != v.Type {
		return ErrBadType
	}
	return mergeInto(existing, v)
}

func mergeInto(existing *Value, v Value) error {
	switch existing.Type {
	case Bin:
		existing.Bytes = append(existing.Bytes, v.Bytes...)
	case StrArray, I18nStrArray:
		existing.StrArray = append(existing.StrArray, v.StrArray...)
	case Char, U8:
		existing.U8s = append(existing.U8s, v.U8s...)
	case U16:
		existing.U16s = append(existing.U16s, v.U16s...)
	case U32:
		existing.U32s = append(existing.U32s, v.U32s...)
	case U64:
		existing.U64s = append(existing.U64s, v.U64s...)
	case Str:
		// Str + Str promotes to StrArray
		existing.Type = StrArray
		existing.StrArray = []string{existing.Str, v.Str}
		existing.Str = ""
	default:
		return ErrBadType
	}
	return nil
}

// Get performs a binary search over the sorted tag index. For an
// I18nStrArray entry, the returned Value's locale-best string is placed in
// Str and the reported Type is Str;
// callers that need the raw per-locale strings use GetRaw.
func (h *Header) Get(tag uint32) (Value, bool) {
	v, ok := h.GetRaw(tag)
	if !ok {
		return Value{}, false
	}
	if v.Type == I18nStrArray {
		v.Str = h.selectLocale(v.StrArray)
		v.Type = Str
		v.StrArray = nil
	}
	return v, true
}

// GetRaw is identical to Get but skips locale selection for I18nStrArray
// entries, returning every per-locale string in StrArray.
func (h *Header) GetRaw(tag uint32) (Value, bool) {
	h.ensureSorted()
	i := sort.Search(len(h.sortedIdx), func(i int) bool {
		return h.entries[h.sortedIdx[i]].Tag >= tag
	})
	if i >= len(h.sortedIdx) || h.entries[h.sortedIdx[i]].Tag != tag {
		return Value{}, false
	}
	return h.entries[h.sortedIdx[i]].Value, true
}

// Remove deletes all entries for tag (there is normally at most one) and
// reports whether anything was removed.
func (h *Header) Remove(tag uint32) bool {
	removed := false
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.Tag == tag {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	h.entries = kept
	if removed {
		h.indexDirty = true
	}
	return removed
}

// IsEntry reports whether tag exists in this header.
func (h *Header) IsEntry(tag uint32) bool {
	_, ok := h.GetRaw(tag)
	return ok
}

// Entry pairs a tag with its value, returned by Iterate.
type Entry struct {
	Tag   uint32
	Value Value
}

// Iterate returns every entry in insertion (definition) order. The returned
// slice is a snapshot; it must not be used interleaved with mutation of h.
func (h *Header) Iterate() []Entry {
	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[i] = Entry{Tag: e.Tag, Value: e.Value}
	}
	return out
}

// Copy returns a deep copy of h, including its region state.
func (h *Header) Copy() *Header {
	clone := &Header{
		entries:        append([]entry(nil), h.entries...),
		regionEntCount: h.regionEntCount,
	}
	if h.regionTag != nil {
		t := *h.regionTag
		clone.regionTag = &t
	}
	clone.indexDirty = true
	return clone
}

// CopyTags duplicates the entries for the given tags from src into dst,
// overwriting any existing entries of the same tag in dst.
func CopyTags(src, dst *Header, tags []uint32) {
	for _, tag := range tags {
		v, ok := src.GetRaw(tag)
		if !ok {
			continue
		}
		dst.Remove(tag)
		_ = dst.Put(tag, v)
	}
}

func (h *Header) indexOfInsertionOrder(tag uint32) int {
	for i, e := range h.entries {
		if e.Tag == tag {
			return i
		}
	}
	return -1
}

func (h *Header) ensureSorted() {
	if !h.indexDirty && len(h.sortedIdx) == len(h.entries) {
		return
	}
	h.sortedIdx = make([]int, len(h.entries))
	for i := range h.entries {
		h.sortedIdx[i] = i
	}
	sort.Slice(h.sortedIdx, func(i, j int) bool {
		return h.entries[h.sortedIdx[i]].Tag < h.entries[h.sortedIdx[j]].Tag
	})
	h.indexDirty = false
}

// preferredLocales is the process-level ordered list consulted by
// selectLocale, first match wins, falling back to "C" and then to the
// first available string.
var preferredLocales = []string{"C"}

// SetPreferredLocales overrides the process-level preferred-locale list
// used for I18nStrArray resolution.
func SetPreferredLocales(locales []string) {
	if len(locales) == 0 {
		preferredLocales = []string{"C"}
		return
	}
	preferredLocales = append([]string(nil), locales...)
}

func (h *Header) selectLocale(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	table, ok := h.GetRaw(I18NTableTag)
	locales := table.StrArray
	if !ok || len(locales) != len(strs) {
		// no usable locale table; behave as if everything were "C"
		return strs[0]
	}
	for _, want := range preferredLocales {
		for i, loc := range locales {
			if loc == want {
				return strs[i]
			}
		}
	}
	for i, loc := range locales {
		if loc == "C" {
			return strs[i]
		}
	}
	return strs[0]
}
