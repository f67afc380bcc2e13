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

// Package header implements the tag-indexed, type-tagged, region-aware
// binary container used both for a package's main Header and for its
// SignatureHeader. Each entry's value is a tagged sum type (Value) rather
// than a raw byte blob with a separate type code, so callers get type
// safety without a manual cast at every access.
package header

import "fmt"

// Type enumerates the possible TagEntry value kinds, mirroring [LSB,
// 25.2.2.2.1]'s TagType.
type Type uint32

const (
	Null Type = iota
	Char
	U8
	U16
	U32
	U64
	Str
	Bin
	StrArray
	I18nStrArray
)

func (t Type) String() string {
	switch t {
	case Null:
		return "NULL"
	case Char:
		return "CHAR"
	case U8:
		return "UINT8"
	case U16:
		return "UINT16"
	case U32:
		return "UINT32"
	case U64:
		return "UINT64"
	case Str:
		return "STRING"
	case Bin:
		return "BIN"
	case StrArray:
		return "STRING_ARRAY"
	case I18nStrArray:
		return "I18NSTRING"
	default:
		return fmt.Sprintf("Type(%d)", uint32(t))
	}
}

// sizeOf returns the on-disk width of one value of a fixed-width type, or 0
// for variable-width types (Str, Bin, StrArray, I18nStrArray).
func (t Type) fixedWidth() int {
	switch t {
	case Char, U8:
		return 1
	case U16:
		return 2
	case U32:
		return 4
	case U64:
		return 8
	default:
		return 0
	}
}

// isArrayCompatible reports whether a value of type t can be the target of
// append_or_add when merging into an existing array-typed entry: a Str
// promotes to StrArray, or the entry is already array-typed.
func isArrayCompatible(existing, incoming Type) bool {
	if existing == incoming {
		switch existing {
		case StrArray, I18nStrArray, Bin:
			return true
		}
		return false
	}
	return existing == StrArray && incoming == Str
}

// Value is the decoded, tagged-union representation of a TagEntry's payload.
// Exactly one field is meaningful, selected by Type; decoding from raw bytes
// happens only at the load boundary.
type Value struct {
	Type     Type
	Bytes    []byte   // Bin
	U8s      []uint8  // Char, U8
	U16s     []uint16 // U16
	U32s     []uint32 // U32
	U64s     []uint64 // U64
	Str      string   // Str, I18nStrArray (after locale selection)
	StrArray []string // StrArray, or I18nStrArray raw
}

// Count returns the logical element count of this value, as it would be
// written into a TagEntry's Count field.
func (v Value) Count() uint32 {
	switch v.Type {
	case Char, U8:
		return uint32(len(v.U8s))
	case U16:
		return uint32(len(v.U16s))
	case U32:
		return uint32(len(v.U32s))
	case U64:
		return uint32(len(v.U64s))
	case Str:
		return 1
	case Bin:
		return uint32(len(v.Bytes))
	case StrArray, I18nStrArray:
		return uint32(len(v.StrArray))
	default:
		return 0
	}
}
