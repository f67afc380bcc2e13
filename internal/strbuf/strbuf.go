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

// Package strbuf provides a growable byte buffer used by the spec parser and
// macro engine to accumulate line and section bodies without repeated
// reallocation.
package strbuf

import "bytes"

// chunkSize is the granularity at which the buffer's backing array grows.
const chunkSize = 4096

// Buffer is a grow-by-chunks byte buffer. The zero value is ready to use.
type Buffer struct {
	data []byte
}

// Append adds bytes to the end of the buffer.
func (b *Buffer) Append(p []byte) {
	if cap(b.data)-len(b.data) < len(p) {
		grown := make([]byte, len(b.data), roundUp(len(b.data)+len(p), chunkSize))
		copy(grown, b.data)
		b.data = grown
	}
	b.data = append(b.data, p...)
}

// AppendString is a convenience wrapper around Append for string input.
func (b *Buffer) AppendString(s string) {
	b.Append([]byte(s))
}

// AppendLine appends p followed by a newline.
func (b *Buffer) AppendLine(p []byte) {
	b.Append(p)
	b.Append([]byte{'\n'})
}

// Get returns the buffer's current contents. The returned slice aliases the
// buffer's backing array and must not be retained across further mutation.
func (b *Buffer) Get() []byte {
	return b.data
}

// String returns a copy of the buffer's contents as a string.
func (b *Buffer) String() string {
	return string(b.data)
}

// Len returns the number of bytes currently stored.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Truncate empties the buffer without releasing its backing array.
func (b *Buffer) Truncate() {
	b.data = b.data[:0]
}

// StripTrailingWhitespace removes trailing space, tab, carriage-return and
// newline bytes from the buffer in place.
func (b *Buffer) StripTrailingWhitespace() {
	b.data = bytes.TrimRight(b.data, " \t\r\n")
}

func roundUp(n, multiple int) int {
	if n%multiple == 0 {
		return n
	}
	return n + (multiple - n%multiple)
}
