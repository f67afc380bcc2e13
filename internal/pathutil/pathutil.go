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

// Package pathutil collects the small path-join and scoped-temp-file helpers
// used throughout the build orchestrator and package writer.
package pathutil

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Join concatenates path segments with filepath.Join. It exists mainly so
// call sites read consistently with the rest of this package's helpers.
func Join(parts ...string) string {
	return filepath.Join(parts...)
}

// TempHandle pairs an open temp file with a scope guard that unlinks it on
// Close, regardless of whether Close is reached via success or failure.
// Every acquisition in this codebase (stage scripts, package-writer staging
// files) goes through this type so that no caller has to remember to clean
// up on every exit path.
type TempHandle struct {
	Path string
	File *os.File
}

// NewTempFile allocates a uniquely named file below dir (created if
// necessary) with the given prefix. The uniqueness suffix is a UUID rather
// than a PID, so that concurrent builds of distinct Specs sharing a
// short-lived container's PID space never collide.
func NewTempFile(dir, prefix string) (*TempHandle, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	name := prefix + "-" + uuid.NewString()
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, err
	}
	return &TempHandle{Path: path, File: f}, nil
}

// Close closes the underlying file and unlinks it. Errors from the unlink
// are preferred over errors from the close, since a failed unlink leaves
// state on disk that the caller may need to know about.
func (h *TempHandle) Close() error {
	closeErr := h.File.Close()
	rmErr := os.Remove(h.Path)
	if rmErr != nil && !os.IsNotExist(rmErr) {
		return rmErr
	}
	return closeErr
}

// NewTempDir allocates a uniquely named scratch directory below dir (created
// if necessary) and returns its path together with a scope guard that
// removes it (and everything below it) recursively on Close.
func NewTempDir(dir, prefix string) (path string, closer func() error, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, err
	}
	path = filepath.Join(dir, prefix+"-"+uuid.NewString())
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", nil, err
	}
	return path, func() error { return os.RemoveAll(path) }, nil
}
