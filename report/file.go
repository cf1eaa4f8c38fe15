// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultDir is where reports go unless configured otherwise.
const DefaultDir = "results"

// maxCollisions bounds the _2, _3, ... suffixes tried for one name.
const maxCollisions = 1000

// FileSink writes one markdown file per record into Dir.
type FileSink struct {
	Dir string
}

// NewFileSink returns a sink writing into dir, or DefaultDir when dir is
// empty.
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = DefaultDir
	}
	return &FileSink{Dir: dir}
}

// Save writes the record to Dir/<BaseName>.md. If that file exists the name
// gets a numeric suffix, so runs never overwrite each other.
func (s *FileSink) Save(ctx context.Context, rec Record) (string, error) {
	path, err := writeExclusive(s.Dir, BaseName(rec), ".md", []byte(Markdown(rec)))
	if err != nil {
		return "", &PersistenceError{Sink: "file", Path: path, Err: err}
	}
	return path, nil
}

// writeExclusive creates dir/base+ext, or dir/base_N+ext when taken, and
// writes data to it.
func writeExclusive(dir, base, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dir, err
	}
	for n := 1; n <= maxCollisions; n++ {
		name := base + ext
		if n > 1 {
			name = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return path, err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return path, err
		}
		return path, f.Close()
	}
	return filepath.Join(dir, base+ext), fmt.Errorf("no free name after %d attempts", maxCollisions)
}
