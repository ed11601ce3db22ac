// Copyright 2026 Sage Authors
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

package trajectory

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// namePrefixLen is the width of "YYYYMMDD_HHMMSS_mmm_" preceding the
// execution id in a trajectory file name.
const namePrefixLen = len("20060102_150405_123_")

// Store lists, loads, and deletes trajectory files under one directory. A
// single execution may span several files if rotation occurred; Store
// reassembles them in sequence order.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) filesFor(executionID string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*_"+executionID+".jsonl"))
	if err != nil {
		return nil, fmt.Errorf("trajectory: glob %s: %w", executionID, err)
	}
	sort.Strings(paths) // filename's leading timestamp makes lexical order chronological
	return paths, nil
}

// Load reads every record for executionID across all of its rotated
// files, in sequence order.
func (s *Store) Load(executionID string) ([]Record, error) {
	paths, err := s.filesFor(executionID)
	if err != nil {
		return nil, err
	}
	var records []Record
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("trajectory: open %s: %w", path, err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var rec Record
			if err := json.Unmarshal(line, &rec); err != nil {
				f.Close()
				return nil, fmt.Errorf("trajectory: parse %s: %w", path, err)
			}
			records = append(records, rec)
		}
		scanErr := scanner.Err()
		f.Close()
		if scanErr != nil {
			return nil, fmt.Errorf("trajectory: scan %s: %w", path, scanErr)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Seq < records[j].Seq })
	return records, nil
}

// ListExecutionIDs returns the distinct execution ids present in the
// store's directory.
func (s *Store) ListExecutionIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("trajectory: read dir %s: %w", s.dir, err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".jsonl")
		if len(name) <= namePrefixLen {
			continue
		}
		id := name[namePrefixLen:]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes every rotated file belonging to executionID.
func (s *Store) Delete(executionID string) error {
	paths, err := s.filesFor(executionID)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("trajectory: remove %s: %w", path, err)
		}
	}
	return nil
}
