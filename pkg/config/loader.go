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

package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Loader reads a YAML configuration file, expands environment variable
// references, decodes it into a Config, and can watch the file for
// changes. Grounded on the teacher's pkg/config/provider/file.go
// (fsnotify directory-watch-with-debounce, since some filesystems don't
// support watching a single file directly) and pkg/config/koanf_loader.go
// (load-then-expand-then-decode pipeline), adapted onto a direct
// yaml.v3+mapstructure decode since this module's dependency surface has
// no koanf.
type Loader struct {
	path string

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewLoader constructs a Loader for the YAML file at path.
func NewLoader(path string) (*Loader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to resolve path %q: %w", path, err)
	}
	return &Loader{path: abs}, nil
}

// Load reads, expands, decodes, defaults, and validates the config file.
func (l *Loader) Load() (*Config, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", l.path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", l.path, err)
	}

	expanded, ok := ExpandEnvVarsInData(raw).(map[string]any)
	if !ok {
		expanded = map[string]any{}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, fmt.Errorf("config: failed to build decoder: %w", err)
	}
	if err := decoder.Decode(expanded); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", l.path, err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch starts watching the config file's directory (fsnotify can't
// reliably watch a single file across platforms, especially through
// editor atomic-save-via-rename) and invokes onChange with the freshly
// reloaded Config each time the file is written or recreated. Reload
// errors are logged and do not stop the watch; Watch blocks until ctx is
// done or Close is called.
func (l *Loader) Watch(ctx context.Context, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: failed to create watcher: %w", err)
	}

	dir := filepath.Dir(l.path)
	file := filepath.Base(l.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("config: failed to watch %s: %w", dir, err)
	}

	l.mu.Lock()
	l.watcher = watcher
	l.mu.Unlock()
	defer watcher.Close()

	const debounceDelay = 100 * time.Millisecond
	var debounceTimer *time.Timer
	reload := func() {
		cfg, err := l.Load()
		if err != nil {
			slog.Error("config: reload failed", "path", l.path, "error", err)
			return
		}
		onChange(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "error", err)
		}
	}
}

// Close stops an in-progress Watch.
func (l *Loader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	if l.watcher != nil {
		err := l.watcher.Close()
		l.watcher = nil
		return err
	}
	return nil
}
