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

package llm

import (
	"fmt"

	"github.com/sagerun/sage-core/pkg/registry"
)

// Registry holds every configured Provider, keyed by the name the agent's
// configuration assigns it (not necessarily the provider Type — a config
// may define two "openai" providers against different base URLs for
// different models).
type Registry struct {
	*registry.BaseRegistry[Provider]
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{BaseRegistry: registry.NewBaseRegistry[Provider]()}
}

// Factory constructs a Provider from a Config; each concrete backend
// package registers its constructor here via RegisterFactory in an init().
type Factory func(Config) (Provider, error)

var factories = map[string]Factory{}

// RegisterFactory makes providerType buildable via New. Concrete provider
// packages (pkg/llm/anthropic, pkg/llm/openai, ...) call this from init().
func RegisterFactory(providerType string, f Factory) {
	factories[providerType] = f
}

// New constructs a Provider of the given type using its registered
// factory.
func New(providerType string, cfg Config) (Provider, error) {
	f, ok := factories[providerType]
	if !ok {
		return nil, ErrUnsupportedProvider{Type: providerType}
	}
	p, err := f(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: constructing %q provider: %w", providerType, err)
	}
	return p, nil
}
