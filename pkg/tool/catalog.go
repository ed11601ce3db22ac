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

package tool

import (
	"fmt"

	"github.com/sagerun/sage-core/pkg/registry"
)

// Catalog is the read-only-after-construction mapping from tool name to
// Tool the executor consults for every dispatched call, built on the
// teacher's generic registry container.
type Catalog struct {
	reg *registry.BaseRegistry[Tool]
}

// NewCatalog builds an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{reg: registry.NewBaseRegistry[Tool]()}
}

// Register adds t to the catalog. Returns an error if the name is already
// taken, so a misconfigured builder fails loudly instead of silently
// shadowing a tool.
func (c *Catalog) Register(t Tool) error {
	if err := c.reg.Register(t.Name(), t); err != nil {
		return fmt.Errorf("tool catalog: %w", err)
	}
	return nil
}

// Get looks up a tool by name.
func (c *Catalog) Get(name string) (Tool, bool) {
	return c.reg.Get(name)
}

// List returns every registered tool.
func (c *Catalog) List() []Tool {
	return c.reg.List()
}

// Names returns every registered tool's name.
func (c *Catalog) Names() []string {
	return c.reg.Names()
}

// Schemas renders every tool's name, description, and parameter schema for
// inclusion in an LLM request.
func (c *Catalog) Schemas() []ToolDefinitionLike {
	tools := c.reg.List()
	out := make([]ToolDefinitionLike, 0, len(tools))
	for _, t := range tools {
		out = append(out, ToolDefinitionLike{Name: t.Name(), Description: t.Description(), Parameters: t.Schema()})
	}
	return out
}

// ToolDefinitionLike mirrors llm.ToolDefinition's shape without importing
// pkg/llm, avoiding a dependency cycle (pkg/llm has no reason to import
// pkg/tool, but builder code wires catalog schemas into llm.ToolDefinition
// one field at a time).
type ToolDefinitionLike struct {
	Name        string
	Description string
	Parameters  map[string]any
}
