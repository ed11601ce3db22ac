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

package executor

import (
	"fmt"
)

// validateArgs checks call arguments against a tool's JSON schema: every
// name in "required" must be present, and any argument whose property
// declares a "type" must decode to a compatible Go type. This is
// intentionally shallow (no nested object/array schema validation) — the
// spec's InvalidArguments case is about catching a missing or
// wrong-shaped top-level argument before paying for a tool invocation, not
// reimplementing a JSON Schema validator.
func validateArgs(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}

	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			name, _ := r.(string)
			if name == "" {
				continue
			}
			if _, present := args[name]; !present {
				return fmt.Errorf("missing required argument %q", name)
			}
		}
	}

	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	for name, value := range args {
		propAny, ok := props[name]
		if !ok {
			continue
		}
		prop, ok := propAny.(map[string]any)
		if !ok {
			continue
		}
		wantType, _ := prop["type"].(string)
		if wantType == "" {
			continue
		}
		if !typeMatches(wantType, value) {
			return fmt.Errorf("argument %q: expected type %s", name, wantType)
		}
	}
	return nil
}

func typeMatches(want string, value any) bool {
	if value == nil {
		return true // null is permitted unless the schema excludes it explicitly
	}
	switch want {
	case "string":
		_, ok := value.(string)
		return ok
	case "number", "integer":
		switch value.(type) {
		case float64, int, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}
