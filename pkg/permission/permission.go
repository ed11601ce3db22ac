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

// Package permission implements the Permission Gate: a handler polymorphic
// over AutoAllow, PolicyBased, and InteractivePrompt strategies, grounded
// on the teacher's pkg/agent/tool_approval.go (per-tool approval
// requirement lookup, approve/deny decisions, falling back to deny when no
// decision is available) generalized from the teacher's one-tool-at-a-time
// A2A INPUT_REQUIRED flow into a synchronous Decide call the executor can
// await per tool call, with pattern-based policy matching and a TTL'd
// decision cache added per the executor's need to avoid re-prompting for
// the same (tool, arguments, session) repeatedly.
package permission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sagerun/sage-core/pkg/task"
)

// Action is the outcome a policy entry or prompter assigns to a call.
type Action int

const (
	ActionAllow Action = iota
	ActionDeny
	ActionAsk
)

// Decision is the gate's final verdict for one tool call.
type Decision struct {
	Action Action
	Reason string
}

// Allowed reports whether the call may proceed.
func (d Decision) Allowed() bool { return d.Action == ActionAllow }

// Policy is one entry in the policy table: a tool-name glob, an optional
// path glob matched against args["path"] when present, a maximum risk the
// entry covers, and the action to take when both patterns match and the
// call's risk does not exceed MaxRisk.
type Policy struct {
	ToolPattern string
	PathPattern string // empty matches any
	MaxRisk     task.RiskLevel
	Action      Action
}

func (p Policy) matches(toolName string, risk task.RiskLevel, path string) bool {
	if risk > p.MaxRisk {
		return false
	}
	if ok, _ := filepath.Match(p.ToolPattern, toolName); !ok {
		return false
	}
	if p.PathPattern == "" {
		return true
	}
	if path == "" {
		return false
	}
	ok, _ := filepath.Match(p.PathPattern, path)
	return ok
}

// Prompter asks a human to approve or deny a call, used by InteractivePrompt
// mode when no policy entry resolves the decision outright.
type Prompter interface {
	Prompt(ctx context.Context, toolName string, args map[string]any, risk task.RiskLevel) (Action, error)
}

// Mode selects the gate's fallback strategy when no policy entry matches.
type Mode int

const (
	// ModeAutoAllow allows any call no policy entry explicitly denies.
	ModeAutoAllow Mode = iota
	// ModePolicyOnly denies any call no policy entry explicitly allows.
	ModePolicyOnly
	// ModeInteractive asks a Prompter when no policy entry resolves the call.
	ModeInteractive
)

// Gate evaluates (tool, arguments, cwd, risk) against a policy table, a
// configured fallback Mode, and a TTL'd decision cache keyed by (tool,
// argument hash, session).
type Gate struct {
	mu       sync.Mutex
	policies []Policy
	mode     Mode
	prompter Prompter
	ttl      time.Duration
	cache    map[string]cacheEntry
}

type cacheEntry struct {
	decision Decision
	expires  time.Time
}

// Config configures a new Gate.
type Config struct {
	Mode     Mode
	Prompter Prompter
	CacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.CacheTTL == 0 {
		c.CacheTTL = 5 * time.Minute
	}
	return c
}

// New constructs a Gate with the given policy table (evaluated in order,
// first match wins) and configuration.
func New(policies []Policy, cfg Config) *Gate {
	cfg = cfg.withDefaults()
	return &Gate{
		policies: append([]Policy(nil), policies...),
		mode:     cfg.Mode,
		prompter: cfg.Prompter,
		ttl:      cfg.CacheTTL,
		cache:    make(map[string]cacheEntry),
	}
}

// Decide evaluates one call. session scopes the decision cache so the same
// arguments in a different session are re-evaluated.
func (g *Gate) Decide(ctx context.Context, toolName string, args map[string]any, cwd string, risk task.RiskLevel, session string) (Decision, error) {
	path, _ := args["path"].(string)

	key := cacheKey(toolName, args, session)
	if d, ok := g.cacheGet(key); ok {
		return d, nil
	}

	for _, p := range g.policies {
		if !p.matches(toolName, risk, path) {
			continue
		}
		switch p.Action {
		case ActionAllow:
			d := Decision{Action: ActionAllow, Reason: "policy allow: " + p.ToolPattern}
			g.cacheSet(key, d)
			return d, nil
		case ActionDeny:
			d := Decision{Action: ActionDeny, Reason: "policy deny: " + p.ToolPattern}
			g.cacheSet(key, d)
			return d, nil
		case ActionAsk:
			d, err := g.resolveAsk(ctx, toolName, args, risk)
			if err != nil {
				return Decision{}, err
			}
			g.cacheSet(key, d)
			return d, nil
		}
	}

	d, err := g.fallback(ctx, toolName, args, risk)
	if err != nil {
		return Decision{}, err
	}
	g.cacheSet(key, d)
	return d, nil
}

func (g *Gate) fallback(ctx context.Context, toolName string, args map[string]any, risk task.RiskLevel) (Decision, error) {
	switch g.mode {
	case ModeAutoAllow:
		return Decision{Action: ActionAllow, Reason: "auto-allow: no policy matched"}, nil
	case ModePolicyOnly:
		return Decision{Action: ActionDeny, Reason: "policy-only: no policy entry allowed this call"}, nil
	case ModeInteractive:
		return g.resolveAsk(ctx, toolName, args, risk)
	default:
		return Decision{Action: ActionDeny, Reason: "deny: unrecognized gate mode"}, nil
	}
}

func (g *Gate) resolveAsk(ctx context.Context, toolName string, args map[string]any, risk task.RiskLevel) (Decision, error) {
	if g.prompter == nil {
		return Decision{Action: ActionDeny, Reason: "deny: ask required but no prompter configured"}, nil
	}
	action, err := g.prompter.Prompt(ctx, toolName, args, risk)
	if err != nil {
		return Decision{}, err
	}
	reason := "prompter denied"
	if action == ActionAllow {
		reason = "prompter approved"
	}
	return Decision{Action: action, Reason: reason}, nil
}

func (g *Gate) cacheGet(key string) (Decision, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.cache[key]
	if !ok || time.Now().After(entry.expires) {
		delete(g.cache, key)
		return Decision{}, false
	}
	return entry.decision, true
}

func (g *Gate) cacheSet(key string, d Decision) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[key] = cacheEntry{decision: d, expires: time.Now().Add(g.ttl)}
}

// cacheKey derives a stable cache key from tool name, a deterministic hash
// of arguments (JSON keys sorted so map iteration order never changes the
// hash), and session.
func cacheKey(toolName string, args map[string]any, session string) string {
	return toolName + "|" + session + "|" + stableHash(args)
}

func stableHash(args map[string]any) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		ordered = append(ordered, k, args[k])
	}
	data, _ := json.Marshal(ordered)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
