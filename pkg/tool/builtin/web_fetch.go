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

package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sagerun/sage-core/pkg/retry"
	"github.com/sagerun/sage-core/pkg/task"
	"github.com/sagerun/sage-core/pkg/tool"
)

// WebFetchTool issues a validated HTTP GET/POST, grounded on the teacher's
// pkg/tools.WebRequestTool (domain allow/deny lists, redirect and
// response-size limits), with retries delegated to this module's own
// pkg/retry instead of the teacher's pkg/httpclient.
type WebFetchTool struct {
	base
	httpClient      *http.Client
	AllowedDomains  []string
	DeniedDomains   []string
	MaxResponseSize int64
	RetryPolicy     retry.Policy
}

func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{
		base: base{
			name:        "web_fetch",
			description: "Fetch content from a URL over HTTP GET or POST, subject to domain allow/deny lists and a response-size limit.",
			risk:        task.RiskMedium,
			concurrency: task.ConcurrencyParallel,
			category:    tool.CategoryNetwork,
		},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		MaxResponseSize: 5 * 1024 * 1024,
		RetryPolicy:     retry.Policy{MaxAttempts: 3},
	}
}

func (t *WebFetchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":    map[string]any{"type": "string", "description": "URL to fetch"},
			"method": map[string]any{"type": "string", "description": "HTTP method (default: GET)"},
			"body":   map[string]any{"type": "string", "description": "Request body, for POST/PUT"},
		},
		"required": []any{"url"},
	}
}

func (t *WebFetchTool) Call(ctx context.Context, call task.ToolCall) (task.ToolResult, error) {
	start := time.Now()
	rawURL, _ := stringArg(call.Args, "url")
	if rawURL == "" {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "url parameter is required", start)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return errResult(t.name, call.ID, tool.ErrInvalidArguments, "url must be a valid http(s) URL", start)
	}
	if err := t.validateDomain(parsed.Hostname()); err != nil {
		return errResult(t.name, call.ID, tool.ErrPermissionDenied, err.Error(), start)
	}

	method, _ := stringArg(call.Args, "method")
	if method == "" {
		method = http.MethodGet
	}
	body, _ := stringArg(call.Args, "body")

	type fetchResult struct {
		status int
		body   string
	}

	result, err := retry.Do(ctx, t.RetryPolicy, func(ctx context.Context) (fetchResult, error) {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, strings.NewReader(body))
		if err != nil {
			return fetchResult{}, retry.PermanentError(err)
		}
		resp, err := t.httpClient.Do(req)
		if err != nil {
			return fetchResult{}, err
		}
		defer resp.Body.Close()

		limited := io.LimitReader(resp.Body, t.MaxResponseSize)
		content, err := io.ReadAll(limited)
		if err != nil {
			return fetchResult{}, err
		}
		if resp.StatusCode >= 500 {
			return fetchResult{}, fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return fetchResult{status: resp.StatusCode, body: string(content)}, nil
	})
	if err != nil {
		return errResult(t.name, call.ID, tool.ErrExecutionFailed, fmt.Sprintf("request failed: %v", err), start)
	}

	return okResult(t.name, call.ID, result.body, map[string]any{
		"status": result.status,
		"url":    rawURL,
	}, start), nil
}

func (t *WebFetchTool) validateDomain(host string) error {
	for _, denied := range t.DeniedDomains {
		if host == denied {
			return fmt.Errorf("domain denied: %s", host)
		}
	}
	if len(t.AllowedDomains) == 0 {
		return nil
	}
	for _, allowed := range t.AllowedDomains {
		if host == allowed {
			return nil
		}
	}
	return fmt.Errorf("domain not in allowlist: %s", host)
}
