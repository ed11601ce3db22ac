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

// Command sage is the CLI entrypoint for the Reactive Loop: it loads a
// pkg/config YAML file, assembles the provider/tool/permission/
// observability/checkpoint bundle pkg/config describes, and drives one
// Task through pkg/loop to a terminal Outcome.
//
// Usage:
//
//	sage run "fix the failing test in pkg/foo" --config sage.yaml
//	sage version
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/sagerun/sage-core/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Run     RunCmd     `cmd:"" help:"Run a task to completion."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config   string `short:"c" help:"Path to the YAML config file." type:"path" default:"sage.yaml"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)." default:"info"`
}

func main() {
	if err := config.LoadEnvFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "sage: %v\n", err)
	}

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("sage"),
		kong.Description("sage-core: a reactive tool-use loop for LLM coding agents"),
		kong.UsageOnError(),
	)

	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
