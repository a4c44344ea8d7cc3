// Package executor runs snippet code in an isolated environment.
//
// The interface lives here; the Docker implementation lives in
// executor/docker. Handlers depend only on Executor, so tests swap in a fake
// and a server started without Docker simply has no executor.
package executor

import (
	"context"
	"errors"
	"sort"
	"time"
)

// ErrUnsupportedLanguage is returned for a language with no Runtime.
var ErrUnsupportedLanguage = errors.New("executor: language has no runtime")

// ExecutionRequest is one piece of code to run.
type ExecutionRequest struct {
	Language string
	Code     string
}

// ExecutionResult represents the output and status of the code execution.
// ExitCode 124 means the run was cut off by the timeout.
type ExecutionResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// TimeoutExitCode is reported when a run exceeds its time limit, matching
// the coreutils `timeout` command.
const TimeoutExitCode = 124

// Executor represents the core interface for running code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req ExecutionRequest) (*ExecutionResult, error)
}

// Runtime describes how to run one language: which image, and the command
// that evaluates a source string passed as a single argument.
type Runtime struct {
	Image   string
	Command func(code string) []string
}

func inline(flag string, argv ...string) func(string) []string {
	return func(code string) []string {
		cmd := append([]string(nil), argv...)
		return append(cmd, flag, code)
	}
}

// runtimes maps snippet language values (see model.LanguageChoices) to a
// runtime. Languages missing here can be stored and highlighted but not run.
var runtimes = map[string]Runtime{
	"python":     {Image: "python:3.12-alpine", Command: inline("-c", "python")},
	"javascript": {Image: "node:22-alpine", Command: inline("-e", "node")},
	"ruby":       {Image: "ruby:3.3-alpine", Command: inline("-e", "ruby")},
	"bash":       {Image: "bash:5.2", Command: inline("-c", "bash")},
	"perl":       {Image: "perl:5-slim", Command: inline("-e", "perl")},
}

// RuntimeFor returns the runtime for language.
func RuntimeFor(language string) (Runtime, bool) {
	rt, ok := runtimes[language]
	return rt, ok
}

// Languages lists the runnable languages in sorted order.
func Languages() []string {
	out := make([]string, 0, len(runtimes))
	for lang := range runtimes {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Images lists the distinct images needed for languages, sorted.
// An unknown language is skipped.
func Images(languages []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, lang := range languages {
		rt, ok := runtimes[lang]
		if !ok || seen[rt.Image] {
			continue
		}
		seen[rt.Image] = true
		out = append(out, rt.Image)
	}
	sort.Strings(out)
	return out
}
