package serializer

import (
	"github.com/sakif/snippets/internal/executor"
	"github.com/sakif/snippets/internal/model"
)

// RunRepresentation is the result of POST /snippets/{id}/run/.
type RunRepresentation struct {
	Snippet    int64  `json:"snippet"`
	Language   string `json:"language"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitCode   int    `json:"exit_code"`
	TimedOut   bool   `json:"timed_out"`
	DurationMS int64  `json:"duration_ms"`
}

func RepresentRun(s *model.Snippet, res *executor.ExecutionResult) RunRepresentation {
	return RunRepresentation{
		Snippet:    s.ID,
		Language:   s.Language,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		ExitCode:   res.ExitCode,
		TimedOut:   res.ExitCode == executor.TimeoutExitCode,
		DurationMS: res.Duration.Milliseconds(),
	}
}
