package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/sakif/snippets/internal/executor"
)

// Executor implements the executor.Executor interface using Docker.
// It keeps one warm pool per runtime image.
type Executor struct {
	cli    *client.Client
	config Config
	logger *slog.Logger
	pools  map[string]*Pool // keyed by image
}

// New creates a new Docker Executor, pulls every configured image and
// starts the pools.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	images := executor.Images(cfg.Languages)
	if len(images) == 0 {
		cli.Close()
		return nil, fmt.Errorf("no runnable languages configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, img := range images {
		if err := pullImage(ctx, cli, img, logger); err != nil {
			cli.Close()
			return nil, err
		}
	}

	exec := &Executor{
		cli:    cli,
		config: cfg,
		logger: logger,
		pools:  make(map[string]*Pool, len(images)),
	}
	for _, img := range images {
		p := NewPool(cli, img, cfg, logger)
		p.Start()
		exec.pools[img] = p
	}

	return exec, nil
}

func pullImage(ctx context.Context, cli *client.Client, img string, logger *slog.Logger) error {
	logger.Info("ensuring docker image is available", slog.String("image", img))
	reader, err := cli.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", img, err)
	}
	defer reader.Close()
	// Read everything to block until the pull is complete
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", img, err)
	}
	logger.Info("docker image is ready", slog.String("image", img))
	return nil
}

// Close shuts down every pool and the docker client.
func (e *Executor) Close() error {
	for _, p := range e.pools {
		p.Stop()
	}
	return e.cli.Close()
}

// Execute runs the code in a sandboxed container for its language.
func (e *Executor) Execute(ctx context.Context, req executor.ExecutionRequest) (*executor.ExecutionResult, error) {
	rt, ok := executor.RuntimeFor(req.Language)
	if !ok {
		return nil, executor.ErrUnsupportedLanguage
	}
	pool, ok := e.pools[rt.Image]
	if !ok {
		// Known language, but not enabled in this deployment.
		return nil, executor.ErrUnsupportedLanguage
	}

	start := time.Now()

	// Get a pre-warmed container ID from the pool
	containerID, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container from pool: %w", err)
	}

	// A container is used for exactly one run.
	defer pool.remove(containerID)

	executeCtx, executeCancel := context.WithTimeout(ctx, e.config.Timeout)
	defer executeCancel()

	execResp, err := e.cli.ContainerExecCreate(executeCtx, containerID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		Cmd:          rt.Command(req.Code),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	attachResp, err := e.cli.ContainerExecAttach(executeCtx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to exec: %w", err)
	}
	defer attachResp.Close()

	stdout := &cappedBuffer{max: e.config.MaxOutput}
	stderr := &cappedBuffer{max: e.config.MaxOutput}

	done := make(chan struct{})
	go func() {
		// Use stdcopy to demultiplex stdout from stderr
		_, _ = stdcopy.StdCopy(stdout, stderr, attachResp.Reader)
		close(done)
	}()

	var exitCode int

	select {
	case <-done:
		inspectResp, err := e.cli.ContainerExecInspect(ctx, execResp.ID)
		if err == nil {
			exitCode = inspectResp.ExitCode
		}
	case <-executeCtx.Done():
		exitCode = executor.TimeoutExitCode
		// Closing the attach unblocks StdCopy before we read the buffers.
		attachResp.Close()
		<-done
		stderr.buf.WriteString("\nExecution timed out.\n")
	}

	e.logger.Debug("execution finished",
		slog.String("language", req.Language),
		slog.Int("exitCode", exitCode),
		slog.Duration("duration", time.Since(start)),
	)

	return &executor.ExecutionResult{
		Stdout:   stdout.buf.String(),
		Stderr:   stderr.buf.String(),
		ExitCode: exitCode,
		Duration: time.Since(start),
	}, nil
}

// cappedBuffer keeps the first max bytes written and silently drops the
// rest. max <= 0 means no cap.
type cappedBuffer struct {
	buf bytes.Buffer
	max int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if c.max > 0 {
		room := c.max - c.buf.Len()
		if room <= 0 {
			return n, nil
		}
		if len(p) > room {
			p = p[:room]
		}
	}
	c.buf.Write(p)
	return n, nil
}
