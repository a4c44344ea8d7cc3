package docker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// poolLabel marks every container a Pool creates, with the image as value,
// so leftovers from a crashed process can be found and removed.
const poolLabel = "io.snippets.pool"

const (
	createTimeout = 10 * time.Second
	removeTimeout = 5 * time.Second
	minBackoff    = 500 * time.Millisecond
	maxBackoff    = 30 * time.Second
)

var pidsLimit int64 = 64

// Pool keeps PoolSize idle containers of one image running `sleep infinity`.
// A run takes a container with Acquire and throws it away afterwards; the
// refill loop replaces it in the background.
type Pool struct {
	cli    *client.Client
	image  string
	config Config
	logger *slog.Logger

	idle chan string
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func NewPool(cli *client.Client, image string, cfg Config, logger *slog.Logger) *Pool {
	return &Pool{
		cli:    cli,
		image:  image,
		config: cfg,
		logger: logger.With(slog.String("image", image)),
		idle:   make(chan string, cfg.PoolSize),
		done:   make(chan struct{}),
	}
}

// Start removes containers left behind by an earlier process, then starts
// refilling. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.once.Do(func() {
		p.reapStale()
		p.logger.Info("container pool starting", slog.Int("size", p.config.PoolSize))
		p.wg.Add(1)
		go p.refill()
	})
}

// Stop ends the refill loop and removes every idle container. Containers
// already handed out are removed by whoever holds them.
func (p *Pool) Stop() {
	close(p.done)
	p.wg.Wait()

	for {
		select {
		case id := <-p.idle:
			p.remove(id)
		default:
			p.logger.Info("container pool stopped")
			return
		}
	}
}

// Acquire hands out an idle container, waiting for one if the pool is empty.
func (p *Pool) Acquire(ctx context.Context) (string, error) {
	select {
	case id := <-p.idle:
		return id, nil
	case <-p.done:
		return "", fmt.Errorf("docker: pool for %s is stopped", p.image)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// refill creates containers until Stop. Sending on the buffered channel
// blocks while the pool is full, so there is no polling.
func (p *Pool) refill() {
	defer p.wg.Done()

	backoff := minBackoff
	for {
		id, err := p.create()
		if err != nil {
			p.logger.Error("creating warm container", slog.String("error", err.Error()), slog.Duration("retryIn", backoff))
			if !p.sleep(backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		select {
		case p.idle <- id:
		case <-p.done:
			p.remove(id)
			return
		}
	}
}

// sleep waits for d and reports false if the pool was stopped meanwhile.
func (p *Pool) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-p.done:
		return false
	}
}

// create starts one locked-down container: no network, read-only root with
// a small noexec /tmp, capped memory, CPU and process count, running as nobody.
func (p *Pool) create() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), createTimeout)
	defer cancel()

	hostConfig := &container.HostConfig{
		NetworkMode: "none",
		Resources: container.Resources{
			Memory:    p.config.MemoryLimit,
			NanoCPUs:  int64(p.config.CPULimit * 1e9),
			PidsLimit: &pidsLimit,
		},
		ReadonlyRootfs: true,
		Tmpfs:          map[string]string{"/tmp": "rw,noexec,nosuid,size=16m"},
	}

	resp, err := p.cli.ContainerCreate(ctx, &container.Config{
		Image:  p.image,
		Cmd:    []string{"sleep", "infinity"},
		User:   "nobody",
		Labels: map[string]string{poolLabel: p.image},
	}, hostConfig, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("docker: creating %s container: %w", p.image, err)
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		p.remove(resp.ID)
		return "", fmt.Errorf("docker: starting %s container: %w", p.image, err)
	}

	return resp.ID, nil
}

// reapStale removes containers carrying this pool's label.
func (p *Pool) reapStale() {
	ctx, cancel := context.WithTimeout(context.Background(), createTimeout)
	defer cancel()

	list, err := p.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", poolLabel+"="+p.image)),
	})
	if err != nil {
		p.logger.Warn("listing stale containers", slog.String("error", err.Error()))
		return
	}
	for _, c := range list {
		p.remove(c.ID)
	}
	if len(list) > 0 {
		p.logger.Info("removed stale containers", slog.Int("count", len(list)))
	}
}

// remove force-removes a container, running or not.
func (p *Pool) remove(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	if err := p.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		p.logger.Error("removing container", slog.String("id", id), slog.String("error", err.Error()))
	}
}
