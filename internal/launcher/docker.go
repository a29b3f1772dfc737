package launcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fanout/internal/apperrors"
	"fanout/internal/config"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// DockerConfig holds configuration for the container executor.
type DockerConfig struct {
	Image       string
	Network     string   // Network mode (e.g. "none", "host"); empty uses the daemon default
	MemoryMB    int      // Memory limit per container, 0 for unlimited
	Env         []string // KEY=VALUE entries passed to every container
	StopTimeout int      // Seconds to wait before killing an interrupted container
}

// LoadDockerConfigFromEnv loads container settings from environment variables.
func LoadDockerConfigFromEnv(imageRef string) DockerConfig {
	var env []string
	if raw := config.GetEnv("FANOUT_DOCKER_ENV", ""); raw != "" {
		env = strings.Split(raw, ",")
	}
	return DockerConfig{
		Image:       imageRef,
		Network:     config.GetEnv("FANOUT_DOCKER_NETWORK", ""),
		MemoryMB:    config.GetIntEnv("FANOUT_DOCKER_MEMORY_MB", 0),
		Env:         env,
		StopTimeout: config.GetIntEnv("FANOUT_DOCKER_STOP_TIMEOUT", 10),
	}
}

// DockerExecutor runs each job in a fresh container of a fixed image.
// Containers are removed once their output has been collected.
type DockerExecutor struct {
	client *client.Client
	cfg    DockerConfig
	logger *slog.Logger

	pullOnce sync.Once
	pullErr  error
}

// NewDockerExecutor connects to the Docker daemon described by the environment.
func NewDockerExecutor(cfg DockerConfig) (*DockerExecutor, error) {
	if cfg.Image == "" {
		return nil, apperrors.Validation("image", "image is required")
	}
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, apperrors.Unavailable("docker", fmt.Errorf("failed to create docker client: %w", err))
	}
	return &DockerExecutor{
		client: dockerClient,
		cfg:    cfg,
		logger: slog.With("component", "docker", "image", cfg.Image),
	}, nil
}

// Execute creates and starts a container running command, waits for it to
// exit and demultiplexes its log stream into stdout and stderr.
func (d *DockerExecutor) Execute(ctx context.Context, command string, args []string) (*Output, error) {
	out := &Output{ExitCode: -1}

	containerID, err := d.createContainer(ctx, command, args)
	if err != nil {
		return out, spawnError(ctx, command, err)
	}
	defer d.removeContainer(containerID)

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return out, spawnError(ctx, command, err)
	}

	exitCode, err := d.waitForExit(ctx, containerID)
	if err != nil {
		if ctx.Err() != nil {
			d.stopContainer(containerID)
			return out, apperrors.Interrupted(command, ctx.Err())
		}
		return out, apperrors.Spawn(command, err)
	}
	out.ExitCode = exitCode

	stdout, stderr, err := d.collectLogs(ctx, containerID)
	out.Stdout, out.Stderr = stdout, stderr
	if err != nil {
		return out, apperrors.CaptureIO("collect logs of", command, err)
	}
	return out, nil
}

// spawnError classifies a failure to get a container running. Once ctx is
// done the failure is an interruption, not a spawn failure.
func spawnError(ctx context.Context, command string, err error) error {
	if ctx.Err() != nil {
		return apperrors.Interrupted(command, ctx.Err())
	}
	return apperrors.Spawn(command, err)
}

func (d *DockerExecutor) createContainer(ctx context.Context, command string, args []string) (string, error) {
	containerConfig := &container.Config{
		Image: d.cfg.Image,
		Cmd:   append([]string{command}, args...),
		Env:   d.cfg.Env,
		Labels: map[string]string{
			"managed-by": "fanout",
		},
	}

	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			Memory: int64(d.cfg.MemoryMB) * 1024 * 1024,
		},
	}
	if d.cfg.Network != "" {
		hostConfig.NetworkMode = container.NetworkMode(d.cfg.Network)
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (d *DockerExecutor) waitForExit(ctx context.Context, containerID string) (int, error) {
	statusCh, errCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	case err := <-errCh:
		return -1, err
	case status := <-statusCh:
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("%s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	}
}

func (d *DockerExecutor) collectLogs(ctx context.Context, containerID string) ([]byte, []byte, error) {
	logs, err := d.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, nil, err
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return stdout.Bytes(), stderr.Bytes(), err
	}
	return stdout.Bytes(), stderr.Bytes(), nil
}

// stopContainer and removeContainer run detached from the job context,
// which is usually already cancelled when they are needed.
func (d *DockerExecutor) stopContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(d.cfg.StopTimeout+5)*time.Second)
	defer cancel()
	timeout := d.cfg.StopTimeout
	if err := d.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeout}); err != nil {
		d.logger.Debug("Failed to stop container", "containerId", containerID, "error", err)
	}
}

func (d *DockerExecutor) removeContainer(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		d.logger.Warn("Failed to remove container", "containerId", containerID, "error", err)
	}
}

// Preflight verifies the daemon is reachable and the image is present,
// pulling it once if needed.
func (d *DockerExecutor) Preflight(ctx context.Context, _ string) error {
	if err := d.Ready(ctx); err != nil {
		return apperrors.Unavailable("docker", err)
	}
	d.pullOnce.Do(func() {
		d.pullErr = d.pullImageIfNeeded(ctx)
	})
	if d.pullErr != nil {
		return apperrors.Unavailable("docker", fmt.Errorf("image %s: %w", d.cfg.Image, d.pullErr))
	}
	return nil
}

func (d *DockerExecutor) pullImageIfNeeded(ctx context.Context) error {
	if _, err := d.client.ImageInspect(ctx, d.cfg.Image); err == nil {
		return nil
	}

	d.logger.Info("Pulling image")
	reader, err := d.client.ImagePull(ctx, d.cfg.Image, image.PullOptions{})
	if err != nil {
		return err
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

// Ready checks if the Docker daemon is reachable and responsive.
func (d *DockerExecutor) Ready(ctx context.Context) error {
	_, err := d.client.Ping(ctx)
	return err
}

func (d *DockerExecutor) Name() string { return "docker" }

// Close releases the Docker client.
func (d *DockerExecutor) Close() error {
	return d.client.Close()
}

var _ Executor = (*DockerExecutor)(nil)
