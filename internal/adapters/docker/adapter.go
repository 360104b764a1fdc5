// Package docker implements ports.ContainerService for running the built
// diary bot image on a local Docker daemon.
package docker

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	imagetypes "github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"go.uber.org/zap"

	"diarybot/internal/core/domain"
)

type Adapter struct {
	cli *client.Client
	log *zap.Logger
}

func NewAdapter(log *zap.Logger) (*Adapter, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Adapter{cli: cli, log: log}, nil
}

// ListContainers returns the running containers with short IDs.
func (a *Adapter) ListContainers(ctx context.Context) ([]domain.Container, error) {
	containers, err := a.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]domain.Container, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = c.Names[0][1:] // docker prefixes names with a slash
		}
		ip := ""
		if c.NetworkSettings != nil {
			for _, network := range c.NetworkSettings.Networks {
				ip = network.IPAddress
				break
			}
		}
		result = append(result, domain.Container{
			ID:        c.ID[:12],
			Name:      name,
			Image:     c.Image,
			Status:    c.Status,
			State:     c.State,
			IPAddress: ip,
		})
	}
	return result, nil
}

// StartContainer pulls the image when needed, then creates and starts a
// container running it as the single foreground process.
func (a *Adapter) StartContainer(ctx context.Context, image string) (string, error) {
	reader, err := a.cli.ImagePull(ctx, image, imagetypes.PullOptions{})
	if err == nil {
		// Drain so the pull actually completes before create.
		io.Copy(io.Discard, reader)
		reader.Close()
	} else {
		// Locally built images are not pullable; create decides for real.
		a.log.Debug("image pull skipped", zap.String("image", image), zap.Error(err))
	}

	resp, err := a.cli.ContainerCreate(ctx, &container.Config{Image: image}, nil, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}
	if err := a.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start container: %w", err)
	}
	a.log.Info("container started", zap.String("id", resp.ID[:12]), zap.String("image", image))
	return resp.ID, nil
}

func (a *Adapter) StopContainer(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return a.cli.ContainerStop(ctx, id, container.StopOptions{})
}

func (a *Adapter) GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error) {
	return a.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
	})
}
