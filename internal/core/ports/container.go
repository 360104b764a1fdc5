package ports

import (
	"context"
	"io"

	"diarybot/internal/core/domain"
)

// ContainerService defines the operations for running the built bot image.
// This interface allows us to switch between Docker, Podman, or Kubernetes
// without changing the deploy logic.
type ContainerService interface {
	ListContainers(ctx context.Context) ([]domain.Container, error)
	StartContainer(ctx context.Context, image string) (string, error)
	StopContainer(ctx context.Context, id string) error
	GetContainerLogs(ctx context.Context, id string) (io.ReadCloser, error)
}
