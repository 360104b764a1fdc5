package ports

import (
	"context"

	"diarybot/internal/core/domain"
)

// BuilderService defines operations for producing and inspecting the bot's
// deployment image.
type BuilderService interface {
	// BuildImage renders the recipe into a Dockerfile, assembles the build
	// context from the source and builds the image. Any failing step aborts
	// the build; no partial image is tagged.
	BuildImage(ctx context.Context, src domain.BuildSource, recipe domain.BuildRecipe, imageName string) (string, error)

	// LayerDigests reports the RootFS layer digests of a built image, used
	// to verify that dependency layers are reused across rebuilds.
	LayerDigests(ctx context.Context, imageName string) ([]string, error)

	// ExportImage writes the image to a docker-save tarball on disk.
	ExportImage(ctx context.Context, imageName, destPath string) error
}
