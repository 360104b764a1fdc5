// Package builder produces the bot's deployment image from a declarative
// recipe, either from a shallow git clone or a local build context.
package builder

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/go-git/go-git/v5"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/daemon"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
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

// BuildImage assembles the build context, renders the recipe Dockerfile into
// it and runs the build. Any failing step aborts with an error and no image
// name is reported.
func (a *Adapter) BuildImage(ctx context.Context, src domain.BuildSource, recipe domain.BuildRecipe, imageName string) (string, error) {
	contextDir, cleanup, err := a.resolveContext(ctx, src)
	if err != nil {
		return "", err
	}
	defer cleanup()

	dockerfile, err := RenderDockerfile(recipe)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(contextDir, "Dockerfile"), []byte(dockerfile), 0o644); err != nil {
		return "", fmt.Errorf("failed to write Dockerfile: %w", err)
	}

	// A missing entry-point file is not a build failure: the image still
	// builds, the container fails on run. Worth a warning though.
	if file := recipe.EntrypointFile(); file != "" {
		appDir := filepath.Join(contextDir, recipe.AppDir)
		if _, err := os.Stat(filepath.Join(appDir, file)); err != nil {
			a.log.Warn("entrypoint file not found in build context; container will fail on run",
				zap.String("file", file), zap.String("app_dir", recipe.AppDir))
		}
	}

	buildContext, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create build context: %w", err)
	}
	defer buildContext.Close()

	a.log.Info("building image", zap.String("image", imageName), zap.String("base", recipe.BaseImage))
	resp, err := a.cli.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:       []string{imageName},
		Dockerfile: "Dockerfile",
		Remove:     true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build image: %w", err)
	}
	defer resp.Body.Close()

	// The daemon streams progress as JSON messages; an error message in the
	// stream means the build failed after the request was accepted.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, io.Discard, 0, false, nil); err != nil {
		return "", fmt.Errorf("build failed: %w", err)
	}

	return imageName, nil
}

// resolveContext returns the directory to build from: a fresh shallow clone
// for git sources, a temp copy for local ones. The caller's directory is
// never written to; the rendered Dockerfile only lands in the copy.
func (a *Adapter) resolveContext(ctx context.Context, src domain.BuildSource) (string, func(), error) {
	if src.RepoURL != "" {
		tmpDir, err := os.MkdirTemp("", "diarybot-build-*")
		if err != nil {
			return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		a.log.Info("cloning repository", zap.String("url", src.RepoURL))
		_, err = git.PlainCloneContext(ctx, tmpDir, false, &git.CloneOptions{
			URL:   src.RepoURL,
			Depth: 1,
		})
		if err != nil {
			os.RemoveAll(tmpDir)
			return "", nil, fmt.Errorf("failed to clone repo: %w", err)
		}
		return tmpDir, func() { os.RemoveAll(tmpDir) }, nil
	}

	if src.ContextDir == "" {
		return "", nil, fmt.Errorf("build source requires a repo URL or a context dir")
	}
	info, err := os.Stat(src.ContextDir)
	if err != nil || !info.IsDir() {
		return "", nil, fmt.Errorf("build context %q is not a directory", src.ContextDir)
	}
	tmpDir, err := os.MkdirTemp("", "diarybot-build-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	if err := os.CopyFS(tmpDir, os.DirFS(src.ContextDir)); err != nil {
		os.RemoveAll(tmpDir)
		return "", nil, fmt.Errorf("failed to copy build context: %w", err)
	}
	return tmpDir, func() { os.RemoveAll(tmpDir) }, nil
}

// LayerDigests reports the image's RootFS layer digests. Comparing the
// leading digests of two builds shows whether the dependency layers were
// served from cache.
func (a *Adapter) LayerDigests(ctx context.Context, imageName string) ([]string, error) {
	inspect, _, err := a.cli.ImageInspectWithRaw(ctx, imageName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect image: %w", err)
	}
	return inspect.RootFS.Layers, nil
}

// ExportImage writes the image from the local daemon to a docker-save
// tarball, loadable on another host with docker load.
func (a *Adapter) ExportImage(ctx context.Context, imageName, destPath string) error {
	tag, err := name.NewTag(imageName)
	if err != nil {
		return fmt.Errorf("failed to parse image name: %w", err)
	}
	img, err := daemon.Image(tag, daemon.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to read image from daemon: %w", err)
	}
	if err := tarball.WriteToFile(destPath, tag, img); err != nil {
		return fmt.Errorf("failed to write image tarball: %w", err)
	}
	a.log.Info("image exported", zap.String("image", imageName), zap.String("path", destPath))
	return nil
}
