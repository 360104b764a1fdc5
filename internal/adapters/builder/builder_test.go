package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"diarybot/internal/core/domain"
)

func TestResolveContextCopiesLocalDir(t *testing.T) {
	a := &Adapter{log: zap.NewNop()}

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "app"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "app", "diary_bot_v2.py"), []byte("print()\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "requirements.txt"), []byte("requests\n"), 0o644))

	dir, cleanup, err := a.resolveContext(context.Background(), domain.BuildSource{ContextDir: src})
	require.NoError(t, err)

	assert.NotEqual(t, src, dir, "build must run from a copy, not the caller's directory")
	assert.FileExists(t, filepath.Join(dir, "app", "diary_bot_v2.py"))
	assert.FileExists(t, filepath.Join(dir, "requirements.txt"))

	cleanup()
	assert.NoDirExists(t, dir)
}

func TestLocalContextDockerfileSurvivesBuildPrep(t *testing.T) {
	a := &Adapter{log: zap.NewNop()}

	src := t.TempDir()
	original := []byte("FROM original:1.0\n")
	require.NoError(t, os.WriteFile(filepath.Join(src, "Dockerfile"), original, 0o644))

	dir, cleanup, err := a.resolveContext(context.Background(), domain.BuildSource{ContextDir: src})
	require.NoError(t, err)
	defer cleanup()

	// The build writes its rendered Dockerfile over the copy, the way
	// BuildImage does before tarring the context.
	rendered, err := RenderDockerfile(domain.DefaultRecipe())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(rendered), 0o644))

	got, err := os.ReadFile(filepath.Join(src, "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, original, got, "the caller's Dockerfile must not be touched")
}

func TestResolveContextRejectsMissingDir(t *testing.T) {
	a := &Adapter{log: zap.NewNop()}

	_, _, err := a.resolveContext(context.Background(), domain.BuildSource{})
	require.Error(t, err)

	_, _, err = a.resolveContext(context.Background(), domain.BuildSource{ContextDir: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
