package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diarybot/internal/core/domain"
)

func TestRenderDockerfileDefaultRecipe(t *testing.T) {
	out, err := RenderDockerfile(domain.DefaultRecipe())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "FROM python:3.11-slim\n"))
	assert.Contains(t, out, "WORKDIR /app")
	assert.Contains(t, out, "apt-get install -y --no-install-recommends tzdata")
	assert.Contains(t, out, "rm -rf /var/lib/apt/lists/*")
	assert.Contains(t, out, "COPY requirements.txt .")
	assert.Contains(t, out, "pip install --no-cache-dir -r requirements.txt")
	assert.Contains(t, out, "COPY app/ .")
	assert.Contains(t, out, `CMD ["python", "diary_bot_v2.py"]`)
}

func TestRenderDockerfileStepOrder(t *testing.T) {
	out, err := RenderDockerfile(domain.DefaultRecipe())
	require.NoError(t, err)

	// The manifest install layer must come before the application copy, so
	// code-only changes do not invalidate the dependency layer.
	install := strings.Index(out, "pip install")
	appCopy := strings.Index(out, "COPY app/")
	require.Greater(t, install, 0)
	require.Greater(t, appCopy, 0)
	assert.Less(t, install, appCopy)
}

func TestRenderDockerfileValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.BuildRecipe)
		errMsg string
	}{
		{"missing base", func(r *domain.BuildRecipe) { r.BaseImage = "" }, "base image is required"},
		{"latest tag", func(r *domain.BuildRecipe) { r.BaseImage = "python:latest" }, "pinned"},
		{"untagged", func(r *domain.BuildRecipe) { r.BaseImage = "python" }, "pinned"},
		{"missing entrypoint", func(r *domain.BuildRecipe) { r.Entrypoint = nil }, "entrypoint is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := domain.DefaultRecipe()
			tt.mutate(&r)
			_, err := RenderDockerfile(r)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRenderDockerfileOptionalSteps(t *testing.T) {
	r := domain.BuildRecipe{
		BaseImage:  "python:3.12-slim",
		Entrypoint: []string{"python", "main.py"},
	}
	out, err := RenderDockerfile(r)
	require.NoError(t, err)

	assert.NotContains(t, out, "apt-get")
	assert.NotContains(t, out, "pip install")
	assert.Contains(t, out, "WORKDIR /app")
	assert.Contains(t, out, "COPY . .")
	assert.True(t, strings.HasSuffix(out, `CMD ["python", "main.py"]`+"\n"))
}
