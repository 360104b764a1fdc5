package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"diarybot/internal/core/domain"
)

type stubBuilder struct {
	builtImage string
	lastRecipe domain.BuildRecipe
	lastSrc    domain.BuildSource
	buildErr   error
	layers     []string
}

func (s *stubBuilder) BuildImage(_ context.Context, src domain.BuildSource, recipe domain.BuildRecipe, imageName string) (string, error) {
	s.lastSrc = src
	s.lastRecipe = recipe
	s.builtImage = imageName
	if s.buildErr != nil {
		return "", s.buildErr
	}
	return imageName, nil
}

func (s *stubBuilder) LayerDigests(context.Context, string) ([]string, error) {
	return s.layers, nil
}

func (s *stubBuilder) ExportImage(context.Context, string, string) error { return nil }

type stubContainers struct {
	containers []domain.Container
	startedID  string
	stoppedID  string
}

func (s *stubContainers) ListContainers(context.Context) ([]domain.Container, error) {
	return s.containers, nil
}

func (s *stubContainers) StartContainer(context.Context, string) (string, error) {
	return s.startedID, nil
}

func (s *stubContainers) StopContainer(_ context.Context, id string) error {
	s.stoppedID = id
	return nil
}

func (s *stubContainers) GetContainerLogs(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("log line\n")), nil
}

func newTestApp(builder *stubBuilder, containers *stubContainers) *fiber.App {
	app := fiber.New()
	h := NewDeployHandler(containers, builder, domain.DefaultRecipe(), zap.NewNop())
	h.Router(app)
	return app
}

func TestHealth(t *testing.T) {
	app := newTestApp(&stubBuilder{}, &stubContainers{})
	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBuildImage(t *testing.T) {
	builder := &stubBuilder{}
	app := newTestApp(builder, &stubContainers{})

	body := bytes.NewBufferString(`{"repo_url": "https://example.com/diary.git", "image": "diarybot:test"}`)
	req := httptest.NewRequest("POST", "/api/v1/images/build", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "diarybot:test", out["image"])
	assert.NotEmpty(t, out["build_id"])

	assert.Equal(t, "https://example.com/diary.git", builder.lastSrc.RepoURL)
	assert.Equal(t, "python:3.11-slim", builder.lastRecipe.BaseImage, "configured recipe is the default")
}

func TestBuildImageRequiresSource(t *testing.T) {
	app := newTestApp(&stubBuilder{}, &stubContainers{})

	req := httptest.NewRequest("POST", "/api/v1/images/build", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestBuildImageRecipeOverride(t *testing.T) {
	builder := &stubBuilder{}
	app := newTestApp(builder, &stubContainers{})

	body := bytes.NewBufferString(`{"context_dir": ".", "recipe": {"base_image": "python:3.12-slim", "entrypoint": ["python", "main.py"]}}`)
	req := httptest.NewRequest("POST", "/api/v1/images/build", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "python:3.12-slim", builder.lastRecipe.BaseImage)
}

func TestBuildFailureIsReported(t *testing.T) {
	builder := &stubBuilder{buildErr: errors.New("pip install exploded")}
	app := newTestApp(builder, &stubContainers{})

	body := bytes.NewBufferString(`{"context_dir": "."}`)
	req := httptest.NewRequest("POST", "/api/v1/images/build", body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out["error"], "pip install exploded")
}

func TestImageLayers(t *testing.T) {
	builder := &stubBuilder{layers: []string{"sha256:aaa", "sha256:bbb"}}
	app := newTestApp(builder, &stubContainers{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/images/diarybot:test/layers", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out struct {
		Image  string   `json:"image"`
		Layers []string `json:"layers"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{"sha256:aaa", "sha256:bbb"}, out.Layers)
}

func TestContainerLifecycle(t *testing.T) {
	containers := &stubContainers{
		containers: []domain.Container{{ID: "abc123", Image: "diarybot:test", Status: "running"}},
		startedID:  "abc123",
	}
	app := newTestApp(&stubBuilder{}, containers)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/containers/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := bytes.NewBufferString(`{"image": "diarybot:test"}`)
	req := httptest.NewRequest("POST", "/api/v1/containers/", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/containers/abc123", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc123", containers.stoppedID)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/v1/containers/abc123/logs", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	logs, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "log line\n", string(logs))
}
