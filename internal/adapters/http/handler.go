// Package http exposes the deploy surface: building the bot image and
// managing its containers.
package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"diarybot/internal/core/domain"
	"diarybot/internal/core/ports"
)

type DeployHandler struct {
	containers ports.ContainerService
	builder    ports.BuilderService
	recipe     domain.BuildRecipe
	log        *zap.Logger
}

func NewDeployHandler(containers ports.ContainerService, builder ports.BuilderService, recipe domain.BuildRecipe, log *zap.Logger) *DeployHandler {
	return &DeployHandler{containers: containers, builder: builder, recipe: recipe, log: log}
}

func (h *DeployHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *DeployHandler) ListContainers(c *fiber.Ctx) error {
	containers, err := h.containers.ListContainers(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(containers)
}

type BuildRequest struct {
	RepoURL    string              `json:"repo_url"`
	ContextDir string              `json:"context_dir"`
	Image      string              `json:"image"`
	Recipe     *domain.BuildRecipe `json:"recipe"`
}

// BuildImage runs a recipe build. The request recipe overrides the configured
// one; with neither source field set the build is rejected up front.
func (h *DeployHandler) BuildImage(c *fiber.Ctx) error {
	var req BuildRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.RepoURL == "" && req.ContextDir == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "repo_url or context_dir is required"})
	}

	image := req.Image
	if image == "" {
		image = "diarybot:" + uuid.NewString()[:8]
	}
	recipe := h.recipe
	if req.Recipe != nil {
		recipe = *req.Recipe
	}

	buildID := uuid.NewString()
	h.log.Info("build requested", zap.String("build_id", buildID), zap.String("image", image))

	src := domain.BuildSource{RepoURL: req.RepoURL, ContextDir: req.ContextDir}
	built, err := h.builder.BuildImage(c.Context(), src, recipe, image)
	if err != nil {
		h.log.Error("build failed", zap.String("build_id", buildID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "build failed: " + err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"build_id": buildID, "image": built})
}

// ImageLayers reports the RootFS digests of a built image, so dependency
// layer reuse between two builds can be verified by comparison.
func (h *DeployHandler) ImageLayers(c *fiber.Ctx) error {
	image := c.Params("name")
	if image == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image name is required"})
	}
	layers, err := h.builder.LayerDigests(c.Context(), image)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"image": image, "layers": layers})
}

type StartContainerRequest struct {
	Image string `json:"image"`
}

func (h *DeployHandler) StartContainer(c *fiber.Ctx) error {
	var req StartContainerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Image == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "image name is required"})
	}

	containerID, err := h.containers.StartContainer(c.Context(), req.Image)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": containerID, "image": req.Image})
}

func (h *DeployHandler) StopContainer(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "container ID is required"})
	}
	if err := h.containers.StopContainer(c.Context(), id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusOK)
}

func (h *DeployHandler) GetContainerLogs(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "container ID is required"})
	}
	logs, err := h.containers.GetContainerLogs(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set("Content-Type", "text/plain")
	return c.SendStream(logs)
}

// Router mounts all deploy routes on the app.
func (h *DeployHandler) Router(app *fiber.App) {
	app.Get("/healthz", h.Health)

	v1 := app.Group("/api").Group("/v1")

	images := v1.Group("/images")
	images.Post("/build", h.BuildImage)
	images.Get("/:name/layers", h.ImageLayers)

	containers := v1.Group("/containers")
	containers.Get("/", h.ListContainers)
	containers.Post("/", h.StartContainer)
	containers.Delete("/:id", h.StopContainer)
	containers.Get("/:id/logs", h.GetContainerLogs)
}
