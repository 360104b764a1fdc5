package builder

import (
	"fmt"
	"strings"

	"diarybot/internal/core/domain"
)

// RenderDockerfile turns a recipe into Dockerfile text. The step order is
// load-bearing: the manifest is copied and installed before the application
// directory, so rebuilds with unchanged dependencies reuse the install layer.
func RenderDockerfile(r domain.BuildRecipe) (string, error) {
	if r.BaseImage == "" {
		return "", fmt.Errorf("recipe base image is required")
	}
	if strings.HasSuffix(r.BaseImage, ":latest") || !strings.Contains(r.BaseImage, ":") {
		return "", fmt.Errorf("recipe base image must be pinned to a version tag, got %q", r.BaseImage)
	}
	if len(r.Entrypoint) == 0 {
		return "", fmt.Errorf("recipe entrypoint is required")
	}
	workdir := r.WorkDir
	if workdir == "" {
		workdir = "/app"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n\n", r.BaseImage)
	fmt.Fprintf(&b, "WORKDIR %s\n\n", workdir)

	if len(r.OSPackages) > 0 {
		// Non-interactive install, index caches removed to keep the layer small.
		fmt.Fprintf(&b, "RUN apt-get update \\\n"+
			"    && apt-get install -y --no-install-recommends %s \\\n"+
			"    && rm -rf /var/lib/apt/lists/*\n\n",
			strings.Join(r.OSPackages, " "))
	}

	if r.Manifest != "" {
		fmt.Fprintf(&b, "COPY %s .\n", r.Manifest)
		fmt.Fprintf(&b, "RUN pip install --no-cache-dir -r %s\n\n", r.Manifest)
	}

	appDir := strings.TrimSuffix(r.AppDir, "/")
	if appDir == "" || appDir == "." {
		fmt.Fprintf(&b, "COPY . .\n\n")
	} else {
		fmt.Fprintf(&b, "COPY %s/ .\n\n", appDir)
	}

	quoted := make([]string, len(r.Entrypoint))
	for i, arg := range r.Entrypoint {
		quoted[i] = fmt.Sprintf("%q", arg)
	}
	fmt.Fprintf(&b, "CMD [%s]\n", strings.Join(quoted, ", "))

	return b.String(), nil
}
