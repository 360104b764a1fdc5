package domain

// BuildRecipe is the declarative image recipe the deploy pipeline renders into
// a Dockerfile. The zero value is not buildable; see DefaultRecipe.
type BuildRecipe struct {
	// BaseImage must be a pinned tag, never "latest".
	BaseImage string `json:"base_image" koanf:"base_image"`
	WorkDir   string `json:"workdir" koanf:"workdir"`
	// OSPackages are installed non-interactively with the apt index caches
	// removed afterwards.
	OSPackages []string `json:"os_packages" koanf:"os_packages"`
	// Manifest is the dependency manifest inside the build context. It is
	// copied and installed before the application so the dependency layer
	// caches independently of source edits.
	Manifest string `json:"manifest" koanf:"manifest"`
	// AppDir is the application directory copied into the workdir.
	AppDir string `json:"app_dir" koanf:"app_dir"`
	// Entrypoint is the foreground process, exec form, no arguments beyond
	// what is listed here.
	Entrypoint []string `json:"entrypoint" koanf:"entrypoint"`
}

// DefaultRecipe reproduces the bot's own deployment image.
func DefaultRecipe() BuildRecipe {
	return BuildRecipe{
		BaseImage:  "python:3.11-slim",
		WorkDir:    "/app",
		OSPackages: []string{"tzdata"},
		Manifest:   "requirements.txt",
		AppDir:     "app",
		Entrypoint: []string{"python", "diary_bot_v2.py"},
	}
}

// EntrypointFile returns the file the entrypoint runs, or "" when the command
// carries no file argument. A missing file does not fail the build; the
// container fails at run instead.
func (r BuildRecipe) EntrypointFile() string {
	if len(r.Entrypoint) < 2 {
		return ""
	}
	return r.Entrypoint[len(r.Entrypoint)-1]
}

// BuildSource names where the build context comes from: a git repository
// cloned shallowly, or a local directory used as-is.
type BuildSource struct {
	RepoURL    string `json:"repo_url"`
	ContextDir string `json:"context_dir"`
}
