// Package buildspec offers recommended build settings for known front-end
// frameworks. These are suggestions only; automatic framework detection from
// source is not implemented, so callers rely on user-provided configuration.
package buildspec

// Suggestion is a recommended build configuration for a framework.
type Suggestion struct {
	InstallCommand string `json:"install_command"`
	BuildCommand   string `json:"build_command"`
	StaticDir      string `json:"static_dir"`
}

// Defaults used when a project configures neither commands nor a framework.
const (
	DefaultInstallCommand = "npm install"
	DefaultBuildCommand   = "npm run build"
	DefaultStaticDir      = "dist"
)

var frameworks = map[string]Suggestion{
	"nextjs": {
		InstallCommand: "npm install",
		BuildCommand:   "npm run build",
		StaticDir:      "out",
	},
	"react": {
		InstallCommand: "npm install",
		BuildCommand:   "npm run build",
		StaticDir:      "build",
	},
	"vue": {
		InstallCommand: "npm install",
		BuildCommand:   "npm run build",
		StaticDir:      "dist",
	},
	"vite": {
		InstallCommand: "npm install",
		BuildCommand:   "npm run build",
		StaticDir:      "dist",
	},
	"angular": {
		InstallCommand: "npm install",
		BuildCommand:   "npm run build",
		StaticDir:      "dist",
	},
}

// Suggest returns the recommended configuration for a framework identifier,
// falling back to generic npm defaults for unknown frameworks.
func Suggest(framework string) Suggestion {
	if s, ok := frameworks[framework]; ok {
		return s
	}
	return Suggestion{
		InstallCommand: DefaultInstallCommand,
		BuildCommand:   DefaultBuildCommand,
		StaticDir:      DefaultStaticDir,
	}
}

// Known reports whether the framework identifier has a catalog entry.
func Known(framework string) bool {
	_, ok := frameworks[framework]
	return ok
}
