package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed viewers.toml
var viewersTOML []byte

// ViewerDefinition describes how an image viewer is invoked.
type ViewerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	// Command overrides the executable; the viewer name is used when empty.
	Command string   `toml:"command,omitempty"`
	Args    []string `toml:"args,omitempty"`
	Remote  bool     `toml:"remote"`
}

type viewersFile struct {
	Viewers map[string]ViewerDefinition `toml:"viewers"`
}

// ViewerRegistry manages viewer definitions
type ViewerRegistry struct {
	viewers map[string]ViewerDefinition
	goos    string
}

// NewViewerRegistry loads the embedded definitions and merges
// ~/.config/pixa/viewers.toml over them.
func NewViewerRegistry() (*ViewerRegistry, error) {
	r, err := parseViewers(viewersTOML)
	if err != nil {
		return nil, err
	}
	if home, err := os.UserHomeDir(); err == nil {
		r.merge(filepath.Join(home, ".config", "pixa", "viewers.toml"))
	}
	return r, nil
}

func parseViewers(data []byte) (*ViewerRegistry, error) {
	var f viewersFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}
	if f.Viewers == nil {
		f.Viewers = map[string]ViewerDefinition{}
	}
	return &ViewerRegistry{viewers: f.Viewers, goos: runtime.GOOS}, nil
}

func (r *ViewerRegistry) merge(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	user, err := parseViewers(data)
	if err != nil {
		return
	}
	for name, def := range user.viewers {
		r.viewers[name] = def
	}
}

// Lookup returns the definition for name on the current platform.
func (r *ViewerRegistry) Lookup(name string) (ViewerDefinition, bool) {
	def, ok := r.viewers[name]
	if !ok {
		return ViewerDefinition{}, false
	}
	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, r.goos) {
		return ViewerDefinition{}, false
	}
	return def, true
}

// CanOpenRemote reports whether the viewer takes URLs. Unknown viewers are
// assumed to handle local files only.
func (r *ViewerRegistry) CanOpenRemote(name string) bool {
	def, ok := r.Lookup(name)
	return ok && def.Remote
}

// Command builds the command that shows target in the named viewer.
func (r *ViewerRegistry) Command(name, target string) *exec.Cmd {
	def, ok := r.Lookup(name)
	if !ok {
		return exec.Command(name, target)
	}
	bin := def.Command
	if bin == "" {
		bin = name
	}
	args := append(slices.Clone(def.Args), target)
	return exec.Command(bin, args...)
}
