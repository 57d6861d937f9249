package media

import (
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"runtime"
	"strings"

	"github.com/pders01/pixa/internal/config"
	"github.com/pders01/pixa/internal/debuglog"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".svg": true, ".bmp": true, ".tif": true, ".tiff": true,
}

type Launcher struct {
	imageViewers  []string
	defaultOpener string
	registry      *ViewerRegistry
	start         func(*exec.Cmd) error
	log           *debuglog.FieldLogger
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewViewerRegistry()
	if err != nil {
		registry = &ViewerRegistry{viewers: map[string]ViewerDefinition{}, goos: runtime.GOOS}
	}

	var viewers config.MediaViewers
	switch runtime.GOOS {
	case "darwin":
		viewers = cfg.Media.Darwin
	case "linux":
		viewers = cfg.Media.Linux
	case "windows":
		viewers = cfg.Media.Windows
	default:
		viewers = cfg.Media.Linux
	}

	l := &Launcher{
		defaultOpener: cfg.Media.DefaultOpener,
		registry:      registry,
		start:         startDetached,
		log:           debuglog.WithFields(map[string]interface{}{"component": "launcher"}),
	}
	for _, v := range viewers.Image {
		if available(v, registry) {
			l.imageViewers = append(l.imageViewers, v)
		}
	}
	if l.defaultOpener == "" {
		l.defaultOpener = defaultOpenerFor(runtime.GOOS)
	}
	return l
}

func defaultOpenerFor(goos string) string {
	switch goos {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return "xdg-open"
	}
}

// available checks the executable a viewer runs, which is not always its name.
func available(name string, r *ViewerRegistry) bool {
	bin := name
	if def, ok := r.Lookup(name); ok && def.Command != "" {
		bin = def.Command
	}
	_, err := exec.LookPath(bin)
	return err == nil
}

// IsImage reports whether target names an image file by its extension.
func IsImage(target string) bool {
	p := target
	if u, err := url.Parse(target); err == nil && u.Scheme != "" {
		p = u.Path
	}
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// viewerFor picks the program for target: the first configured viewer that
// can read it for images, the platform opener for everything else.
func (l *Launcher) viewerFor(target string) string {
	if IsImage(target) {
		for _, v := range l.imageViewers {
			if !isRemote(target) || l.registry.CanOpenRemote(v) {
				return v
			}
		}
	}
	return l.defaultOpener
}

// Open shows a local file or URL without blocking.
func (l *Launcher) Open(target string) error {
	if target == "" {
		return fmt.Errorf("nothing to open")
	}
	viewer := l.viewerFor(target)
	if viewer == "" {
		return fmt.Errorf("no application found to open %s", target)
	}
	cmd := l.registry.Command(viewer, target)
	l.log.Debugf("opening %s with %s", target, viewer)
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", viewer, err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
