package web

import (
	"io/fs"
	"os"

	"github.com/lepinkainen/nsite-directory/templates"
)

var (
	// templateOverrideFS points at the developer-provided filesystem (usually the local templates directory).
	templateOverrideFS fs.FS = os.DirFS("templates")
	// templateFallbackFS is the embedded filesystem baked into the binary.
	templateFallbackFS fs.FS = templates.EmbeddedTemplates
)

// SetTemplateOverrideFS switches the filesystem searched before the embedded templates
func SetTemplateOverrideFS(f fs.FS) {
	templateOverrideFS = f
}

// readTemplate returns name from the override filesystem, else from the embedded one
func readTemplate(name string) ([]byte, string, error) {
	if templateOverrideFS != nil {
		if content, err := fs.ReadFile(templateOverrideFS, name); err == nil {
			return content, "override", nil
		}
	}

	content, err := fs.ReadFile(templateFallbackFS, name)
	return content, "embedded", err
}
