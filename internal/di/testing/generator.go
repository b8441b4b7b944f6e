package ditesting

import (
	"io/fs"

	"github.com/goliatone/go-mdsite/internal/di"
	"github.com/goliatone/go-mdsite/internal/generator"
	"github.com/goliatone/go-mdsite/internal/runtimeconfig"
)

// NewGeneratorContainer builds a container that reads pages and templates
// from the supplied filesystems and keeps generated artifacts in memory. The
// returned function lists the artifacts by output path.
func NewGeneratorContainer(cfg runtimeconfig.Config, content, templates fs.FS, opts ...di.Option) (*di.Container, func() map[string]string, error) {
	memory, files := generator.WithMemoryOutput()
	options := []di.Option{
		di.WithContentFS(content),
		di.WithTemplatesFS(templates),
		di.WithGeneratorOptions(memory),
	}
	options = append(options, opts...)

	container, err := di.NewContainer(cfg, options...)
	if err != nil {
		return nil, nil, err
	}
	return container, files, nil
}
