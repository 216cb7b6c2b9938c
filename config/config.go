package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/modware/mod-runtime/alloc"
	"github.com/modware/mod-runtime/errors"
)

// Config is the decoded loader configuration.
type Config struct {
	Loader  Loader
	Modules []Module
}

// Loader configures the arena and module discovery.
type Loader struct {
	// SearchPaths are the directories scanned for module images.
	SearchPaths []string `hcl:"search_paths,optional"`
	// ArenaSize is the arena's byte size. Zero means the default.
	ArenaSize uint32 `hcl:"arena_size,optional"`
	// Strict makes any module load failure fatal, required or not.
	Strict bool `hcl:"strict,optional"`
}

// Module is one module the host loads at startup.
type Module struct {
	Name string `hcl:"name,label"`
	// Path is the image file, absolute or relative to a search path.
	Path string `hcl:"path"`
	// Required makes this module's load failure fatal.
	Required bool `hcl:"required,optional"`
}

type fileRoot struct {
	Loader  *Loader   `hcl:"loader,block"`
	Modules []*Module `hcl:"module,block"`
}

// evalContext provides the size variables usable in config expressions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"kb": cty.NumberIntVal(1 << 10),
			"mb": cty.NumberIntVal(1 << 20),
		},
	}
}

// Load reads and decodes one HCL configuration file.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, diags,
			fmt.Sprintf("failed to parse %s", path))
	}
	return decode(file, path)
}

// LoadBytes decodes HCL configuration from memory. filename is used in
// diagnostics only.
func LoadBytes(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, diags,
			fmt.Sprintf("failed to parse %s", filename))
	}
	return decode(file, filename)
}

func decode(file *hcl.File, name string) (*Config, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &root); diags.HasErrors() {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, diags,
			fmt.Sprintf("failed to decode %s", name))
	}

	cfg := &Config{}
	if root.Loader != nil {
		cfg.Loader = *root.Loader
	}
	if cfg.Loader.ArenaSize == 0 {
		cfg.Loader.ArenaSize = alloc.DefaultArenaSize
	}
	if len(cfg.Loader.SearchPaths) == 0 {
		cfg.Loader.SearchPaths = []string{"."}
	}

	seen := make(map[string]struct{}, len(root.Modules))
	for _, m := range root.Modules {
		if m.Name == "" {
			return nil, errors.InvalidInput(errors.PhaseConfig, "module block with empty name")
		}
		if m.Path == "" {
			return nil, errors.InvalidInput(errors.PhaseConfig,
				fmt.Sprintf("module %q has no path", m.Name))
		}
		if _, dup := seen[m.Name]; dup {
			return nil, errors.InvalidInput(errors.PhaseConfig,
				fmt.Sprintf("module %q declared twice", m.Name))
		}
		seen[m.Name] = struct{}{}
		cfg.Modules = append(cfg.Modules, *m)
	}
	return cfg, nil
}
