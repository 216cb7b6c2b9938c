package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/modware/mod-runtime/alloc"
	"github.com/modware/mod-runtime/config"
	"github.com/modware/mod-runtime/entrywasm"
	"github.com/modware/mod-runtime/loader"
	"github.com/modware/mod-runtime/mod"
	"github.com/modware/mod-runtime/source"
)

func main() {
	var (
		cfgPath     = flag.String("config", "", "Path to HCL configuration file")
		modPath     = flag.String("mod", "", "Module image to load")
		dir         = flag.String("dir", "", "Directory to search for module images")
		list        = flag.Bool("list", false, "List discovered images and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *cfgPath == "" && *modPath == "" && *dir == "" {
		fmt.Fprintln(os.Stderr, "Usage: modload -mod <file.mod> [-i] [-v]")
		fmt.Fprintln(os.Stderr, "       modload -config <loader.hcl> [-i] [-v]")
		fmt.Fprintln(os.Stderr, "       modload -dir <path> -list")
		os.Exit(1)
	}

	if *verbose {
		lg, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer lg.Sync()
		loader.SetLogger(lg)
	}

	cfg, err := buildConfig(*cfgPath, *modPath, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *list {
		err = listImages(cfg)
	} else if *interactive {
		err = runInteractive(cfg)
	} else {
		err = run(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildConfig merges the config file with the -mod and -dir shortcuts.
func buildConfig(cfgPath, modPath, dir string) (*config.Config, error) {
	cfg := &config.Config{Loader: config.Loader{ArenaSize: alloc.DefaultArenaSize}}
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if dir != "" {
		cfg.Loader.SearchPaths = append(cfg.Loader.SearchPaths, dir)
	}
	if modPath != "" {
		cfg.Modules = append(cfg.Modules, config.Module{
			Name:     modPath,
			Path:     modPath,
			Required: true,
		})
	}
	return cfg, nil
}

// listImages prints header facts for every discovered image without loading
// anything.
func listImages(cfg *config.Config) error {
	paths, err := source.Discover(cfg.Loader.SearchPaths)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Println("No module images found.")
		return nil
	}

	for _, path := range paths {
		src, err := source.Open(path)
		if err != nil {
			return err
		}
		data, err := src.Bytes()
		if err != nil {
			return err
		}
		h, err := mod.ParseHeader(data)
		if err != nil {
			fmt.Printf("%-24s invalid: %v\n", src.Name(), err)
			continue
		}
		fmt.Printf("%-24s %3d units total, %3d resident, %3d cold, %2d exports, %2d relocations\n",
			src.Name(), h.TotalUnits, h.ResidentUnits, h.ColdUnits, h.ExportCount, h.RelocCount)
	}
	return nil
}

// newLoader builds the loader the way the configuration asks for.
func newLoader(cfg *config.Config) *loader.Loader {
	return loader.New(&loader.Config{
		Allocator: alloc.NewArena(cfg.Loader.ArenaSize),
		Invoker:   entrywasm.New(),
	})
}

// loadAll loads every configured module. An optional module's failure is
// reported and skipped unless strict mode is on.
func loadAll(ctx context.Context, l *loader.Loader, cfg *config.Config) error {
	for _, mc := range cfg.Modules {
		path, err := source.Find(cfg.Loader.SearchPaths, mc.Path)
		if err == nil {
			var src *source.File
			if src, err = source.Open(path); err == nil {
				_, err = l.Load(ctx, src)
			}
		}
		if err != nil {
			if mc.Required || cfg.Loader.Strict {
				return fmt.Errorf("load %s: %w", mc.Name, err)
			}
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", mc.Name, err)
		}
	}
	return nil
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	l := newLoader(cfg)

	if err := loadAll(ctx, l, cfg); err != nil {
		return err
	}

	modules := l.Modules()
	if len(modules) == 0 {
		fmt.Println("Nothing loaded.")
		return nil
	}

	fmt.Printf("Loaded %d module(s):\n", len(modules))
	for _, m := range modules {
		fp, err := l.QueryFootprint(m)
		if err != nil {
			return err
		}
		fmt.Printf("  %-24s base %#06x  %d units total, %d resident\n",
			m.Name(), m.Base(), fp.TotalUnits, fp.ResidentUnits)
	}

	syms := l.Symbols()
	if len(syms) > 0 {
		fmt.Printf("\nPublished symbols:\n")
		for _, s := range syms {
			kind := "data"
			if s.Flags&mod.SymbolFlagFunction != 0 {
				kind = "func"
			}
			fmt.Printf("  %-8s %s at %#06x (module %d)\n", s.Name, kind, s.Address, s.Owner)
		}
	}

	for _, m := range modules {
		if err := l.Unload(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
