package cmd

import (
	"path/filepath"

	"github.com/Aman-CERP/termwiki/internal/config"
	"github.com/Aman-CERP/termwiki/internal/corpus"
	"github.com/Aman-CERP/termwiki/internal/index"
	"github.com/Aman-CERP/termwiki/internal/resolve"
)

// project is a loaded configuration and the document tree it selects.
type project struct {
	root   string
	cfg    *config.Config
	corpus *corpus.Dir
}

// projectRoot returns --dir when set, else the nearest enclosing project.
func projectRoot() (string, error) {
	if projectDir != "" {
		return filepath.Abs(projectDir)
	}
	return config.FindProjectRoot(".")
}

// loadConfig loads --config when set, else the layered project config.
func loadConfig(root string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load(root)
}

func loadProject() (*project, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.CorpusOptions(root)
	if err != nil {
		return nil, err
	}
	dir, err := corpus.Open(opts)
	if err != nil {
		return nil, err
	}
	return &project{root: root, cfg: cfg, corpus: dir}, nil
}

// engine is the in-memory index plus the resolver reading it.
type engine struct {
	store       *index.Store
	coordinator *index.Coordinator
	resolver    *resolve.Resolver
}

// engineOptions carries the optional collaborators of an engine.
type engineOptions struct {
	observer index.Observer
	notifier index.Notifier
	recorder resolve.Recorder
}

func (p *project) newEngine(opts engineOptions) *engine {
	storeOpts := []index.StoreOption{index.WithParseWorkers(p.cfg.Index.ParseWorkers)}
	if opts.observer != nil {
		storeOpts = append(storeOpts, index.WithObserver(opts.observer))
	}
	store := index.NewStore(storeOpts...)

	coordinator := index.NewCoordinator(index.CoordinatorConfig{
		Store:    store,
		Source:   p.corpus,
		Notifier: opts.notifier,
		Accept:   p.corpus.Matches,
	})

	resolverOpts := []resolve.Option{resolve.WithCacheSize(p.cfg.Resolve.CacheSize)}
	if opts.recorder != nil {
		resolverOpts = append(resolverOpts, resolve.WithRecorder(opts.recorder))
	}

	return &engine{
		store:       store,
		coordinator: coordinator,
		resolver:    resolve.NewResolver(coordinator, resolverOpts...),
	}
}
