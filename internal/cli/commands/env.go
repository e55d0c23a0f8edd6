package commands

import (
	"context"
	"fmt"
	"os"

	"tso/internal/archive"
	"tso/internal/cli"
	"tso/internal/client"
	"tso/internal/config"
	"tso/internal/discovery"
	"tso/internal/domain"
	"tso/internal/logging"
	"tso/internal/plugin"
	"tso/internal/storage"
	"tso/internal/subset"
	"tso/internal/tree"
	"tso/internal/ui"
	"tso/internal/uploader"
)

// env holds the dependencies shared by the commands. Most of them depend
// on settings that are only known after flag parsing, so setup fills
// them in from the persistent pre-run hook.
type env struct {
	config *config.Config
	log    *logging.Logger
	ids    tree.IDSource
	parser *discovery.Parser

	scanner   *discovery.Scanner
	filter    *discovery.Filter
	storage   *storage.JSONStorage
	formatter *ui.Formatter
	viewer    *ui.FailureViewer
	cache     *subset.Cache
}

func newEnv(cfg *config.Config) *env {
	return &env{config: cfg, parser: discovery.NewParser()}
}

// setup loads the config file and the environment, applies the flags and
// builds the shared dependencies
func (e *env) setup(flags *cli.Flags) error {
	loaded, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	*e.config = *loaded
	e.config.ApplyFlags(flags.ToConfigFlags())

	e.log = logging.Default(e.config.Debug)
	e.scanner = discovery.NewScanner(e.config.TestPattern, e.config.PathsToIgnore)
	e.filter = discovery.NewFilter(e.config.Exclude...)
	e.storage = storage.NewJSONStorage(e.config)
	e.formatter = ui.NewFormatter(e.config.ProjectPath, e.parser)
	e.viewer = ui.NewFailureViewer(e.storage)

	e.cache, err = subset.NewCache(subset.DefaultCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create subset cache: %w", err)
	}
	return nil
}

// discover scans the test path and builds the suite tree
func (e *env) discover() (*tree.Node, error) {
	root := e.config.GetTestPath()
	files, err := e.scanner.Scan(root)
	if err != nil {
		return nil, err
	}

	files = e.filter.Apply(e.config.ProjectPath, files)
	files = e.filter.FilterByName(files, e.config.Flags.NameFilter)
	e.log.Debugf("discovered %d test file(s) under %s", len(files), root)

	src := discovery.NewSource(e.config.ProjectPath, root, files, e.parser, e.log)
	return tree.Build(&e.ids, src), nil
}

// newPlugin wires the selection plugin. Without complete API settings the
// plugin only records locally.
func (e *env) newPlugin(journal *storage.Recorder, st storage.Storage, sinks ...uploader.Sink) *plugin.Plugin {
	deps := plugin.Deps{
		Journal:   journal,
		Storage:   st,
		Sinks:     sinks,
		Batcher:   uploader.OptionsFromConfig(e.config, e.log),
		Log:       e.log,
		Out:       os.Stderr,
		SkipError: plugin.SkipMarked,
	}

	if err := e.config.Validate(); err != nil {
		e.log.Debugf("not connecting to the service: %v", err)
		return plugin.New(plugin.SettingsFromConfig(e.config), deps)
	}

	api, err := client.New(e.config, e.log)
	if err != nil {
		e.log.Warnf("%v", err)
		return plugin.New(plugin.SettingsFromConfig(e.config), deps)
	}
	deps.API = api
	deps.NewSelector = e.newSelector
	return plugin.New(plugin.SettingsFromConfig(e.config), deps)
}

func (e *env) newSelector(session string) plugin.Selector {
	tool := subset.NewTool(e.config.ToolPath, session, e.log)
	tool.Runner = subset.ExecRunner{Dir: e.config.ProjectPath}
	tool.Cache = e.cache
	return tool
}

// openArchive connects the MySQL archive when one is configured. The
// returned close function is never nil.
func (e *env) openArchive(ctx context.Context, runID string) (uploader.Sink, func(), error) {
	if e.config.ArchiveDSN == "" {
		return nil, func() {}, nil
	}
	db, err := archive.Open(ctx, archive.ResolveDSN(e.config.ArchiveDSN, os.Getenv), runID)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to open archive: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			e.log.Warnf("failed to close archive: %v", err)
		}
	}, nil
}

// mirror returns the S3 journal mirror, or nil when none is configured
func (e *env) mirror() (*storage.S3Mirror, error) {
	if !e.config.S3.Enabled() {
		return nil, nil
	}
	return storage.NewS3Mirror(e.config.S3)
}

// loadJournal reads the journal of runID from the S3 mirror, or the local
// journal when runID is empty
func (e *env) loadJournal(ctx context.Context, runID string) (*domain.Journal, error) {
	if runID == "" {
		return e.storage.Load()
	}
	m, err := e.mirror()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("--run needs an S3 bucket in the report settings")
	}
	return m.Get(ctx, runID)
}
