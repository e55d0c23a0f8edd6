// Package plugin is the boundary between a host test runner and tso. The
// host hands over its suite tree before running it and reports every
// finished test; the plugin reorders or subsets the tree and relays the
// results. Failures in either direction degrade to a plain test run.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"tso/internal/config"
	"tso/internal/domain"
	"tso/internal/logging"
	"tso/internal/options"
	"tso/internal/protect"
	"tso/internal/storage"
	"tso/internal/tree"
	"tso/internal/uploader"
)

// API is the part of the remote service the plugin drives
type API interface {
	Start(ctx context.Context) error
	Reorder(ctx context.Context, test *tree.OrderTree) (*tree.OrderTree, error)
	Upload(ctx context.Context, events []*domain.CaseEvent) error
	Finish(ctx context.Context) error
	SessionPath() string
}

// Selector computes subsets through the external tool
type Selector interface {
	SubsetWithOptions(ctx context.Context, names []string, opts options.Options) ([]string, error)
}

// Mode is what Prepare does to the tree
type Mode int

const (
	ModeNone Mode = iota
	ModeReorder
	ModeSubset
)

func (m Mode) String() string {
	switch m {
	case ModeReorder:
		return "reorder"
	case ModeSubset:
		return "subset"
	default:
		return "none"
	}
}

// Settings select the plugin's behavior
type Settings struct {
	Reorder bool
	Subset  bool
	Target  string // Percentage without the % sign
	Options string // Raw option string for the subset tool
	Score   bool   // Order the subset by the tool's ranking instead of keeping tree order
	Strict  bool   // Return failures instead of logging them
}

// SettingsFromConfig reads the selection flags and the error policy
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Reorder: cfg.Flags.Reorder,
		Subset:  cfg.Flags.Subset,
		Target:  cfg.Flags.Target,
		Options: cfg.Flags.Options,
		Score:   cfg.Flags.Score,
		Strict:  cfg.ReportError,
	}
}

// Deps are the collaborators of a Plugin. API and NewSelector may be nil
// when the plugin only records locally.
type Deps struct {
	API         API
	NewSelector func(session string) Selector
	Journal     *storage.Recorder
	Storage     storage.Storage // Where Finalize writes the journal
	Sinks       []uploader.Sink // Extra sinks next to the API and the journal
	Batcher     uploader.Options
	Log         *logging.Logger
	Out         io.Writer // User-facing progress messages
	SkipError   func(error) bool
}

// Plugin ties selection and reporting together for one run
type Plugin struct {
	settings Settings
	deps     Deps
	mode     Mode
	log      *logging.Logger

	online  atomic.Bool // session started, uploads go to the API
	batcher *uploader.Batcher
}

// New validates the settings. A plugin with conflicting or incomplete
// settings is disabled with a warning: it still records results locally
// but never contacts the service.
func New(s Settings, deps Deps) *Plugin {
	p := &Plugin{settings: s, deps: deps, log: deps.Log}
	p.mode = p.resolveMode()

	sinks := []uploader.Sink{uploader.SinkFunc(p.uploadToAPI)}
	if deps.Journal != nil {
		sinks = append(sinks, deps.Journal)
	}
	sinks = append(sinks, deps.Sinks...)
	opts := deps.Batcher
	if opts.Log == nil {
		opts.Log = deps.Log
	}
	p.batcher = uploader.New(uploader.Tee(sinks...), opts)
	return p
}

func (p *Plugin) resolveMode() Mode {
	s := p.settings
	if s.Reorder == s.Subset {
		p.log.Warnf("specify either --reorder or --subset to enable test selection")
		return ModeNone
	}
	if p.deps.API == nil {
		p.log.Warnf("test selection needs the API settings; running without it")
		return ModeNone
	}
	if s.Subset {
		if s.Target == "" && s.Options == "" {
			p.log.Warnf("specify --target or --options to run a subset")
			return ModeNone
		}
		if p.deps.NewSelector == nil {
			p.log.Warnf("no subset tool configured")
			return ModeNone
		}
		return ModeSubset
	}
	return ModeReorder
}

// Mode returns the selection the plugin applies
func (p *Plugin) Mode() Mode {
	return p.mode
}

// Enabled reports whether the plugin talks to the service
func (p *Plugin) Enabled() bool {
	return p.mode != ModeNone
}

// Online reports whether results are being uploaded
func (p *Plugin) Online() bool {
	return p.online.Load()
}

// Begin starts the test session and the batcher
func (p *Plugin) Begin(ctx context.Context) error {
	defer p.batcher.Start()
	if !p.Enabled() {
		return nil
	}

	return protect.Guard(p.log, p.settings.Strict, "begin", func() error {
		if err := p.deps.API.Start(ctx); err != nil {
			return err
		}
		p.online.Store(true)
		if p.deps.Journal != nil {
			p.deps.Journal.SetSession(p.deps.API.SessionPath())
		}
		return nil
	})
}

// Prepare reorders or subsets root in place. On failure root is left as it
// was, so the host runs its tests in their original order.
func (p *Plugin) Prepare(ctx context.Context, root *tree.Node) error {
	if !p.Enabled() || !p.Online() {
		return nil
	}
	if tree.IsEmpty(root) {
		p.log.Debugf("no test cases, skipping %s", p.mode)
		return nil
	}

	return protect.Guard(p.log, p.settings.Strict, p.mode.String(), func() error {
		p.print("Getting optimized test execution order...\n")
		var err error
		switch p.mode {
		case ModeReorder:
			err = p.reorder(ctx, root)
		case ModeSubset:
			err = p.subset(ctx, root)
		}
		if err != nil {
			return err
		}
		p.print("Test execution optimized \U0001f680\n")
		return nil
	})
}

func (p *Plugin) reorder(ctx context.Context, root *tree.Node) error {
	order, err := p.deps.API.Reorder(ctx, tree.Encode(root))
	if err != nil {
		return err
	}
	return tree.Reorder(root, order)
}

func (p *Plugin) subset(ctx context.Context, root *tree.Node) error {
	opts, err := p.subsetOptions()
	if err != nil {
		return err
	}

	selector := p.deps.NewSelector(p.deps.API.SessionPath())
	selected, err := selector.SubsetWithOptions(ctx, tree.ListNames(root), opts)
	if err != nil {
		return err
	}
	p.log.Debugf("subset: %s", strings.Join(selected, ", "))

	if p.settings.Score {
		tree.ScoreSubset(root, tree.Ranks(selected))
		return nil
	}
	tree.Subset(root, tree.NewNameSet(selected...))
	return nil
}

func (p *Plugin) subsetOptions() (options.Options, error) {
	if p.settings.Options != "" {
		return options.Parse(p.settings.Options)
	}
	target := strings.TrimSuffix(p.settings.Target, "%")
	return options.Options{{Flag: options.TargetFlag, Value: target + "%"}}, nil
}

// Record hands a finished test's event to the batcher
func (p *Plugin) Record(ev *domain.CaseEvent) {
	p.batcher.Enqueue(ev)
}

// StartTest begins timing one test case
func (p *Plugin) StartTest() *Recorder {
	return &Recorder{plugin: p, start: time.Now()}
}

// Finalize drains the batcher, closes the session and writes the journal
// to Storage. It returns the journal of the run when one is kept.
func (p *Plugin) Finalize(ctx context.Context) (*domain.Journal, error) {
	p.batcher.Shutdown()

	var err error
	if p.Online() {
		err = protect.Guard(p.log, p.settings.Strict, "finish", func() error {
			return p.deps.API.Finish(ctx)
		})
	}

	if p.deps.Journal == nil {
		return nil, err
	}
	j := p.deps.Journal.Finish()
	if p.deps.Storage != nil {
		if serr := p.deps.Storage.Save(j); serr != nil {
			err = errors.Join(err, fmt.Errorf("failed to save journal: %w", serr))
		}
	}
	return j, err
}

func (p *Plugin) uploadToAPI(ctx context.Context, events []*domain.CaseEvent) error {
	if !p.Online() {
		return nil
	}
	return p.deps.API.Upload(ctx, events)
}

func (p *Plugin) print(msg string) {
	if p.deps.Out != nil {
		fmt.Fprint(p.deps.Out, msg)
	}
}

// Recorder turns the outcome of one test case into an event
type Recorder struct {
	plugin *Plugin
	start  time.Time
	done   atomic.Bool
}

// Pass records a passed test case
func (r *Recorder) Pass(path domain.TestPath, stdout, stderr string) {
	r.record(path, domain.StatusPassed, stdout, stderr)
}

// Fail records a failed test case
func (r *Recorder) Fail(path domain.TestPath, stdout, stderr string) {
	r.record(path, domain.StatusFailed, stdout, stderr)
}

// Error records a test case that raised err, unless the host's SkipError
// says errors of that kind are not test failures.
func (r *Recorder) Error(path domain.TestPath, err error, stdout, stderr string) {
	if skip := r.plugin.deps.SkipError; skip != nil && skip(err) {
		r.plugin.log.Debugf("not recording %s: %v", path, err)
		return
	}
	if err != nil {
		stderr = joinOutput(stderr, err.Error())
	}
	r.record(path, domain.StatusFailed, stdout, stderr)
}

func (r *Recorder) record(path domain.TestPath, status domain.Status, stdout, stderr string) {
	if !r.done.CompareAndSwap(false, true) {
		r.plugin.log.Warnf("result for %s already recorded", path)
		return
	}
	ev := domain.NewCaseEvent(path, time.Since(r.start), status, stdout, stderr)
	r.plugin.Record(ev)
}

func joinOutput(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n" + b
}

// ErrSkip marks errors a host does not want recorded as failures. Hosts
// wrap load-time errors with it and pass SkipMarked as Deps.SkipError.
var ErrSkip = errors.New("not a test failure")

// SkipMarked is a SkipError predicate matching errors wrapping ErrSkip
func SkipMarked(err error) bool {
	return errors.Is(err, ErrSkip)
}
