package bond

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/bond/internal/canonical"
	"github.com/roach88/bond/internal/config"
	"github.com/roach88/bond/internal/logging"
	"github.com/roach88/bond/internal/reconcile"
)

// Settings configures a Context. Start loads them from the environment and
// the BOND_CONFIG file; options override individual fields.
type Settings = config.Settings

// LoadSettings resolves settings from defaults, the config file at path (or
// BOND_CONFIG when path is empty) and BOND_* environment variables.
func LoadSettings(path string) (Settings, error) {
	return config.Load(path)
}

// ReconcileMode selects how trace differences are resolved.
type ReconcileMode = reconcile.Mode

const (
	ReconcileAbort   = reconcile.ModeAbort
	ReconcileConsole = reconcile.ModeConsole
	ReconcileAccept  = reconcile.ModeAccept
)

// Outcome reports how Finish resolved the trace.
type Outcome = reconcile.Outcome

// Prompter asks the console-mode review questions.
type Prompter = reconcile.Prompter

// Question is one console-mode review prompt.
type Question = reconcile.Question

// State is the lifecycle state of a Context.
type State int

const (
	// StateRecording accepts spy calls and extends the trace.
	StateRecording State = iota

	// StateReconciling compares the trace with the reference file.
	StateReconciling

	// StateResolved is terminal; the outcome is known.
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateReconciling:
		return "reconciling"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Context is the spy state of one running test: activation, deployed
// agents and the observation trace.
//
// Methods are safe for concurrent use by the goroutines of one test. The
// order of spy calls from different goroutines is not reproducible; tests
// doing that should make their filters and traces order-insensitive.
//
// A nil *Context is valid and inactive.
type Context struct {
	mu       sync.Mutex
	testID   string
	runID    string
	active   bool
	state    State
	registry registry
	trace    []string

	settings Settings
	logger   *slog.Logger
	out      io.Writer
	prompter Prompter

	outcome *Outcome
	err     error
}

// Option configures a Context.
type Option func(*Context)

// WithSettings replaces the loaded settings.
func WithSettings(s Settings) Option {
	return func(c *Context) {
		c.settings = s
	}
}

// WithReconcileMode overrides the reconcile mode.
func WithReconcileMode(mode ReconcileMode) Option {
	return func(c *Context) {
		c.settings.Reconcile = string(mode)
	}
}

// WithObservationDir overrides the directory holding reference files.
func WithObservationDir(dir string) Option {
	return func(c *Context) {
		c.settings.ObservationDir = dir
	}
}

// WithLogger sets the logger. Default: derived from the log_level setting.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// WithOutput sets where reconciliation prints diffs. Default: stdout.
func WithOutput(w io.Writer) Option {
	return func(c *Context) {
		c.out = w
	}
}

// WithPrompter sets the console-mode prompter. Default: the terminal.
func WithPrompter(p Prompter) Option {
	return func(c *Context) {
		c.prompter = p
	}
}

// Start creates an active Context for testID.
//
// Settings come from LoadSettings("") and are then overridden by opts.
func Start(testID string, opts ...Option) (*Context, error) {
	settings, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("load bond settings: %w", err)
	}

	c := &Context{
		testID:   testID,
		runID:    uuid.Must(uuid.NewV7()).String(),
		active:   true,
		state:    StateRecording,
		settings: settings,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.settings.Validate(); err != nil {
		return nil, err
	}
	if c.logger == nil {
		logger, err := logging.FromLevel(c.settings.LogLevel)
		if err != nil {
			return nil, err
		}
		c.logger = logger
	}
	c.logger = c.logger.With("test", testID, "run", c.runID)
	c.logger.Debug("bond context started",
		"reconcile", c.settings.Reconcile,
		"observation_dir", c.settings.ObservationDir,
	)
	return c, nil
}

// TestID returns the test identifier.
func (c *Context) TestID() string {
	if c == nil {
		return ""
	}
	return c.testID
}

// RunID returns a unique identifier for this run of the test, used to
// correlate log records.
func (c *Context) RunID() string {
	if c == nil {
		return ""
	}
	return c.runID
}

// Settings returns the effective settings.
func (c *Context) Settings() Settings {
	if c == nil {
		return config.Defaults()
	}
	return c.settings
}

// ReferencePath returns the location of the test's reference file.
func (c *Context) ReferencePath() string {
	if c == nil {
		return ""
	}
	return reconcile.FilePath(c.settings.ObservationDir, c.testID)
}

// Active reports whether spy calls are recorded.
func (c *Context) Active() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// State returns the lifecycle state.
func (c *Context) State() State {
	if c == nil {
		return StateResolved
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Deploy adds agents. Later agents take precedence over earlier ones.
func (c *Context) Deploy(agents ...*Agent) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry.add(agents...)
	for _, a := range agents {
		if a != nil {
			c.logger.Debug("agent deployed", "agent", a)
		}
	}
}

// Remove withdraws a deployed agent; it reports whether a was deployed.
func (c *Context) Remove(a *Agent) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.remove(a)
}

// Agents returns the number of deployed agents.
func (c *Context) Agents() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.len()
}

// Trace returns a copy of the recorded observations, each canonical JSON.
// The trace stays available after Finish.
func (c *Context) Trace() []string {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.trace...)
}

// dispatch records o at point and selects the matching agent.
// Returns nil when c is inactive or no agent matches.
func (c *Context) dispatch(point string, o *Observation, errCall bool) (*Agent, Fields) {
	if c == nil {
		return nil, Fields{}
	}
	f := o.fields(point)
	entry := canonical.MustMarshal(f.canonical())

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return nil, Fields{}
	}
	agent := c.registry.match(point, f, errCall)
	c.trace = append(c.trace, entry)

	if agent == nil {
		c.logger.Debug("spy point observed", "point", pointLabel(point), "matched", false)
	} else {
		c.logger.Debug("spy point observed", "point", pointLabel(point), "matched", true, "agent", agent)
	}
	return agent, f
}

// FinishOption configures Finish.
type FinishOption func(*reconcile.Request)

// NoSave marks the reconciliation diagnostic-only: differences are shown
// but never saved. reason, typically the test failure, is shown in console
// mode.
func NoSave(reason string) FinishOption {
	return func(r *reconcile.Request) {
		r.NoSave = reason
	}
}

// Finish deactivates c and reconciles its trace against the reference
// file. Later calls return the first outcome.
//
// Returns a *MismatchError when differences were not accepted.
func (c *Context) Finish(opts ...FinishOption) (*Outcome, error) {
	if c == nil {
		return nil, nil
	}

	c.mu.Lock()
	if c.state != StateRecording {
		defer c.mu.Unlock()
		return c.outcome, c.err
	}
	c.active = false
	c.state = StateReconciling
	c.registry.clear()
	req := reconcile.Request{
		TestID:       c.testID,
		Path:         c.ReferencePath(),
		Observations: append([]string(nil), c.trace...),
	}
	c.mu.Unlock()

	for _, opt := range opts {
		opt(&req)
	}

	outcome, err := c.reconciler().Reconcile(req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateResolved
	c.outcome, c.err = outcome, err
	if outcome != nil {
		c.logger.Info("bond trace reconciled",
			"status", outcome.Status,
			"observations", len(req.Observations),
			"path", req.Path,
		)
	}
	return outcome, err
}

func (c *Context) reconciler() *reconcile.Reconciler {
	mode, _ := c.settings.Mode() // validated in Start
	opts := []reconcile.Option{
		reconcile.WithOutput(c.out),
		reconcile.WithLogger(c.logger),
	}
	if c.prompter != nil {
		opts = append(opts, reconcile.WithPrompter(c.prompter))
	}
	return reconcile.New(mode, opts...)
}

type contextKey struct{}

// WithContext returns a copy of parent carrying c.
func WithContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey{}, c)
}

// FromContext returns the Context carried by ctx, or Ambient when there is
// none.
func FromContext(ctx context.Context) *Context {
	if ctx != nil {
		if c, ok := ctx.Value(contextKey{}).(*Context); ok {
			return c
		}
	}
	return Ambient()
}

var ambient = sync.OnceValue(func() *Context {
	settings, err := config.Load("")
	if err != nil || !settings.Active {
		return nil
	}
	c, err := Start("ambient", WithSettings(settings))
	if err != nil {
		return nil
	}
	return c
})

// Ambient returns the process default Context, active only when the
// active setting (BOND_ACTIVE) is true. It records observations and
// dispatches to deployed agents but is never reconciled. Returns nil when
// spying is not enabled.
func Ambient() *Context {
	return ambient()
}
