package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hitman/internal/dispatch"
	"hitman/internal/env"
	"hitman/internal/execute"
	"hitman/internal/history"
	"hitman/internal/interaction"
	"hitman/internal/output"
	"hitman/internal/request"
	"hitman/internal/resolve"
	"hitman/internal/scope"
	"hitman/internal/template"
	"hitman/internal/transport"
	"hitman/internal/watch"
	"hitman/internal/widget"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// app is one invocation against a project root.
type app struct {
	root     string
	target   string
	port     interaction.Port
	client   *transport.Client
	history  *history.Store
	jar      *env.Jar
	executor *execute.Executor
	logger   *zap.Logger
	in       io.Reader
	prompts  io.Writer
}

type appOptions struct {
	root        string
	target      string
	interactive bool
	connections int
	out         io.Writer
}

func newApp(opts appOptions) (*app, error) {
	jar, err := env.NewJar(opts.root, logger)
	if err != nil {
		return nil, err
	}

	userAgent := cfg.HTTP.UserAgent
	if userAgent == "" {
		userAgent = "hitman/" + version
	}
	client := transport.New(transport.Options{
		UserAgent:   userAgent,
		Timeout:     cfg.GetHTTPTimeout(),
		Jar:         jar,
		Connections: opts.connections,
	})

	a := &app{
		root:    opts.root,
		target:  opts.target,
		client:  client,
		jar:     jar,
		history: openHistory(),
		logger:  logger,
		in:      os.Stdin,
		prompts: os.Stderr,
	}
	if opts.interactive {
		a.port = interaction.NewTerminal(a.in, a.prompts)
	} else {
		a.port = interaction.Batch{}
	}
	a.executor = &execute.Executor{
		Client:  client,
		Root:    opts.root,
		Target:  opts.target,
		History: a.history,
		Cookies: jar,
		Logger:  logger,
		Out:     opts.out,
	}
	return a, nil
}

func (a *app) close() {
	a.client.CloseIdleConnections()
	if err := a.jar.Save(); err != nil {
		a.logger.Debug("saving cookies", zap.Error(err))
	}
	if a.history != nil {
		pruneHistory(a.history)
		if err := a.history.Close(); err != nil {
			a.logger.Debug("closing history", zap.Error(err))
		}
	}
}

// openHistory returns nil when history is disabled or unavailable.
func openHistory() *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	path := cfg.History.Path
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			logger.Debug("no history location", zap.Error(err))
			return nil
		}
	}
	store, err := history.Open(path)
	if err != nil {
		logger.Debug("history unavailable", zap.Error(err))
		return nil
	}
	return store
}

// isInteractive reports whether questions can be asked on the terminal.
func isInteractive() bool {
	return !nonInteractive && !watchMode && term.IsTerminal(int(os.Stdin.Fd()))
}

func runRoot(cmd *cobra.Command, args []string) error {
	if err := validateFlags(cmd, args); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root, err := env.FindRoot(cwd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("select") {
		name := selectTarget
		if name == selectPrompt && len(args) == 1 {
			name = args[0]
		}
		return runSelect(ctx, root, name)
	}

	tgt := target
	if tgt == "" {
		tgt = env.Target(root)
	}

	var name string
	var overrides resolve.Overrides
	if len(args) > 0 {
		name = args[0]
		if overrides, err = parseOptions(args[1:]); err != nil {
			return err
		}
	}

	conns := cfg.Flurry.Connections
	if cmd.Flags().Changed("connections") {
		conns = connections
	}
	a, err := newApp(appOptions{
		root:        root,
		target:      tgt,
		interactive: isInteractive(),
		connections: conns,
		out:         cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer a.close()

	if name == "" {
		if !isInteractive() {
			return errors.New("a request name is required when not running in a terminal")
		}
		err = a.pickLoop(ctx, cwd, overrides)
	} else {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		switch {
		case cmd.Flags().Changed("flurry"):
			err = a.runFlurry(ctx, path, overrides, flurrySize, conns)
		case cmd.Flags().Changed("monitor"):
			err = a.runMonitor(ctx, path, overrides, time.Duration(monitorDelay)*time.Second)
		case watchMode:
			if err := a.runOnce(ctx, path, overrides); err != nil {
				a.logger.Error("# " + err.Error())
			}
			err = a.runWatch(ctx, path, overrides)
		default:
			err = a.runOnce(ctx, path, overrides)
		}
	}

	if errors.Is(err, interaction.ErrCanceled) {
		return nil
	}
	return err
}

// prepare resolves the request at path, asking the port for missing
// values. It returns the scope the request was resolved from.
func (a *app) prepare(ctx context.Context, path string, overrides resolve.Overrides) (*request.Request, scope.Scope, error) {
	src, err := template.Load(path)
	if err != nil {
		return nil, scope.Scope{}, err
	}
	sc, err := env.LoadScope(a.root, a.target, path)
	if err != nil {
		return nil, scope.Scope{}, err
	}
	r := resolve.New(sc.With(overrides.Layer()), a.port, a.logger)
	req, answered, err := r.Resolve(ctx, src, nil)
	if err != nil {
		return nil, scope.Scope{}, err
	}
	return req, r.Base().With(answered.Layer()), nil
}

func (a *app) relative(path string) string {
	if rel, err := filepath.Rel(a.root, path); err == nil {
		return rel
	}
	return path
}

// runOnce resolves and sends the request at path.
func (a *app) runOnce(ctx context.Context, path string, overrides resolve.Overrides) error {
	req, sc, err := a.prepare(ctx, path, overrides)
	if err != nil {
		return err
	}
	_, err = a.executor.Execute(ctx, a.relative(path), sc, req)
	return err
}

// runWatch re-runs the request whenever one of its files changes.
func (a *app) runWatch(ctx context.Context, path string, overrides resolve.Overrides) error {
	src, err := template.Load(path)
	if err != nil {
		return err
	}
	w, err := watch.New(env.WatchList(a.root, src), watch.DefaultDebounce, a.logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	return watch.Loop(ctx, w, a.logger, func(ctx context.Context) error {
		return a.runOnce(ctx, path, overrides)
	})
}

func (a *app) statusFunc(req *request.Request) dispatch.SendFunc {
	return func(ctx context.Context) (int, time.Duration, error) {
		return a.client.Status(ctx, req)
	}
}

// runFlurry sends size copies of the request over conns connections.
func (a *app) runFlurry(ctx context.Context, path string, overrides resolve.Overrides, size, conns int) error {
	req, _, err := a.prepare(ctx, path, overrides)
	if err != nil {
		return err
	}
	for _, line := range output.RequestLines(req.String()) {
		a.logger.Info(line)
	}
	a.logger.Warn(fmt.Sprintf("# Sending %d requests on %d connections...", size, conns))

	report, err := dispatch.Flurry{Total: size, Workers: conns, Logger: a.logger}.Run(ctx, a.statusFunc(req))
	if err != nil {
		return err
	}
	for _, line := range report.Lines() {
		a.logger.Warn(line)
	}
	return nil
}

// runMonitor repeats the request until interrupted.
func (a *app) runMonitor(ctx context.Context, path string, overrides resolve.Overrides, delay time.Duration) error {
	req, _, err := a.prepare(ctx, path, overrides)
	if err != nil {
		return err
	}
	for _, line := range output.RequestLines(req.String()) {
		a.logger.Info(line)
	}
	return dispatch.Monitor{Delay: delay}.Run(ctx, a.statusFunc(req), func(s dispatch.Sample) {
		if s.OK() {
			a.logger.Warn(s.String())
		} else {
			a.logger.Error(s.String())
		}
	})
}

// pickLoop asks for a request to send, once or until cancelled.
func (a *app) pickLoop(ctx context.Context, dir string, overrides resolve.Overrides) error {
	for {
		files, err := env.FindAvailableRequests(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no request files found in %s", dir)
		}

		fmt.Fprintln(a.prompts)
		file, err := a.choose(ctx, "Select request", files)
		if err != nil {
			return err
		}

		err = a.runOnce(ctx, filepath.Join(dir, file), overrides)
		if !repeat {
			return err
		}
		if errors.Is(err, interaction.ErrCanceled) {
			continue
		}
		if err != nil {
			a.logger.Error(err.Error())
		}
	}
}

// choose shows a fuzzy select of options on the terminal.
func (a *app) choose(ctx context.Context, title string, options []string) (string, error) {
	items := make([]widget.Item, len(options))
	for i, o := range options {
		items[i] = widget.Item{Text: o, Value: o}
	}
	s := widget.NewSelect(title, items, widget.DefaultStyles()).WithPageSize(widget.DefaultPageSize)
	intent, err := widget.Run(ctx, s, a.in, a.prompts)
	if err != nil {
		return "", err
	}
	answer := s.Answer()
	if intent != widget.Accept || len(answer) == 0 {
		return "", interaction.ErrCanceled
	}
	return answer[0], nil
}

// runSelect sets the target, asking for it when name is selectPrompt.
func runSelect(ctx context.Context, root, name string) error {
	if name == selectPrompt {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("--select needs a terminal, or use --select=TARGET")
		}
		envs, err := env.FindEnvironments(root)
		if err != nil {
			return err
		}
		if len(envs) == 0 {
			return fmt.Errorf("no targets defined in %s", filepath.Join(root, env.ConfigFile))
		}
		a := &app{in: os.Stdin, prompts: os.Stderr}
		if name, err = a.choose(ctx, "Select target", envs); err != nil {
			if errors.Is(err, interaction.ErrCanceled) {
				return nil
			}
			return err
		}
	}
	if err := env.SetTarget(root, name); err != nil {
		return err
	}
	logger.Warn("# Target set to " + name)
	return nil
}
