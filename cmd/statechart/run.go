package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/anggasct/statechart"
	"github.com/anggasct/statechart/pkg/config"
	"github.com/anggasct/statechart/pkg/definition"
	"github.com/anggasct/statechart/pkg/logger"
	"github.com/anggasct/statechart/pkg/observers"
	"github.com/anggasct/statechart/pkg/store"
	"github.com/anggasct/statechart/visualization"
)

type options struct {
	definition string
	id         string
	store      string
	envFile    string
	dot        bool
	enter      bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("statechart", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.definition, "def", "", "path of the YAML statechart definition (required)")
	fs.StringVar(&opts.id, "id", "", "machine id, used as the checkpoint key")
	fs.StringVar(&opts.store, "store", "", "checkpoint store: memory, redis, postgres or mongo (default from STATECHART_STORE)")
	fs.StringVar(&opts.envFile, "env", "", "optional .env file applied before reading the environment")
	fs.BoolVar(&opts.dot, "dot", false, "print the Graphviz DOT rendering of the definition and exit")
	fs.BoolVar(&opts.enter, "enter", false, "run entry actions when resuming from a checkpoint")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.definition == "" {
		return opts, errors.New("missing -def")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if err := config.LoadFiles(nonEmpty(opts.envFile)...); err != nil {
		return err
	}
	var app config.App
	if err := config.Parse(&app); err != nil {
		return err
	}
	if opts.store != "" {
		app.StoreDriver = opts.store
	}
	if err := app.Validate(); err != nil {
		return err
	}
	log := app.Logger(logger.WithOutput(stderr))

	var templateOpts []statechart.TemplateOption
	if app.DoActions {
		templateOpts = append(templateOpts, statechart.WithDoActions())
	}
	tmpl, err := definition.CompileFile(opts.definition, builtinRegistry(log), templateOpts...)
	if err != nil {
		return err
	}

	if opts.dot {
		dot, err := visualization.NewDOTGenerator(tmpl).Generate()
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, dot)
		return err
	}

	backend, err := store.Open(ctx, app, store.DefaultConnectOptions())
	if err != nil {
		return err
	}
	defer backend.Close()

	machineOpts := []statechart.MachineOption{
		statechart.WithLogger(log),
		statechart.WithTracer(observers.NewLoggingTracer(log)),
	}
	if opts.id != "" {
		machineOpts = append(machineOpts, statechart.WithID(opts.id))
	}
	if app.Tracing {
		machineOpts = append(machineOpts, statechart.WithTracer(observers.NewOTelTracer(observers.WithSpanContext(ctx))))
	}
	m := tmpl.CreateStateMachine(machineOpts...)

	restored, err := store.RestoreOrStart(ctx, backend, m, opts.enter)
	if err != nil {
		return err
	}
	verb := "started"
	if restored {
		verb = "resumed"
	}
	fmt.Fprintf(stdout, "%s %s\n", verb, m.ActiveStateConfiguration())
	log.Info("machine ready", logger.MachineID(m.ID()), slog.Bool("restored", restored))

	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, ok := parseEvent(scanner.Text())
		if !ok {
			continue
		}

		steps, err := m.SendTriggerEvent(event, nil)
		if err != nil {
			fmt.Fprintf(stdout, "error %v\n", err)
			continue
		}
		fmt.Fprintf(stdout, "steps %d %s\n", steps, m.ActiveStateConfiguration())

		if err := store.Checkpoint(ctx, backend, m); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	return scanner.Err()
}

// parseEvent maps an input line to a trigger event, "." being the
// completion event
func parseEvent(line string) (any, bool) {
	line = strings.TrimSpace(line)
	switch {
	case line == "", strings.HasPrefix(line, "#"):
		return nil, false
	case line == ".":
		return nil, true
	default:
		return line, true
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
