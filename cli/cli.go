package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"

	"github.com/jonwraymond/archiveview/config"
	"github.com/jonwraymond/archiveview/viewer"
)

var (
	// ErrUsage reports bad command line arguments.
	ErrUsage = errors.New("usage")

	// ErrUnhealthy is returned by the health command when the overall
	// status is unhealthy.
	ErrUnhealthy = errors.New("archive unhealthy")
)

// Options holds the global flags and the selected command.
type Options struct {
	ConfigFile string
	DotEnv     string
	BaseURL    string
	JSON       bool
	Command    string
	Args       []string
}

// Env is the process surroundings a run uses.
type Env struct {
	// Stdout receives command output.
	Stdout io.Writer

	// Stderr receives logs.
	Stderr io.Writer

	// Environ replaces the process environment when non-nil.
	Environ map[string]string

	// HTTPClient replaces the default HTTP client when non-nil.
	HTTPClient *http.Client
}

// Parse reads global flags and the command name from args.
func Parse(fs *flag.FlagSet, args []string) (Options, error) {
	var o Options
	fs.StringVar(&o.ConfigFile, "config", "", "YAML config file")
	fs.StringVar(&o.DotEnv, "env-file", ".env", ".env file, ignored when missing")
	fs.StringVar(&o.BaseURL, "base-url", "", "API base URL, overriding config and environment")
	fs.BoolVar(&o.JSON, "json", false, "print JSON instead of text")
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "usage: %s [flags] <command> [args]\n\ncommands:\n", fs.Name())
		for _, name := range commandNames() {
			fmt.Fprintf(out, "  %-10s %s\n", name, commands[name].usage)
		}
		fmt.Fprintln(out, "\nflags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if fs.NArg() == 0 {
		return Options{}, fmt.Errorf("%w: missing command", ErrUsage)
	}
	o.Command = fs.Arg(0)
	o.Args = fs.Args()[1:]
	if _, ok := commands[o.Command]; !ok {
		return Options{}, fmt.Errorf("%w: unknown command %q", ErrUsage, o.Command)
	}
	return o, nil
}

// Run loads configuration, assembles a viewer and runs the command.
func Run(ctx context.Context, o Options, env Env) error {
	cmd, ok := commands[o.Command]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, o.Command)
	}
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}

	loadOpts := config.Options{File: o.ConfigFile, DotEnv: o.DotEnv, Environ: env.Environ}
	if o.BaseURL != "" {
		loadOpts.Override = func(c *config.Config) { c.API.BaseURL = o.BaseURL }
	}
	cfg, err := config.Load(ctx, loadOpts)
	if err != nil {
		return err
	}

	viewOpts := []viewer.Option{viewer.WithOutput(env.Stderr)}
	if env.HTTPClient != nil {
		viewOpts = append(viewOpts, viewer.WithHTTPClient(env.HTTPClient))
	}
	v, err := viewer.New(ctx, cfg, viewOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := v.Close(context.WithoutCancel(ctx)); cerr != nil {
			fmt.Fprintf(env.Stderr, "close: %v\n", cerr)
		}
	}()

	return cmd.run(ctx, v, o.Args, newPrinter(env.Stdout, o.JSON))
}

// Main parses args, runs the command and returns the process exit code.
func Main(ctx context.Context, name string, args []string, env Env) int {
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	o, err := Parse(fs, args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(env.Stderr, "%s: %v\n", name, err)
		if errors.Is(err, ErrUsage) {
			fs.Usage()
		}
		return 2
	}

	if err := Run(ctx, o, env); err != nil {
		fmt.Fprintf(env.Stderr, "%s: %v\n", name, err)
		if errors.Is(err, ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
