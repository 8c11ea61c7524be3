package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/wudi/corevm/config"
	"github.com/wudi/corevm/object"
	"github.com/wudi/corevm/version"
	"github.com/wudi/corevm/vm"
)

func main() {
	app := &cli.Command{
		Name:  "corevm",
		Usage: "A register-based prototype-object virtual machine",
		Commands: []*cli.Command{
			runCommand,
			listCommand,
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "Show version",
				Action: func(ctx context.Context, cmd *cli.Command, s string) error {
					fmt.Println(version.Version())
					return nil
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "run a built-in demo program",
	ArgsUsage: "<demo-name>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to a VMConfig YAML file",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "log thread lifecycle events",
		},
		&cli.IntFlag{
			Name:  "max-threads",
			Usage: "reject StartThread once this many threads are live (0 = unbounded)",
		},
		&cli.BoolFlag{
			Name:  "trace-fatal",
			Usage: "include the full CallFrame chain in a fatal-error report",
			Value: true,
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		name := cmd.Args().First()
		if name == "" {
			return fmt.Errorf("usage: corevm run <demo-name> (see `corevm list`)")
		}
		d, ok := findDemo(name)
		if !ok {
			return fmt.Errorf("unknown demo %q (see `corevm list`)", name)
		}

		cfg := config.Default()
		if path := cmd.String("config"); path != "" {
			loaded, err := config.Load(path)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if cmd.Bool("verbose") {
			cfg.Verbose = true
		}
		if n := cmd.Int("max-threads"); n != 0 {
			cfg.MaxThreads = int(n)
		}
		if cmd.IsSet("trace-fatal") {
			cfg.TraceFatal = cmd.Bool("trace-fatal")
		}

		mem := vm.NewMemory()
		sched := vm.NewSchedulerWithConfig(mem, cfg)
		sched.Stderr = stderrWriter{}

		start := time.Now()
		status := sched.Start(d.build())
		elapsed := time.Since(start)

		if status == vm.ExitErr {
			os.Exit(1)
		}

		result := sched.MainResult()
		fmt.Printf("%s returned %s\n", d.name, describeResult(result))
		fmt.Printf("ran in %s, %s live objects\n", elapsed, humanize.Comma(int64(mem.LiveCount())))
		return nil
	},
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "list the built-in demo programs",
	Action: func(ctx context.Context, cmd *cli.Command) error {
		fmt.Println(listDemoNames())
		return nil
	},
}

func describeResult(o *object.Object) string {
	if o == nil {
		return "<nothing>"
	}
	return o.Kind().String()
}

// stderrWriter colors a fatal-error report red when stderr is a TTY, and
// writes it plain when piped or redirected.
type stderrWriter struct{}

func (stderrWriter) Write(p []byte) (int, error) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return os.Stderr.Write(p)
	}
	if _, err := os.Stderr.WriteString("\x1b[31m"); err != nil {
		return 0, err
	}
	n, err := os.Stderr.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := os.Stderr.WriteString("\x1b[0m"); err != nil {
		return n, err
	}
	return n, nil
}
