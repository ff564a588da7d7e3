// Command sitetheory validates a site configuration, prints the resource plan it assembles
// into, and synthesizes it as a CDK cloud assembly.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/cdk-go/sitetheorycdk"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	obszap "github.com/theory-cloud/sitetheory/pkg/observability/zap"
	"github.com/theory-cloud/sitetheory/pkg/plan"
	"github.com/theory-cloud/sitetheory/pkg/siteconfig"
)

type CLI struct {
	LogLevel string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level for assembly events"`

	Validate ValidateCmd `cmd:"" help:"Validate a site configuration"`
	Plan     PlanCmd     `cmd:"" help:"Print the resources a site configuration assembles into"`
	Settings SettingsCmd `cmd:"" help:"Print the settings.json written next to the website"`
	Synth    SynthCmd    `cmd:"" help:"Synthesize the site as a CDK cloud assembly"`
}

type ValidateCmd struct {
	Config string `name:"config" short:"c" required:"" help:"Path to the site configuration (site.yml)"`
}

type PlanCmd struct {
	Config string `name:"config" short:"c" required:"" help:"Path to the site configuration (site.yml)"`
}

type SettingsCmd struct {
	Config string `name:"config" short:"c" required:"" help:"Path to the site configuration (site.yml)"`
}

type SynthCmd struct {
	Config   string `name:"config" short:"c" required:"" help:"Path to the site configuration (site.yml)"`
	Output   string `name:"out" short:"o" default:"cdk.out" help:"Cloud assembly output directory"`
	Handlers string `name:"handlers" default:"dist/handlers" help:"Directory holding the built copier and invalidate handlers"`
}

type kongExitCode int

type commandDeps struct {
	load   func(path string) (*siteconfig.Document, error)
	synth  func(*siteconfig.Document, sitetheorycdk.SynthOptions) (string, error)
	out    io.Writer
	errOut io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], defaultDeps()))
}

func defaultDeps() commandDeps {
	return commandDeps{
		load:   siteconfig.Load,
		synth:  sitetheorycdk.Synth,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

func run(args []string, deps commandDeps) (exitCode int) {
	out := deps.out
	if out == nil {
		out = os.Stdout
	}
	errOut := deps.errOut
	if errOut == nil {
		errOut = os.Stderr
	}
	if deps.load == nil {
		deps.load = siteconfig.Load
	}
	if deps.synth == nil {
		deps.synth = sitetheorycdk.Synth
	}

	cli := CLI{}
	parser, err := kong.New(
		&cli,
		kong.Name("sitetheory"),
		kong.Description("Assemble static websites and serverless webapps for AWS."),
		kong.Writers(out, errOut),
		kong.Exit(func(code int) {
			panic(kongExitCode(code))
		}),
	)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: initialize command parser: %v\n", err)
		return 1
	}
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		code, ok := recovered.(kongExitCode)
		if !ok {
			panic(recovered)
		}
		exitCode = int(code)
	}()
	ctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		_, _ = fmt.Fprintln(errOut, "Hint: run `sitetheory --help`.")
		return 1
	}

	closeLogger := installLogger(cli.LogLevel, errOut)
	defer closeLogger()

	switch ctx.Command() {
	case "validate":
		err = runValidate(cli.Validate, deps, out)
	case "plan":
		err = runPlan(cli.Plan, deps, out)
	case "settings":
		err = runSettings(cli.Settings, deps, out)
	case "synth":
		err = runSynth(cli.Synth, deps, out)
	default:
		err = fmt.Errorf("unsupported command: %s", ctx.Command())
	}
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", err)
		if sitetheory.IsConfigurationError(err) {
			_, _ = fmt.Fprintln(errOut, "Hint: check the site configuration against `sitetheory validate`.")
		}
		return 1
	}
	return 0
}

// installLogger routes assembly events to errOut and returns a func that flushes and
// restores the previous logger.
func installLogger(level string, errOut io.Writer) func() {
	previous := logger.Logger()
	l, err := obszap.New(observability.LoggerConfig{Level: level, Format: "console"}, obszap.WithOutput(errOut))
	if err != nil {
		return func() {}
	}
	logger.SetLogger(l)
	return func() {
		_ = l.Flush(context.Background())
		logger.SetLogger(previous)
	}
}

func runValidate(cmd ValidateCmd, deps commandDeps, out io.Writer) error {
	doc, err := deps.load(cmd.Config)
	if err != nil {
		return err
	}
	if _, err := doc.Assemble(nil); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s: ok\n", cmd.Config)
	return nil
}

func runPlan(cmd PlanCmd, deps commandDeps, out io.Writer) error {
	doc, err := deps.load(cmd.Config)
	if err != nil {
		return err
	}
	result, err := doc.Assemble(nil)
	if err != nil {
		return err
	}
	return plan.Render(out, result.Stack.Graph)
}

func runSettings(cmd SettingsCmd, deps commandDeps, out io.Writer) error {
	doc, err := deps.load(cmd.Config)
	if err != nil {
		return err
	}
	result, err := doc.Assemble(nil)
	if err != nil {
		return err
	}
	if result.Website == nil || !result.Website.Settings.Present() {
		return fmt.Errorf("%s: the website writes no settings", cmd.Config)
	}
	body, err := result.Website.Settings.JSON()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, plan.Unescape(body))
	return nil
}

func runSynth(cmd SynthCmd, deps commandDeps, out io.Writer) error {
	doc, err := deps.load(cmd.Config)
	if err != nil {
		return err
	}
	dir, err := deps.synth(doc, sitetheorycdk.SynthOptions{OutDir: cmd.Output, HandlerCodePath: cmd.Handlers})
	if err != nil {
		return fmt.Errorf("synth failed: %w", err)
	}
	_, _ = fmt.Fprintf(out, "cloud assembly written to %s\n", dir)
	return nil
}
