package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/zephyrtronium/calc"
	"github.com/zephyrtronium/calc/internal/repl"
)

// calcFlags defines the command-line flags of calc.
type calcFlags struct {
	Prec      uint
	Format    string
	Given     cli.StringSlice
	Echo      bool
	Constants bool
	Prompt    string
	Verbose   bool
}

func (flags *calcFlags) AsCliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{
			Name:        "prec",
			Aliases:     []string{"p"},
			Value:       64,
			Usage:       "precision of calculations in bits",
			Destination: &flags.Prec,
		},
		&cli.StringFlag{
			Name:        "fmt",
			Value:       "%g",
			Usage:       "result formatting verb",
			Destination: &flags.Format,
		},
		&cli.StringSliceFlag{
			Name:        "given",
			Usage:       "name=value variable definition (any number of times)",
			Destination: &flags.Given,
		},
		&cli.BoolFlag{
			Name:        "echo",
			Usage:       "print parse trees",
			Destination: &flags.Echo,
		},
		&cli.BoolFlag{
			Name:        "constants",
			Usage:       "predefine pi and e",
			Destination: &flags.Constants,
		},
		&cli.StringFlag{
			Name:        "prompt",
			Value:       "> ",
			Usage:       "prompt shown on a terminal",
			Destination: &flags.Prompt,
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "log each evaluated line to stderr",
			Destination: &flags.Verbose,
		},
	}
}

func main() {
	var flags calcFlags
	app := &cli.App{
		Name:      "calc",
		Usage:     "Arbitrary-precision calculator with variables and functions.",
		UsageText: "calc [options] < lines",
		Flags:     flags.AsCliFlags(),
		Action: func(c *cli.Context) error {
			return run(&flags)
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(flags *calcFlags) error {
	if flags.Prec == 0 {
		return errors.New("precision must be positive")
	}
	if err := repl.ValidFormat(flags.Format); err != nil {
		return err
	}
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if flags.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	env, err := newEnv(flags)
	if err != nil {
		return err
	}

	interactive := isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	cfg := repl.Config{
		Format: flags.Format,
		Echo:   flags.Echo,
		Color:  interactive && !color.NoColor,
		Prompt: flags.Prompt,
	}
	s := repl.New(env, cfg, log)
	if interactive {
		return s.RunTerminal(int(os.Stdin.Fd()), struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout})
	}
	return s.Run(os.Stdin, os.Stdout)
}

// newEnv creates the session environment. Every name starts undefined unless
// --constants or --given binds it.
func newEnv(flags *calcFlags) (*calc.Env, error) {
	opts := []calc.EnvOption{calc.Prec(flags.Prec)}
	if !flags.Constants {
		opts = append(opts, calc.NoConstants())
	}
	env := calc.NewEnv(opts...)
	for _, d := range flags.Given.Value() {
		if err := given(env, d); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// given evaluates a name=value definition into env. The value may use
// earlier definitions, and constants if they are enabled.
func given(env *calc.Env, d string) error {
	name, val, ok := strings.Cut(d, "=")
	if !ok {
		return errors.Errorf(`variable definitions must be "name=value", not %q`, d)
	}
	name = strings.TrimSpace(name)
	if !calc.IsName(name) {
		return errors.Errorf("invalid variable name %q", name)
	}
	e, err := calc.ParseString(val)
	if err != nil {
		return errors.Wrapf(err, "setting %s", name)
	}
	if e.IsDef() {
		return errors.Errorf("setting %s: value is a function definition", name)
	}
	r, err := env.Eval(e)
	if err != nil {
		return errors.Wrapf(err, "setting %s", name)
	}
	env.Set(name, r.Num)
	return nil
}
