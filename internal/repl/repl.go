// Package repl runs interactive calculator sessions over a line-oriented
// reader and writer.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/zephyrtronium/calc"
)

// Config controls how a session prints results.
type Config struct {
	// Format is the fmt verb used to print numeric results. Default "%g".
	Format string
	// Echo prints the parse tree of each line before its result.
	Echo bool
	// Color highlights errors.
	Color bool
	// Prompt is shown before each line read from a terminal.
	Prompt string
}

// ValidFormat checks that format prints exactly one number, so that it is
// usable as Config.Format.
func ValidFormat(format string) error {
	s := fmt.Sprintf(format, big.NewFloat(1.5))
	if strings.Contains(s, "%!") || !strings.ContainsAny(s, "0123456789") {
		return errors.Errorf("bad result format %q: formats 1.5 as %q", format, s)
	}
	return nil
}

// Session evaluates lines one at a time against a single environment.
type Session struct {
	env   *calc.Env
	cfg   Config
	log   logrus.FieldLogger
	errc  *color.Color
	lines int
}

// New creates a session evaluating in env. If log is nil, nothing is logged.
func New(env *calc.Env, cfg Config, log logrus.FieldLogger) *Session {
	if cfg.Format == "" {
		cfg.Format = "%g"
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	s := Session{
		env: env,
		cfg: cfg,
		log: log.WithField("session", uuid.New().String()),
	}
	if cfg.Color {
		s.errc = color.New(color.FgRed)
		s.errc.EnableColor()
	}
	return &s
}

// Env returns the environment the session evaluates in.
func (s *Session) Env() *calc.Env {
	return s.env
}

// Line evaluates one line and writes its output to w: "= " and the value for
// an expression, "()" for a function definition, or "Error: " and a message.
// Blank lines produce no output. The returned error is only from writing.
func (s *Session) Line(w io.Writer, line string) error {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	s.lines++
	log := s.log.WithFields(logrus.Fields{"line": s.lines, "src": line})
	e, err := calc.ParseString(line)
	if err != nil {
		log.WithError(err).Debug("parse failed")
		return s.fail(w, err)
	}
	if s.cfg.Echo {
		if _, err := fmt.Fprintf(w, "%v : ", e); err != nil {
			return errors.Wrap(err, "writing parse tree")
		}
	}
	r, err := s.env.Eval(e)
	if err != nil {
		log.WithError(err).WithField("tree", e.String()).Debug("evaluation failed")
		return s.fail(w, err)
	}
	if r.IsDef() {
		log.WithField("tree", e.String()).Debug("defined function")
		_, err = fmt.Fprintln(w, "()")
	} else {
		log.WithFields(logrus.Fields{"tree": e.String(), "result": r.Num.Text('g', -1)}).Debug("evaluated")
		_, err = fmt.Fprintln(w, "= "+fmt.Sprintf(s.cfg.Format, r.Num))
	}
	return errors.Wrap(err, "writing result")
}

// fail writes an error line.
func (s *Session) fail(w io.Writer, err error) error {
	msg := "Error: " + err.Error()
	var werr error
	if s.errc != nil {
		_, werr = s.errc.Fprintln(w, msg)
	} else {
		_, werr = fmt.Fprintln(w, msg)
	}
	return errors.Wrap(werr, "writing error")
}

// Run evaluates each line of in until it is exhausted, writing results to out.
func (s *Session) Run(in io.Reader, out io.Writer) error {
	s.log.Info("session started")
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := s.Line(out, sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "reading input")
	}
	s.log.WithField("lines", s.lines).Info("session ended")
	return nil
}

// RunTerminal runs an interactive session on the terminal with file
// descriptor fd, using rw to read and write it. The session ends when the
// user enters an end-of-file character on an empty line.
func (s *Session) RunTerminal(fd int, rw io.ReadWriter) (err error) {
	old, err := term.MakeRaw(fd)
	if err != nil {
		return errors.Wrap(err, "making terminal raw")
	}
	defer func() {
		if rerr := term.Restore(fd, old); rerr != nil && err == nil {
			err = errors.Wrap(rerr, "restoring terminal")
		}
	}()
	return s.runTerm(term.NewTerminal(rw, s.cfg.Prompt))
}

// runTerm reads lines from an already prepared terminal.
func (s *Session) runTerm(t *term.Terminal) error {
	s.log.Info("terminal session started")
	for {
		line, err := t.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.log.WithField("lines", s.lines).Info("session ended")
				return nil
			}
			return errors.Wrap(err, "reading line")
		}
		if err := s.Line(t, line); err != nil {
			return err
		}
	}
}
