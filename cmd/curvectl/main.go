// Command curvectl inspects the channels and time warps of a curve document.
//
// Usage:
//
//	curvectl [-v] <command> [flags] [args]
//
// Commands:
//
//	eval     evaluate a channel at the given times
//	sample   evaluate a channel at regular intervals
//	solve    find the times at which a channel has a value
//	extents  print the value range of a channel
//	remap    map times through a warp
//	hull     print the output range of a warp
//	encode   write a channel or warp in binary form
//	decode   print a channel or warp in binary form
//	serve    stream samples over a websocket
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"honnef.co/go/timecurve"
)

type command struct {
	name    string
	summary string
	run     func(env *env, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"eval", "evaluate a channel at the given times", cmdEval},
		{"sample", "evaluate a channel at regular intervals", cmdSample},
		{"solve", "find the times at which a channel has a value", cmdSolve},
		{"extents", "print the value range of a channel", cmdExtents},
		{"remap", "map times through a warp", cmdRemap},
		{"hull", "print the output range of a warp", cmdHull},
		{"encode", "write a channel or warp in binary form", cmdEncode},
		{"decode", "print a channel or warp in binary form", cmdDecode},
		{"serve", "stream samples over a websocket", cmdServe},
	}
}

var errUsage = errors.New("usage")

// env is what commands get to work with.
type env struct {
	stdout io.Writer
	stderr io.Writer
	log    zerolog.Logger
}

func main() {
	e := &env{stdout: os.Stdout, stderr: os.Stderr}
	if err := run(e, os.Args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		e.log.Error().Err(err).Msg("curvectl failed")
		os.Exit(1)
	}
}

func run(e *env, args []string) error {
	fs := flag.NewFlagSet("curvectl", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	verbose := fs.Bool("v", false, "log debug output")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: curvectl [-v] <command> [flags] [args]")
		fmt.Fprintln(fs.Output(), "\ncommands:")
		for _, c := range commands {
			fmt.Fprintf(fs.Output(), "  %-8s %s\n", c.name, c.summary)
		}
		fmt.Fprintln(fs.Output(), "\nflags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	e.log = zerolog.New(zerolog.ConsoleWriter{Out: e.stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = e.log
	timecurve.SetLogger(e.log)

	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	name := fs.Arg(0)
	for _, c := range commands {
		if c.name == name {
			return c.run(e, fs.Args()[1:])
		}
	}
	fmt.Fprintf(e.stderr, "curvectl: unknown command %q\n", name)
	fs.Usage()
	return errUsage
}
