package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"honnef.co/go/timecurve"
	"honnef.co/go/timecurve/channel"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/internal/curvefile"
	"honnef.co/go/timecurve/internal/preview"
	"honnef.co/go/timecurve/timewarp"
)

// cmdFlags holds the flags shared by most commands.
type cmdFlags struct {
	*flag.FlagSet
	file     string
	channel  string
	warp     string
	from, to string
}

func newFlags(e *env, name string) *cmdFlags {
	f := &cmdFlags{FlagSet: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.SetOutput(e.stderr)
	f.StringVar(&f.file, "f", "scene.yaml", "curve document")
	return f
}

func (f *cmdFlags) channelFlag() { f.StringVar(&f.channel, "c", "", "channel name") }
func (f *cmdFlags) warpFlag()    { f.StringVar(&f.warp, "w", "", "warp name") }

func (f *cmdFlags) rangeFlags() {
	f.StringVar(&f.from, "from", "", "start of the time range, in ticks (default unbounded)")
	f.StringVar(&f.to, "to", "", "end of the time range, in ticks, inclusive (default unbounded)")
}

func (f *cmdFlags) parse(args []string) error {
	if err := f.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// timeRange returns the closed range given by -from and -to.
func (f *cmdFlags) timeRange() (frametime.Range, error) {
	var r frametime.Range
	if f.from != "" {
		t, err := parseTime(f.from)
		if err != nil {
			return r, err
		}
		r.Lower = frametime.InclusiveBound(t)
	}
	if f.to != "" {
		t, err := parseTime(f.to)
		if err != nil {
			return r, err
		}
		r.Upper = frametime.InclusiveBound(t)
	}
	return r, nil
}

func parseTime(s string) (frametime.Time, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return frametime.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return frametime.FromFloat(v), nil
}

func (f *cmdFlags) scene() (*curvefile.Scene, error) {
	d, err := curvefile.Load(f.file)
	if err != nil {
		return nil, err
	}
	return d.Build()
}

func (f *cmdFlags) lookupChannel(s *curvefile.Scene) (*channel.Channel, error) {
	c, ok := s.Channels[f.channel]
	if !ok {
		return nil, fmt.Errorf("no channel %q in %s", f.channel, f.file)
	}
	return c, nil
}

func (f *cmdFlags) lookupWarp(s *curvefile.Scene) (timewarp.TimeWarp, error) {
	w, ok := s.Warps[f.warp]
	if !ok {
		return timewarp.TimeWarp{}, fmt.Errorf("no warp %q in %s", f.warp, f.file)
	}
	return w, nil
}

// loadChannel parses the flags and returns the scene and selected channel.
func loadChannel(f *cmdFlags, args []string) (*curvefile.Scene, *channel.Channel, error) {
	if err := f.parse(args); err != nil {
		return nil, nil, err
	}
	s, err := f.scene()
	if err != nil {
		return nil, nil, err
	}
	c, err := f.lookupChannel(s)
	if err != nil {
		s.Release()
		return nil, nil, err
	}
	return s, c, nil
}

func loadWarp(f *cmdFlags, args []string) (*curvefile.Scene, timewarp.TimeWarp, error) {
	if err := f.parse(args); err != nil {
		return nil, timewarp.TimeWarp{}, err
	}
	s, err := f.scene()
	if err != nil {
		return nil, timewarp.TimeWarp{}, err
	}
	w, err := f.lookupWarp(s)
	if err != nil {
		s.Release()
		return nil, timewarp.TimeWarp{}, err
	}
	return s, w, nil
}

func printValue(w io.Writer, t frametime.Time, c *channel.Channel) {
	if v, ok := c.Evaluate(t); ok {
		fmt.Fprintf(w, "%g\t%g\n", t.Float(), v)
	} else {
		fmt.Fprintf(w, "%g\t-\n", t.Float())
	}
}

func cmdEval(e *env, args []string) error {
	f := newFlags(e, "eval")
	f.channelFlag()
	s, c, err := loadChannel(f, args)
	if err != nil {
		return err
	}
	defer s.Release()
	for _, arg := range f.Args() {
		t, err := parseTime(arg)
		if err != nil {
			return err
		}
		printValue(e.stdout, t, c)
	}
	return nil
}

func cmdSample(e *env, args []string) error {
	f := newFlags(e, "sample")
	f.channelFlag()
	from := f.Float64("from", 0, "first sample time, in ticks")
	to := f.Float64("to", 0, "last sample time, in ticks")
	step := f.Float64("step", 1, "sample interval, in ticks")
	s, c, err := loadChannel(f, args)
	if err != nil {
		return err
	}
	defer s.Release()
	if *step <= 0 {
		return fmt.Errorf("invalid step %g", *step)
	}
	for i := 0; ; i++ {
		t := *from + *step*float64(i)
		if t > *to {
			break
		}
		printValue(e.stdout, frametime.FromFloat(t), c)
	}
	return nil
}

func cmdSolve(e *env, args []string) error {
	f := newFlags(e, "solve")
	f.channelFlag()
	f.rangeFlags()
	value := f.Float64("value", 0, "value to solve for")
	hint := f.String("hint", "0", "time to start searching from, in ticks")
	dir := f.String("dir", "both", "search direction: forwards, backwards or both")
	equal := f.Bool("equal", false, "accept a solution at the hint")
	all := f.Bool("all", false, "print every solution within -from and -to")
	s, c, err := loadChannel(f, args)
	if err != nil {
		return err
	}
	defer s.Release()

	if *all {
		r, err := f.timeRange()
		if err != nil {
			return err
		}
		n := 0
		c.InverseEvaluateBetween(*value, r, func(t frametime.Time) bool {
			fmt.Fprintf(e.stdout, "%g\n", t.Float())
			n++
			return true
		})
		e.log.Debug().Int("solutions", n).Stringer("within", r).Msg("solved")
		return nil
	}

	h, err := parseTime(*hint)
	if err != nil {
		return err
	}
	var flags timecurve.InverseFlags
	switch *dir {
	case "forwards":
		flags = timecurve.Forwards
	case "backwards":
		flags = timecurve.Backwards
	case "both":
	default:
		return fmt.Errorf("invalid direction %q", *dir)
	}
	if *equal {
		flags |= timecurve.Equal
	}
	sol, ok := c.InverseEvaluate(*value, h, flags)
	if !ok {
		return fmt.Errorf("channel %q never reaches %g", f.channel, *value)
	}
	fmt.Fprintf(e.stdout, "%g\tcycle %d\n", sol.Time.Float(), sol.Cycle)
	return nil
}

func cmdExtents(e *env, args []string) error {
	f := newFlags(e, "extents")
	f.channelFlag()
	f.rangeFlags()
	s, c, err := loadChannel(f, args)
	if err != nil {
		return err
	}
	defer s.Release()
	r, err := f.timeRange()
	if err != nil {
		return err
	}
	ext, ok := c.ComputeExtents(r)
	if !ok {
		return fmt.Errorf("channel %q has no values in %v", f.channel, r)
	}
	fmt.Fprintf(e.stdout, "min\t%g\tat %g\n", ext.Min, ext.MinTime.Float())
	fmt.Fprintf(e.stdout, "max\t%g\tat %g\n", ext.Max, ext.MaxTime.Float())
	return nil
}

func cmdRemap(e *env, args []string) error {
	f := newFlags(e, "remap")
	f.warpFlag()
	f.rangeFlags()
	inverse := f.Bool("inverse", false, "print the input times within -from and -to that map to each argument")
	s, w, err := loadWarp(f, args)
	if err != nil {
		return err
	}
	defer s.Release()
	r, err := f.timeRange()
	if err != nil {
		return err
	}
	for _, arg := range f.Args() {
		t, err := parseTime(arg)
		if err != nil {
			return err
		}
		if !*inverse {
			fmt.Fprintf(e.stdout, "%g\t%g\n", t.Float(), w.RemapTime(t).Float())
			continue
		}
		w.InverseRemapTimeWithinRange(t, r, func(in frametime.Time) bool {
			fmt.Fprintf(e.stdout, "%g\t%g\n", t.Float(), in.Float())
			return true
		})
	}
	return nil
}

func cmdHull(e *env, args []string) error {
	f := newFlags(e, "hull")
	f.warpFlag()
	f.rangeFlags()
	s, w, err := loadWarp(f, args)
	if err != nil {
		return err
	}
	defer s.Release()
	r, err := f.timeRange()
	if err != nil {
		return err
	}
	fmt.Fprintln(e.stdout, w.ComputeTraversedHull(r))
	return nil
}

func cmdEncode(e *env, args []string) error {
	f := newFlags(e, "encode")
	f.channelFlag()
	f.warpFlag()
	out := f.String("o", "-", "output file")
	if err := f.parse(args); err != nil {
		return err
	}
	if (f.channel == "") == (f.warp == "") {
		fmt.Fprintln(e.stderr, "encode: need exactly one of -c and -w")
		return errUsage
	}
	s, err := f.scene()
	if err != nil {
		return err
	}
	defer s.Release()

	var b []byte
	if f.channel != "" {
		c, err := f.lookupChannel(s)
		if err != nil {
			return err
		}
		b, err = c.MarshalCBOR()
		if err != nil {
			return err
		}
	} else {
		w, err := f.lookupWarp(s)
		if err != nil {
			return err
		}
		if w.Kind() == timewarp.KindCustom {
			return fmt.Errorf("warp %q is a custom warp; encode its channels instead", f.warp)
		}
		b, err = w.MarshalCBOR()
		if err != nil {
			return err
		}
	}
	if *out == "-" {
		_, err = e.stdout.Write(b)
		return err
	}
	return os.WriteFile(*out, b, 0644)
}

func cmdDecode(e *env, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	warp := fs.Bool("warp", false, "decode a warp instead of a channel")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: curvectl decode [-warp] <file>")
		return errUsage
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	if *warp {
		var w timewarp.TimeWarp
		if err := w.UnmarshalCBOR(b); err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, w)
		return nil
	}
	var c channel.Channel
	if err := c.UnmarshalCBOR(b); err != nil {
		return err
	}
	enc := yaml.NewEncoder(e.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(curvefile.FromChannel(&c)); err != nil {
		return err
	}
	return enc.Close()
}

func cmdServe(e *env, args []string) error {
	f := newFlags(e, "serve")
	addr := f.String("addr", ":8080", "HTTP listen address")
	if err := f.parse(args); err != nil {
		return err
	}
	s, err := f.scene()
	if err != nil {
		return err
	}
	defer s.Release()

	srv := &http.Server{
		Addr:         *addr,
		Handler:      preview.NewServer(s, e.log).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: time.Minute,
		IdleTimeout:  time.Minute,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	e.log.Info().
		Str("addr", *addr).
		Int("channels", len(s.Channels)).
		Int("warps", len(s.Warps)).
		Msg("serving previews")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	e.log.Info().Msg("shut down")
	return nil
}
