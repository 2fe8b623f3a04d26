package curvefile

import (
	"fmt"
	"slices"

	"honnef.co/go/timecurve/channel"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/timewarp"
)

// Scene holds the live channels and warps built from a document.
type Scene struct {
	Rate     frametime.Rate
	Channels map[string]*channel.Channel
	Warps    map[string]timewarp.TimeWarp
	Arena    *timewarp.Arena
}

// Release drops the scene's references to custom warps.
func (s *Scene) Release() {
	for name, w := range s.Warps {
		w.Release()
		delete(s.Warps, name)
	}
}

// ChannelNames returns the sorted channel names.
func (s *Scene) ChannelNames() []string { return sortedKeys(s.Channels) }

// WarpNames returns the sorted warp names.
func (s *Scene) WarpNames() []string { return sortedKeys(s.Warps) }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Build creates the channels and warps the document describes. Custom warps
// are stored in a new arena. Channels used by custom warps are shared with
// the scene's Channels until the warp is scaled, which copies them.
func (d *Document) Build() (*Scene, error) {
	s := &Scene{
		Rate:     d.TickResolution,
		Channels: make(map[string]*channel.Channel, len(d.Channels)),
		Warps:    make(map[string]timewarp.TimeWarp, len(d.Warps)),
		Arena:    timewarp.NewArena(),
	}
	if s.Rate == (frametime.Rate{}) {
		s.Rate = frametime.NewRate(24000, 1)
	}
	if !s.Rate.IsValid() {
		return nil, fmt.Errorf("curvefile: invalid tick resolution %v", s.Rate)
	}
	for name, spec := range d.Channels {
		s.Channels[name] = spec.Channel()
	}
	b := builder{doc: d, scene: s, active: map[string]bool{}}
	for _, name := range sortedKeys(d.Warps) {
		if _, err := b.warp(name); err != nil {
			s.Release()
			return nil, err
		}
	}
	return s, nil
}

type builder struct {
	doc    *Document
	scene  *Scene
	active map[string]bool
}

// warp returns the warp called name, building it and the warps it depends
// on if necessary.
func (b *builder) warp(name string) (timewarp.TimeWarp, error) {
	if w, ok := b.scene.Warps[name]; ok {
		return w, nil
	}
	spec, ok := b.doc.Warps[name]
	if !ok {
		return timewarp.TimeWarp{}, fmt.Errorf("%w %q", ErrUnknownWarp, name)
	}
	if b.active[name] {
		return timewarp.TimeWarp{}, fmt.Errorf("%w: %q", ErrWarpCycle, name)
	}
	b.active[name] = true
	defer delete(b.active, name)

	w, err := b.build(spec)
	if err != nil {
		return timewarp.TimeWarp{}, fmt.Errorf("warp %q: %w", name, err)
	}
	b.scene.Warps[name] = w
	return w, nil
}

func (b *builder) channel(name string) (*channel.Channel, error) {
	c, ok := b.scene.Channels[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownChannel, name)
	}
	return c, nil
}

func (b *builder) build(spec WarpSpec) (timewarp.TimeWarp, error) {
	switch spec.Kind {
	case timewarp.KindPlayRate:
		return timewarp.PlayRate(spec.Rate), nil
	case timewarp.KindFixedTime:
		return timewarp.FixedTime(frametime.FromFloat(spec.Time)), nil
	case timewarp.KindRateConversion:
		return timewarp.RateConversion(spec.From, spec.To)
	case timewarp.KindLoop:
		if spec.Frames <= 0 {
			return timewarp.TimeWarp{}, fmt.Errorf("%w: loop of %d frames", ErrInvalidWarp, spec.Frames)
		}
		return timewarp.Loop(spec.Frames), nil
	case timewarp.KindClamp:
		if spec.Frames < 0 {
			return timewarp.TimeWarp{}, fmt.Errorf("%w: clamp to %d frames", ErrInvalidWarp, spec.Frames)
		}
		return timewarp.Clamp(spec.Frames), nil
	case timewarp.KindCustom:
		return b.custom(spec)
	default:
		return timewarp.TimeWarp{}, fmt.Errorf("%w: kind %v", ErrInvalidWarp, spec.Kind)
	}
}

func (b *builder) custom(spec WarpSpec) (timewarp.TimeWarp, error) {
	n := 0
	for _, set := range []bool{spec.Curve != "", spec.RateCurve != "", spec.Chain != nil} {
		if set {
			n++
		}
	}
	if n != 1 {
		return timewarp.TimeWarp{}, fmt.Errorf("%w: custom warp needs exactly one of curve, rate_curve and chain", ErrInvalidWarp)
	}

	arena := b.scene.Arena
	switch {
	case spec.Curve != "":
		c, err := b.channel(spec.Curve)
		if err != nil {
			return timewarp.TimeWarp{}, err
		}
		return timewarp.NewCustom(arena, timewarp.NewCurveWarp(c)), nil
	case spec.RateCurve != "":
		c, err := b.channel(spec.RateCurve)
		if err != nil {
			return timewarp.TimeWarp{}, err
		}
		return timewarp.NewCustom(arena, timewarp.NewPlayRateCurve(c, frametime.FromFloat(spec.Start))), nil
	default:
		warps := make([]timewarp.TimeWarp, len(spec.Chain))
		for i, name := range spec.Chain {
			w, err := b.warp(name)
			if err != nil {
				return timewarp.TimeWarp{}, err
			}
			// The scene owns the references; the chain borrows them.
			warps[i] = w.Weak()
		}
		return timewarp.Compose(arena, warps...), nil
	}
}
