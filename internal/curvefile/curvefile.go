// Package curvefile reads and writes YAML documents describing channels and
// time warps.
//
// A document looks like this:
//
//	tick_resolution: {numerator: 24000, denominator: 1}
//	channels:
//	  opacity:
//	    post: cycle
//	    keys:
//	      - {t: 0, v: 0, interp: linear}
//	      - {t: 24000, v: 1}
//	warps:
//	  slow: {kind: play-rate, rate: 0.5}
//	  fade: {kind: custom, curve: opacity}
//	  both: {kind: custom, chain: [slow, fade]}
package curvefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"honnef.co/go/timecurve/channel"
	"honnef.co/go/timecurve/frametime"
	"honnef.co/go/timecurve/timewarp"
)

var (
	ErrUnknownChannel = errors.New("curvefile: unknown channel")
	ErrUnknownWarp    = errors.New("curvefile: unknown warp")
	ErrWarpCycle      = errors.New("curvefile: warp refers to itself")
	ErrInvalidWarp    = errors.New("curvefile: invalid warp")
)

type Document struct {
	TickResolution frametime.Rate         `yaml:"tick_resolution"`
	Channels       map[string]ChannelSpec `yaml:"channels,omitempty"`
	Warps          map[string]WarpSpec    `yaml:"warps,omitempty"`
}

type ChannelSpec struct {
	Pre     channel.Extrapolation `yaml:"pre,omitempty"`
	Post    channel.Extrapolation `yaml:"post,omitempty"`
	Default *float64              `yaml:"default,omitempty"`
	// Tension applies to keys with automatic tangents.
	Tension float64   `yaml:"tension,omitempty"`
	Keys    []KeySpec `yaml:"keys"`
}

type KeySpec struct {
	Time         frametime.Frame     `yaml:"t"`
	Value        float64             `yaml:"v"`
	Interp       channel.InterpMode  `yaml:"interp,omitempty"`
	TangentMode  channel.TangentMode `yaml:"tangent,omitempty"`
	Arrive       float64             `yaml:"arrive,omitempty"`
	Leave        float64             `yaml:"leave,omitempty"`
	Weights      channel.WeightMode  `yaml:"weights,omitempty"`
	ArriveWeight float64             `yaml:"arrive_weight,omitempty"`
	LeaveWeight  float64             `yaml:"leave_weight,omitempty"`
}

// WarpSpec describes a time warp. Which fields apply depends on the kind:
//
//   - play-rate: Rate
//   - fixed-time: Time, in ticks
//   - rate-conversion: From and To
//   - loop, clamp: Frames
//   - custom: exactly one of Curve, RateCurve and Chain. RateCurve warps
//     start at Start.
type WarpSpec struct {
	Kind      timewarp.Kind   `yaml:"kind"`
	Rate      float64         `yaml:"rate,omitempty"`
	Time      float64         `yaml:"time,omitempty"`
	From      frametime.Rate  `yaml:"from,omitempty"`
	To        frametime.Rate  `yaml:"to,omitempty"`
	Frames    frametime.Frame `yaml:"frames,omitempty"`
	Curve     string          `yaml:"curve,omitempty"`
	RateCurve string          `yaml:"rate_curve,omitempty"`
	Start     float64         `yaml:"start,omitempty"`
	Chain     []string        `yaml:"chain,omitempty"`
}

// Load reads the document at path.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("curvefile: %w", err)
	}
	d, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%w (in %s)", err, path)
	}
	return d, nil
}

// Parse decodes a document. Unknown fields are rejected.
func Parse(b []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	var d Document
	if err := dec.Decode(&d); err != nil && err != io.EOF {
		return nil, fmt.Errorf("curvefile: %w", err)
	}
	return &d, nil
}

func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("curvefile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("curvefile: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the document to path.
func Save(path string, d *Document) error {
	b, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("curvefile: %w", err)
	}
	return nil
}

// Channel returns a new channel holding the described keys, with automatic
// tangents computed.
func (s ChannelSpec) Channel() *channel.Channel {
	keys := make([]channel.Key, len(s.Keys))
	for i, k := range s.Keys {
		keys[i] = channel.Key{
			Time:        k.Time,
			Value:       k.Value,
			Interp:      k.Interp,
			TangentMode: k.TangentMode,
			Tangent: channel.Tangent{
				Arrive:       k.Arrive,
				Leave:        k.Leave,
				ArriveWeight: k.ArriveWeight,
				LeaveWeight:  k.LeaveWeight,
				WeightMode:   k.Weights,
			},
		}
	}
	c := channel.New(keys...)
	c.SetExtrapolation(s.Pre, s.Post)
	if s.Default != nil {
		c.SetDefault(*s.Default)
	}
	c.AutoSetTangents(s.Tension)
	return c
}

// FromChannel describes c. Automatic tangents are written out but are
// recomputed, without tension, when the description is turned back into a
// channel.
func FromChannel(c *channel.Channel) ChannelSpec {
	s := ChannelSpec{
		Pre:  c.PreExtrapolation(),
		Post: c.PostExtrapolation(),
		Keys: make([]KeySpec, 0, c.NumKeys()),
	}
	if v, ok := c.Default(); ok {
		s.Default = &v
	}
	for _, k := range c.Keys() {
		s.Keys = append(s.Keys, KeySpec{
			Time:         k.Time,
			Value:        k.Value,
			Interp:       k.Interp,
			TangentMode:  k.TangentMode,
			Arrive:       k.Tangent.Arrive,
			Leave:        k.Tangent.Leave,
			Weights:      k.Tangent.WeightMode,
			ArriveWeight: k.Tangent.ArriveWeight,
			LeaveWeight:  k.Tangent.LeaveWeight,
		})
	}
	return s
}
