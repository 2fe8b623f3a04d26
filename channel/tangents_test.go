package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"honnef.co/go/timecurve/frametime"
)

func TestAutoSetTangents(t *testing.T) {
	keys := func(mode TangentMode) *Channel {
		return New(
			Key{Time: 0, Value: 0, Interp: InterpCubic, TangentMode: mode, Tangent: Tangent{Leave: 9}},
			Key{Time: 10, Value: 5, Interp: InterpCubic, TangentMode: mode},
			Key{Time: 20, Value: 20, Interp: InterpCubic, TangentMode: mode},
			Key{Time: 30, Value: 0, Interp: InterpCubic, TangentMode: mode},
		)
	}

	c := keys(TangentAuto)
	c.AutoSetTangents(0.5)
	assert.Equal(t, 0.0, c.Key(0).Tangent.Leave)
	assert.InDelta(t, 0.5, c.Key(1).Tangent.Arrive, 1e-12)
	assert.InDelta(t, 0.5, c.Key(1).Tangent.Leave, 1e-12)
	assert.InDelta(t, -0.125, c.Key(2).Tangent.Leave, 1e-12)
	assert.Equal(t, 0.0, c.Key(3).Tangent.Arrive)

	c = keys(TangentSmartAuto)
	c.AutoSetTangents(0)
	// Catmull-Rom gives 1; three times the secant slope before the key is
	// 1.5.
	assert.InDelta(t, 1, c.Key(1).Tangent.Leave, 1e-12)
	// Local maximum.
	assert.Equal(t, 0.0, c.Key(2).Tangent.Leave)

	c = keys(TangentUser)
	c.AutoSetTangents(0)
	assert.Equal(t, 9.0, c.Key(0).Tangent.Leave)
}

func TestSmartAutoLimitsOvershoot(t *testing.T) {
	c := New(
		Key{Time: 0, Value: 0, Interp: InterpCubic, TangentMode: TangentSmartAuto},
		Key{Time: 10, Value: 0.1, Interp: InterpCubic, TangentMode: TangentSmartAuto},
		Key{Time: 20, Value: 20, Interp: InterpCubic, TangentMode: TangentSmartAuto},
	)
	c.AutoSetTangents(0)
	assert.InDelta(t, 0.03, c.Key(1).Tangent.Leave, 1e-12)

	prev := -1.0
	for x := frametime.Frame(0); x <= 20; x++ {
		v := eval(t, c, float64(x))
		assert.GreaterOrEqual(t, v, prev, "not monotonic at %d", x)
		prev = v
	}
}

func TestFlatNeighborsGetFlatTangents(t *testing.T) {
	c := New(
		Key{Time: 0, Value: 3, Interp: InterpCubic, TangentMode: TangentSmartAuto},
		Key{Time: 10, Value: 3, Interp: InterpCubic, TangentMode: TangentSmartAuto},
		Key{Time: 20, Value: 8, Interp: InterpCubic, TangentMode: TangentSmartAuto},
	)
	c.AutoSetTangents(0)
	assert.Equal(t, 0.0, c.Key(1).Tangent.Leave)
	for x := 0.0; x <= 10; x++ {
		assert.InDelta(t, 3, eval(t, c, x), 1e-12)
	}
}
