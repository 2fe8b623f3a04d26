package diag

import "fmt"

// Checked reports whether internal consistency checks panic. It is true in
// builds using the curvedebug build tag.
const Checked = checked

// Assert reports a violated internal invariant.
//
// With the curvedebug build tag, a failed assertion panics. Otherwise it is
// logged at error level and execution continues; callers are expected to
// return their documented safe default.
func Assert(cond bool, msg string) bool {
	if cond {
		return true
	}
	fail(msg)
	return false
}

// Assertf is like Assert but formats its message.
func Assertf(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	fail(fmt.Sprintf(format, args...))
	return false
}

func fail(msg string) {
	if checked {
		panic("timecurve: " + msg)
	}
	Logger().Error().Str("check", msg).Msg("internal consistency check failed")
}
