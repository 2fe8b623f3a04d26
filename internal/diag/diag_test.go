package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestAssertLogsInReleaseBuilds(t *testing.T) {
	if Checked {
		t.Skip("checked build panics instead of logging")
	}
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	SetLogger(&l)
	defer SetLogger(nil)

	if Assert(true, "fine") != true {
		t.Error("passing assertion reported failure")
	}
	if Assertf(false, "piece %d out of range", 3) != false {
		t.Error("failing assertion reported success")
	}
	if !strings.Contains(buf.String(), "piece 3 out of range") {
		t.Errorf("log output %q lacks the assertion message", buf.String())
	}
}

func TestSetLoggerNil(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("nil logger after reset")
	}
	// Must not panic.
	Logger().Info().Msg("discarded")
}
