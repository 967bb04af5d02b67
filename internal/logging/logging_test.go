package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func newTestLogger(verbose, debug bool) (Logger, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return Logger{Verbose: verbose, Debug: debug, Out: &out, Err: &errOut}, &out, &errOut
}

func TestLoggerLevels(t *testing.T) {
	color.NoColor = true

	t.Run("QuietHidesInfoAndDebug", func(t *testing.T) {
		l, out, _ := newTestLogger(false, false)
		l.Infof("opened %s", "personal")
		l.Debugf("tree at %s", "/tmp/x")
		if out.Len() != 0 {
			t.Errorf("expected no output, got %q", out.String())
		}
	})

	t.Run("VerboseShowsInfo", func(t *testing.T) {
		l, out, _ := newTestLogger(true, false)
		l.Infof("opened %s", "personal")
		l.Debugf("hidden")
		if got := out.String(); got != "[info] opened personal\n" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("DebugShowsBoth", func(t *testing.T) {
		l, out, _ := newTestLogger(false, true)
		l.Infof("one")
		l.Debugf("two")
		if !strings.Contains(out.String(), "[info] one") || !strings.Contains(out.String(), "[debug] two") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("WarningsAlwaysShown", func(t *testing.T) {
		l, _, errOut := newTestLogger(false, false)
		l.Warnf("could not overwrite %s", "data")
		l.Errorf("failed")
		if !strings.Contains(errOut.String(), "[warn] could not overwrite data") {
			t.Errorf("missing warning in %q", errOut.String())
		}
		if !strings.Contains(errOut.String(), "[error] failed") {
			t.Errorf("missing error in %q", errOut.String())
		}
	})
}

func TestErrorfAndReturnWraps(t *testing.T) {
	sentinel := errors.New("sentinel")
	l, _, errOut := newTestLogger(false, false)

	err := l.ErrorfAndReturn("opening vault: %w", sentinel)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if errOut.Len() != 0 {
		t.Errorf("expected nothing logged without debug, got %q", errOut.String())
	}
}
