package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	specs := []struct {
		in     string
		exp    Level
		expErr bool
	}{
		{"debug", Debug, false},
		{"INFO", Info, false},
		{"", Notice, false},
		{" warn ", Warning, false},
		{"error", Error, false},
		{"chatty", Notice, true},
	}

	for specIndex, spec := range specs {
		level, err := ParseLevel(spec.in)
		if spec.expErr != (err != nil) {
			t.Fatalf("[spec %d] expected error: %t; got %v", specIndex, spec.expErr, err)
		}
		if level != spec.exp {
			t.Fatalf("[spec %d] expected level %d; got %d", specIndex, spec.exp, level)
		}
	}
}

func TestSinkAndLevel(t *testing.T) {
	defer func() {
		SetSink(os.Stdout)
		SetLevel(Notice)
	}()

	var buf bytes.Buffer
	SetSink(&buf)
	SetLevel(Warning)

	logger := New("test")
	logger.Noticef("hidden %d", 1)
	logger.Warningf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected notice message to be filtered; got %q", out)
	}
	if !strings.Contains(out, "shown 2") || !strings.Contains(out, "[test]") {
		t.Fatalf("expected warning message with module name; got %q", out)
	}
}

func TestModuleLevels(t *testing.T) {
	defer func() {
		ResetModuleLevels()
		SetSink(os.Stdout)
		SetLevel(Notice)
	}()

	var buf bytes.Buffer
	SetSink(&buf)
	SetLevel(Warning)
	SetModuleLevel("chatty", Debug)

	if got := GetLevel("chatty"); got != Debug {
		t.Fatalf("expected chatty module level to be debug; got %s", got)
	}
	if got := GetLevel("quiet"); got != Warning {
		t.Fatalf("expected unknown module to use the default level; got %s", got)
	}

	New("chatty").Debugf("verbose %d", 1)
	New("quiet").Noticef("dropped %d", 2)

	// Sink changes keep module levels.
	var buf2 bytes.Buffer
	SetSink(&buf2)
	New("chatty").Infof("still verbose %d", 3)

	if out := buf.String(); !strings.Contains(out, "verbose 1") || strings.Contains(out, "dropped") {
		t.Fatalf("expected only the chatty module to log below warning; got %q", out)
	}
	if out := buf2.String(); !strings.Contains(out, "still verbose 3") {
		t.Fatalf("expected module level to survive a sink change; got %q", out)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatal("expected no color codes when logging to a buffer")
	}

	ResetModuleLevels()
	if got := GetLevel("chatty"); got != Warning {
		t.Fatalf("expected reset to restore the default level; got %s", got)
	}
	buf2.Reset()
	New("chatty").Infof("hidden")
	if buf2.Len() != 0 {
		t.Fatalf("expected info message to be filtered after reset; got %q", buf2.String())
	}
}
