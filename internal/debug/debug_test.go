package debug

import (
	"bytes"
	"strings"
	"testing"
)

func TestEnabled(t *testing.T) {
	tests := []struct {
		name    string
		env     bool
		verbose bool
		want    bool
	}{
		{"env only", true, false, true},
		{"verbose only", false, true, true},
		{"neither", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldEnabled, oldVerbose := enabled, verboseMode
			defer func() { enabled, verboseMode = oldEnabled, oldVerbose }()

			enabled = tt.env
			SetVerbose(tt.verbose)

			if got := Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogf(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		want    string
	}{
		{"outputs when enabled", true, "test message: hello"},
		{"no output when disabled", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldEnabled := enabled
			defer func() { enabled = oldEnabled }()
			enabled = tt.enabled

			var buf bytes.Buffer
			SetOutput(&buf)

			Logf("test message: %s\n", "hello")

			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("expected no output, got %q", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) || !strings.Contains(buf.String(), "DEBUG") {
				t.Errorf("output %q missing %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWarnfRespectsQuiet(t *testing.T) {
	oldQuiet := quietMode
	defer func() { quietMode = oldQuiet }()

	var buf bytes.Buffer
	SetOutput(&buf)

	SetQuiet(false)
	Warnf("state corrupted: %s", "bad json")
	if !strings.Contains(buf.String(), "state corrupted: bad json") {
		t.Errorf("warning not written: %q", buf.String())
	}

	buf.Reset()
	SetQuiet(true)
	Warnf("hidden")
	if buf.Len() != 0 {
		t.Errorf("quiet mode should suppress warnings, got %q", buf.String())
	}
}

func TestPrintNormal(t *testing.T) {
	oldQuiet := quietMode
	defer func() { quietMode = oldQuiet }()

	var buf bytes.Buffer
	SetStdout(&buf)

	SetQuiet(false)
	PrintNormal("hello %s\n", "world")
	PrintlnNormal("line")
	if buf.String() != "hello world\nline\n" {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	SetQuiet(true)
	PrintNormal("hidden\n")
	PrintlnNormal("hidden")
	if buf.Len() != 0 {
		t.Errorf("quiet mode should suppress output, got %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	oldEnabled := enabled
	defer func() {
		enabled = oldEnabled
		SetOutput(&bytes.Buffer{})
	}()

	if err := SetLevel("bogus"); err == nil {
		t.Error("expected error for invalid level")
	}
	enabled = false
	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel(debug): %v", err)
	}
	if !Enabled() {
		t.Error("debug level should enable Logf")
	}
}
