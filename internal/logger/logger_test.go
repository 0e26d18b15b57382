package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
)

// capture redirects log output into a buffer and restores defaults when
// the test ends.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t)

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	tests := []struct {
		name string
		log  func()
		want string
	}{
		{
			name: "debug",
			log:  func() { Debug("routing %s to %s", "export.csv", "text/csv") },
			want: "[DEBUG] routing export.csv to text/csv\n",
		},
		{
			name: "info",
			log:  func() { Info("processed %d files", 4) },
			want: "[INFO] processed 4 files\n",
		},
		{
			name: "warn",
			log:  func() { Warn("skipping malformed block at line %d", 17) },
			want: "[WARN] skipping malformed block at line 17\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			SetVerbose(true)

			tt.log()

			if got := buf.String(); got != tt.want {
				t.Errorf("unexpected output: %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLevels_WhenNotVerbose(t *testing.T) {
	buf := capture(t)
	SetVerbose(false)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("hidden")

	if buf.Len() > 0 {
		t.Errorf("expected no output when verbose is disabled, got %q", buf.String())
	}
}

func TestSection(t *testing.T) {
	buf := capture(t)
	SetVerbose(true)

	Section("Scan Summary")

	got := buf.String()
	if !strings.Contains(got, "=== Scan Summary ===") {
		t.Errorf("expected section header, got %q", got)
	}
	if !strings.HasPrefix(got, "\n") {
		t.Errorf("expected leading blank line, got %q", got)
	}
}

func TestConcurrentUse(t *testing.T) {
	capture(t)
	SetVerbose(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Info("worker message")
		}()
		go func() {
			defer wg.Done()
			_ = IsVerbose()
		}()
	}
	wg.Wait()
}
