package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInspectParsesStubOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("stub binaries require a POSIX shell")
	}
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffprobe")
	script := `#!/bin/sh
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video"},{"index":1,"codec_type":"audio","channels":2}],"format":{"filename":"in.mp4","nb_streams":2,"duration":"123.500000"}}
JSON
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), stub, "in.mp4")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if got := result.DurationSeconds(); got != 123.5 {
		t.Fatalf("duration = %v, want 123.5", got)
	}
	if got := result.AudioStreamCount(); got != 1 {
		t.Fatalf("audio streams = %d, want 1", got)
	}
}

func TestDurationSecondsHandlesGarbage(t *testing.T) {
	r := Result{Format: Format{Duration: "not-a-number"}}
	if got := r.DurationSeconds(); got != 0 {
		t.Fatalf("duration = %v, want 0", got)
	}
}
