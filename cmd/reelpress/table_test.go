package main

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Title", "Files"},
		[][]string{{"対談動画", "2"}, {"グルコン"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "対談動画") || !strings.Contains(out, "グルコン") {
		t.Fatalf("table missing rows:\n%s", out)
	}
	if !strings.Contains(out, "Title") {
		t.Fatalf("table missing header:\n%s", out)
	}
}

func TestRenderTableEmptyHeaders(t *testing.T) {
	if out := renderTable(nil, nil, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:     "512 B",
		2 << 10: "2.0 KiB",
		5 << 20: "5.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for input, want := range cases {
		if got := formatBytes(input); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", input, got, want)
		}
	}
}
