package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/hejijunhao/edgepair/pkg/edgepair"
)

func newTestRenderer() Renderer {
	return NewRenderer(60, "raspi1", "raspi2", DefaultTheme)
}

func TestRenderLeftIsLeftAligned(t *testing.T) {
	out := newTestRenderer().Render(edgepair.Entry{Left: &edgepair.Payload{Text: "🚚 Deploying module camera"}})

	if !strings.Contains(out, "raspi1") {
		t.Fatalf("missing device name: %q", out)
	}
	if !strings.Contains(out, "Deploying module camera") {
		t.Fatalf("missing text: %q", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, " ") {
			t.Fatalf("left bubble line is indented: %q", line)
		}
	}
}

func TestRenderRightIsRightAligned(t *testing.T) {
	out := newTestRenderer().Render(edgepair.Entry{Right: &edgepair.Payload{Text: "ok"}})

	lines := strings.Split(out, "\n")
	if !strings.Contains(out, "raspi2") {
		t.Fatalf("missing device name: %q", out)
	}
	for _, line := range lines {
		if w := lipgloss.Width(line); w != 60 {
			t.Fatalf("right bubble line width = %d, want 60: %q", w, line)
		}
		if !strings.HasPrefix(line, " ") {
			t.Fatalf("right bubble line not padded: %q", line)
		}
	}
}

func TestRenderBothSides(t *testing.T) {
	out := newTestRenderer().Render(edgepair.Entry{
		Left:  &edgepair.Payload{Text: "from the left"},
		Right: &edgepair.Payload{Text: "from the right"},
	})
	l := strings.Index(out, "from the left")
	r := strings.Index(out, "from the right")
	if l < 0 || r < 0 || l > r {
		t.Fatalf("expected left above right: %q", out)
	}
}

func TestRenderImage(t *testing.T) {
	out := newTestRenderer().Render(edgepair.Entry{Left: &edgepair.Payload{
		Image:   "/figures/subcall.png",
		Caption: "📡 Sub-call to raspi2",
	}})
	if !strings.Contains(out, "/figures/subcall.png") || !strings.Contains(out, "Sub-call to raspi2") {
		t.Fatalf("missing image or caption: %q", out)
	}
}

func TestEmphasize(t *testing.T) {
	tests := []struct {
		in       string
		contains string
		noStars  bool
	}{
		{"camera result: **cat**", "cat", true},
		{"plain", "plain", true},
		{"broken **marker", "**marker", false},
	}
	for _, tt := range tests {
		got := emphasize(tt.in)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("emphasize(%q) = %q, missing %q", tt.in, got, tt.contains)
		}
		if tt.noStars && strings.Contains(got, "**") {
			t.Errorf("emphasize(%q) = %q, markers left in", tt.in, got)
		}
	}
}

func TestRunStopsWhenChannelCloses(t *testing.T) {
	ch := make(chan edgepair.Entry, 2)
	ch <- edgepair.Entry{Left: &edgepair.Payload{Text: "one"}}
	ch <- edgepair.Entry{Right: &edgepair.Payload{Text: "two"}}
	close(ch)

	var buf bytes.Buffer
	if err := Run(context.Background(), &buf, newTestRenderer(), ch); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "one") > strings.Index(out, "two") {
		t.Fatalf("entries out of order: %q", out)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, &bytes.Buffer{}, newTestRenderer(), make(chan edgepair.Entry)); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
