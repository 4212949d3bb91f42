package feed

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func entry(i int) Entry {
	return Entry{
		Time:      time.Date(2025, 6, 1, 12, 0, i, 0, time.UTC),
		Candidate: "Asha",
		Kind:      "tab-switch",
		Message:   fmt.Sprintf("violation %d", i),
	}
}

func TestAddCapsBuffer(t *testing.T) {
	var m Model
	for i := 0; i < maxEntries+25; i++ {
		m.Add(entry(i))
	}
	if m.Len() != maxEntries {
		t.Fatalf("Len() = %d, want %d", m.Len(), maxEntries)
	}
	out := m.View(120, maxEntries)
	if strings.Contains(out, "violation 24\n") {
		t.Fatal("oldest entries should have been dropped")
	}
	if !strings.Contains(out, fmt.Sprintf("violation %d", maxEntries+24)) {
		t.Fatal("newest entry should be kept")
	}
}

func TestAddResetsOffset(t *testing.T) {
	var m Model
	for i := 0; i < 10; i++ {
		m.Add(entry(i))
	}
	m.ScrollUp()
	m.ScrollUp()
	if m.Offset != 2 {
		t.Fatalf("Offset = %d, want 2", m.Offset)
	}
	m.Add(entry(10))
	if m.Offset != 0 {
		t.Fatal("Add should snap back to the tail")
	}
}

func TestScrollBounds(t *testing.T) {
	var m Model
	m.ScrollUp()
	if m.Offset != 0 {
		t.Fatal("ScrollUp on empty feed should be a no-op")
	}
	for i := 0; i < 3; i++ {
		m.Add(entry(i))
	}
	for i := 0; i < 10; i++ {
		m.ScrollUp()
	}
	if m.Offset != 2 {
		t.Fatalf("Offset = %d, want cap at len-1", m.Offset)
	}
	for i := 0; i < 10; i++ {
		m.ScrollDown()
	}
	if m.Offset != 0 {
		t.Fatalf("Offset = %d, want floor at 0", m.Offset)
	}
}

func TestViewWindowIsBottomAnchored(t *testing.T) {
	var m Model
	for i := 0; i < 10; i++ {
		m.Add(entry(i))
	}
	out := m.View(120, 3)
	if got := len(strings.Split(out, "\n")); got != 3 {
		t.Fatalf("View height = %d lines, want 3", got)
	}
	if !strings.Contains(out, "violation 9") {
		t.Fatal("latest entry should be visible at the tail")
	}
	if strings.Contains(out, "violation 6\n") {
		t.Fatal("entries above the window should be hidden")
	}

	m.ScrollUp()
	out = m.View(120, 3)
	if strings.Contains(out, "violation 9") {
		t.Fatal("scrolling up should hide the tail entry")
	}
	if !strings.Contains(out, "violation 8") {
		t.Fatal("scrolling up should reveal the previous entry")
	}
}

func TestViewTruncatesLongMessages(t *testing.T) {
	var m Model
	e := entry(0)
	e.Message = strings.Repeat("x", 400)
	m.Add(e)
	out := m.View(60, 1)
	if !strings.Contains(out, "…") {
		t.Fatal("long messages should be clipped with an ellipsis")
	}
}

func TestViewEmpty(t *testing.T) {
	var m Model
	if out := m.View(80, 4); !strings.Contains(out, "no violations") {
		t.Fatalf("empty View() = %q", out)
	}
}
