package debug

import (
	"fmt"
	"strings"
	"testing"
)

func TestAddCapsEntries(t *testing.T) {
	var m Model
	for i := 0; i < maxEntries+10; i++ {
		m.Add(KindWS, fmt.Sprintf("line %d", i))
	}
	if m.Len() != maxEntries {
		t.Fatalf("Len() = %d, want %d", m.Len(), maxEntries)
	}
}

func TestAddResetsOffset(t *testing.T) {
	var m Model
	m.Add(KindWS, "a")
	m.Add(KindErr, "b")
	m.Add(KindNav, "c")
	m.ScrollUp()
	if m.Offset != 1 {
		t.Fatalf("Offset = %d, want 1", m.Offset)
	}
	m.Add(KindVio, "d")
	if m.Offset != 0 {
		t.Fatal("Add should reset the scroll offset")
	}
}

func TestScrollUpCap(t *testing.T) {
	var m Model
	m.Add(KindWS, "a")
	m.Add(KindWS, "b")
	for i := 0; i < 5; i++ {
		m.ScrollUp()
	}
	if m.Offset != 1 {
		t.Fatalf("Offset = %d, want cap at len-1", m.Offset)
	}
}

func TestViewShowsTail(t *testing.T) {
	var m Model
	for i := 0; i < 6; i++ {
		m.Add(KindWS, fmt.Sprintf("line %d", i))
	}
	out := m.View(80, 2)
	if !strings.Contains(out, "line 5") {
		t.Fatalf("View should show the newest line:\n%s", out)
	}
	if strings.Contains(out, "line 3\n") {
		t.Fatalf("View should clip to the window:\n%s", out)
	}
}

func TestViewEmpty(t *testing.T) {
	var m Model
	if out := m.View(80, 4); !strings.Contains(out, "log empty") {
		t.Fatalf("empty View() = %q", out)
	}
}
