package pcb

import "testing"

func TestAddRemoveChild(t *testing.T) {
	parent := New(1, 2, 512)
	c1 := New(2, 2, 512)
	c2 := New(3, 2, 512)

	AddChild(parent, c1)
	AddChild(parent, c2)
	if !parent.HasChildren() {
		t.Fatal("expected parent to have children")
	}
	if parent.FirstChild != c2 {
		t.Fatal("expected most recently added child first")
	}

	RemoveChild(parent, c1)
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == c1 {
			t.Fatal("c1 should have been unlinked")
		}
	}
}

func TestOrphanChildren(t *testing.T) {
	dying := New(1, 2, 512)
	c1 := New(3, 2, 512)
	c2 := New(4, 2, 512)
	AddChild(dying, c1)
	AddChild(dying, c2)

	OrphanChildren(dying)

	if dying.HasChildren() {
		t.Fatal("dying should have no children left")
	}
	if c1.Parent != nil || c2.Parent != nil {
		t.Fatal("orphaned children should have a nil Parent")
	}
	if c1.NextSibling != nil || c2.NextSibling != nil {
		t.Fatal("orphaned children should be unlinked from each other")
	}
}

func TestFindExitedChild(t *testing.T) {
	parent := New(1, 2, 512)
	c1 := New(2, 2, 512)
	c2 := New(3, 2, 512)
	AddChild(parent, c1)
	AddChild(parent, c2)

	if parent.FindExitedChild() != nil {
		t.Fatal("expected no exited child yet")
	}
	c1.Exited = true
	c1.ExitStatus = 7
	got := parent.FindExitedChild()
	if got != c1 {
		t.Fatal("expected c1 to be found as exited")
	}
}

func TestResourceList(t *testing.T) {
	p := New(1, 2, 512)
	p.AddResource(0, 0x10000)
	p.AddResource(1, 0x20000)
	if !p.RemoveResource(0x10000) {
		t.Fatal("expected removal to succeed")
	}
	if p.RemoveResource(0x10000) {
		t.Fatal("expected second removal to fail")
	}
}
