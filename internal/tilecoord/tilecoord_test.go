package tilecoord

import "testing"

func TestNew_WrapsOutOfRangeIndices(t *testing.T) {
	c := New(2, 5, 9)
	if c.X != 1 || c.Y != 1 {
		t.Fatalf("New(2,5,9) = %+v, want X=1 Y=1 (mod 4)", c)
	}
}

func TestNew_ClampsZoom(t *testing.T) {
	c := New(255, 0, 0)
	if c.Zoom != MaxZoom {
		t.Fatalf("New clamped zoom = %d, want %d", c.Zoom, MaxZoom)
	}
}

func TestCompare_TotalOrder(t *testing.T) {
	a := New(1, 0, 0)
	b := New(1, 0, 1)
	c := New(2, 0, 0)

	if a.Compare(a) != 0 {
		t.Fatal("a coord must compare equal to itself")
	}
	if a.Compare(b) >= 0 {
		t.Fatal("(1,0,0) must sort before (1,0,1)")
	}
	if b.Compare(a) <= 0 {
		t.Fatal("Compare must be antisymmetric")
	}
	if a.Compare(c) >= 0 {
		t.Fatal("lower zoom must sort before higher zoom regardless of x/y")
	}
}

func TestString(t *testing.T) {
	c := New(3, 4, 5)
	if got := c.String(); got != "3/4/5" {
		t.Fatalf("String() = %q, want %q", got, "3/4/5")
	}
}

func TestTileCount(t *testing.T) {
	c := New(4, 0, 0)
	if got := c.TileCount(); got != 16 {
		t.Fatalf("TileCount() = %d, want 16", got)
	}
}

func TestCoord_UsableAsMapKey(t *testing.T) {
	m := map[Coord]int{}
	m[New(1, 2, 3)] = 42
	if m[New(1, 2, 3)] != 42 {
		t.Fatal("Coord must compare equal by value for use as a map key")
	}
}
