package runtime

import "testing"

func TestGridCellGeometryCenterAndWithin(t *testing.T) {
	a := NewGridCellGeometry(0, 0, 10)
	b := NewGridCellGeometry(0, 1, 10)

	ax, ay, az := a.Center()
	if ax != 5 || ay != 5 || az != nil {
		t.Fatalf("unexpected center for (0,0): (%v,%v,%v)", ax, ay, az)
	}

	if !a.Within(b, 15) {
		t.Fatalf("expected adjacent cells within radius 15")
	}
	if a.Within(b, 5) {
		t.Fatalf("expected adjacent cells not within radius 5")
	}
}

func TestGridCellGeometryAreaAndLength(t *testing.T) {
	g := NewGridCellGeometry(2, 3, 4)
	area, _ := g.Area()
	if area != 16 {
		t.Fatalf("expected area 16, got %v", area)
	}
	length, u := g.Length()
	if length != 4 || u.String() != "meters" {
		t.Fatalf("unexpected length %v %v", length, u)
	}
}
