package location

import "testing"

func TestChunkCoordsFloorNegatives(t *testing.T) {
	tests := []struct {
		x, z         int
		wantX, wantZ int
	}{
		{0, 0, 0, 0},
		{15, 16, 0, 1},
		{-1, -16, -1, -1},
		{-17, 33, -2, 2},
	}
	for _, tc := range tests {
		got := BlockLocation{World: "world", X: tc.x, Z: tc.z}.ChunkCoords()
		if got.X != tc.wantX || got.Z != tc.wantZ || got.World != "world" {
			t.Fatalf("chunk of (%d,%d) = %v, want (%d,%d)", tc.x, tc.z, got, tc.wantX, tc.wantZ)
		}
	}
}

func TestLocationBlockFloors(t *testing.T) {
	got := Location{World: "w", X: -0.5, Y: 64.9, Z: 3.2}.Block()
	want := BlockLocation{World: "w", X: -1, Y: 64, Z: 3}
	if got != want {
		t.Fatalf("block = %v, want %v", got, want)
	}
}

func TestIsEmpty(t *testing.T) {
	if !(BlockLocation{}).IsEmpty() {
		t.Fatal("expected zero location to be empty")
	}
	if (BlockLocation{Y: 1}).IsEmpty() {
		t.Fatal("expected location with coordinates to be non-empty")
	}
}

func TestParseFace(t *testing.T) {
	face, err := ParseFace(" North ")
	if err != nil || face != FaceNorth {
		t.Fatalf("face = %q, %v", face, err)
	}
	if _, err := ParseFace("sideways"); err == nil {
		t.Fatal("expected error for unknown face")
	}
	if FaceUp.IsHorizontal() {
		t.Fatal("up is not horizontal")
	}
}

func TestFormatYaw(t *testing.T) {
	if got := FormatYaw(90); got != "90.00" {
		t.Fatalf("yaw = %q, want 90.00", got)
	}
}
