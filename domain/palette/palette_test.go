package palette

import "testing"

func TestDefaultColorIsPublic(t *testing.T) {
	if !IsPublic(DefaultColor) {
		t.Fatalf("IsPublic(%q) = false, want true", DefaultColor)
	}
}

func TestIsPublic(t *testing.T) {
	if IsPublic("#FFC93A") {
		t.Error("IsPublic(locked color) = true, want false")
	}
	if IsPublic("#000000") {
		t.Error("IsPublic(unknown color) = true, want false")
	}
}

func TestIsKnown(t *testing.T) {
	for _, hex := range []string{"#8A2BE2", "#3B82F6", "#FFC93A", "#EF4444"} {
		if !IsKnown(hex) {
			t.Errorf("IsKnown(%q) = false, want true", hex)
		}
	}
	if IsKnown("#123456") {
		t.Error("IsKnown(unknown color) = true, want false")
	}
}
