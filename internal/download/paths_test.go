package download

import (
	"path/filepath"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"Lion", "lion"},
		{"Grey Wolf", "grey_wolf"},
		{`bad<>:"/\|?*chars`, "bad_________chars"},
		{"  padded  ", "padded"},
		{"", "unknown_animal"},
		{"///", "unknown_animal"},
	}
	for _, tc := range cases {
		if got := SanitizeKey(tc.in); got != tc.want {
			t.Fatalf("SanitizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeKeyBoundsLength(t *testing.T) {
	t.Parallel()

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	if got := SanitizeKey(string(long)); len(got) != 50 {
		t.Fatalf("expected 50-char stem, got %d", len(got))
	}
}

func TestExtensionFromURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"https://img.example/lion.png", ".png"},
		{"https://img.example/lion.JPEG", ".jpeg"},
		{"https://img.example/lion.png?width=120", ".png"},
		{"https://img.example/lion", ".jpg"},
		{"https://img.example/archive.tar.gz", ".jpg"},
		{"://not-a-url", ".jpg"},
	}
	for _, tc := range cases {
		if got := ExtensionFromURL(tc.in); got != tc.want {
			t.Fatalf("ExtensionFromURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLocalPathIsDeterministic(t *testing.T) {
	t.Parallel()

	a := LocalPath("/tmp/images", "Grey Wolf", "https://img.example/wolf.png")
	b := LocalPath("/tmp/images", "Grey Wolf", "https://img.example/wolf.png")
	if a != b {
		t.Fatalf("expected deterministic path, got %q and %q", a, b)
	}
	want := filepath.Join("/tmp/images", "grey_wolf_image.png")
	if a != want {
		t.Fatalf("LocalPath = %q, want %q", a, want)
	}
}
