package cloudinary

import "testing"

func TestExtractPublicID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{
			"https://res.cloudinary.com/demo/video/upload/v1712345678/editor_video/42/abc-def.mp4",
			"editor_video/42/abc-def",
		},
		{
			// No version segment.
			"https://res.cloudinary.com/demo/image/upload/editor_image/42/xyz.png",
			"editor_image/42/xyz",
		},
		{
			// Raw assets keep their extension in the public ID.
			"https://res.cloudinary.com/demo/raw/upload/v99/project_export/42/report.json",
			"project_export/42/report.json",
		},
		{
			// Query parameters are dropped.
			"https://res.cloudinary.com/demo/video/upload/v1/a/b/c.mp4?x=1",
			"a/b/c",
		},
		{"https://example.com/video/upload/a/b.mp4", ""},
		{"https://res.cloudinary.com/demo/video/fetch/a/b.mp4", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := ExtractPublicID(c.url); got != c.want {
			t.Errorf("ExtractPublicID(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestResourceTypeFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/video/upload/v1/a.mp4", "video"},
		{"https://res.cloudinary.com/demo/image/upload/v1/a.png", "image"},
		{"https://res.cloudinary.com/demo/raw/upload/v1/a.json", "raw"},
		{"https://res.cloudinary.com/demo/other/upload/v1/a", "auto"},
	}
	for _, c := range cases {
		if got := ResourceTypeFromURL(c.url); got != c.want {
			t.Errorf("ResourceTypeFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestResourceTypeFor(t *testing.T) {
	cases := []struct {
		contentType string
		ext         string
		want        string
	}{
		{"video/mp4", "", "video"},
		{"audio/mpeg", "", "video"}, // cloudinary treats audio as video
		{"image/png", "", "image"},
		{"application/octet-stream", ".mov", "video"},
		{"", ".MP3", "video"},
		{"", ".jpeg", "image"},
		{"application/pdf", ".pdf", "raw"},
		{"", "", "raw"},
	}
	for _, c := range cases {
		if got := resourceTypeFor(c.contentType, c.ext); got != c.want {
			t.Errorf("resourceTypeFor(%q, %q) = %q, want %q", c.contentType, c.ext, got, c.want)
		}
	}
}

func TestIsVersionSegment(t *testing.T) {
	for s, want := range map[string]bool{
		"v1712345678": true,
		"v1":          true,
		"v":           false,
		"version":     false,
		"editor":      false,
		"42":          false,
	} {
		if got := isVersionSegment(s); got != want {
			t.Errorf("isVersionSegment(%q) = %v, want %v", s, got, want)
		}
	}
}
