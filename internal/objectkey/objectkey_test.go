package objectkey

import (
	"strings"
	"testing"
)

func TestNew_UniquePerCall(t *testing.T) {
	a := New("remix_video", "42", ".mp4")
	b := New("remix_video", "42", ".mp4")
	if a == b {
		t.Fatalf("expected distinct keys for identical inputs, got %q twice", a)
	}
}

func TestNew_Decomposes(t *testing.T) {
	key := New("editor_image", "user-7", ".png")
	if !strings.HasPrefix(key, "editor_image/user-7/") {
		t.Fatalf("key %q does not start with fileType/userID/", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("key %q lost its extension", key)
	}
	ft, uid, ok := Parse(key)
	if !ok || ft != "editor_image" || uid != "user-7" {
		t.Fatalf("Parse(%q) = %q, %q, %v", key, ft, uid, ok)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, key := range []string{"", "noslash", "a/b", "/x/y"} {
		if _, _, ok := Parse(key); ok {
			t.Errorf("Parse(%q) unexpectedly succeeded", key)
		}
	}
}

func TestBelongsTo(t *testing.T) {
	key := New("user_avatar", "9", ".jpg")
	if !BelongsTo(key, "9", "user_avatar") {
		t.Errorf("key %q should belong to user 9 / user_avatar", key)
	}
	if !BelongsTo(key, "9", "") {
		t.Errorf("key %q should belong to user 9 with no type filter", key)
	}
	if BelongsTo(key, "10", "") {
		t.Errorf("key %q should not belong to user 10", key)
	}
	if BelongsTo(key, "9", "remix_video") {
		t.Errorf("key %q should not match type remix_video", key)
	}
}

func TestExt_ContentTypeWins(t *testing.T) {
	cases := []struct {
		contentType string
		filename    string
		want        string
	}{
		{"video/mp4", "clip.mov", ".mp4"}, // declared type beats extension
		{"video/mp4; codecs=avc1", "clip.mov", ".mp4"},
		{"application/octet-stream", "clip.MOV", ".mov"}, // unknown type falls back
		{"", "archive.TAR", ".tar"},
		{"", "noext", ""},
		{"text/x-unknown", "", ""},
	}
	for _, c := range cases {
		if got := Ext(c.contentType, c.filename); got != c.want {
			t.Errorf("Ext(%q, %q) = %q, want %q", c.contentType, c.filename, got, c.want)
		}
	}
}

func TestPrefix(t *testing.T) {
	if got := Prefix("remix_video", "42"); got != "remix_video/42/" {
		t.Errorf("Prefix with type = %q", got)
	}
	if got := Prefix("", "42"); got != "" {
		t.Errorf("Prefix without type = %q, want empty", got)
	}
}
