package backblaze

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractKey(t *testing.T) {
	cases := []struct {
		url    string
		bucket string
		want   string
	}{
		{
			"https://s3.us-west-004.backblazeb2.com/remix-media/remix_video/42/abc.mp4",
			"remix-media",
			"remix_video/42/abc.mp4",
		},
		{
			// Friendly download URL form.
			"https://f004.backblazeb2.com/file/remix-media/remix_video/42/abc.mp4",
			"remix-media",
			"remix_video/42/abc.mp4",
		},
		{
			// Wrong bucket in path.
			"https://s3.us-west-004.backblazeb2.com/other-bucket/remix_video/42/abc.mp4",
			"remix-media",
			"",
		},
		{"https://example.com/remix-media/remix_video/42/abc.mp4", "remix-media", ""},
		{"https://s3.us-west-004.backblazeb2.com/remix-media/", "remix-media", ""},
		{"", "remix-media", ""},
	}
	for _, c := range cases {
		if got := ExtractKey(c.url, c.bucket); got != c.want {
			t.Errorf("ExtractKey(%q, %q) = %q, want %q", c.url, c.bucket, got, c.want)
		}
	}
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(Config{Bucket: "b", Endpoint: "s3.us-west-004.backblazeb2.com"}, testLogger(t))
	if err == nil {
		t.Fatal("expected error for missing credentials, got nil")
	}
}

func TestNewClient_MissingEndpoint(t *testing.T) {
	_, err := NewClient(Config{KeyID: "k", AppKey: "s", Bucket: "b"}, testLogger(t))
	if err == nil {
		t.Fatal("expected error for missing endpoint, got nil")
	}
}
