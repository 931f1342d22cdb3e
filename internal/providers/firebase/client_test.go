package firebase

import "testing"

func TestExtractBlobName(t *testing.T) {
	cases := []struct {
		url    string
		bucket string
		want   string
	}{
		{
			"https://storage.googleapis.com/my-proj.appspot.com/user_avatar/42/abc.jpg",
			"my-proj.appspot.com",
			"user_avatar/42/abc.jpg",
		},
		{
			// Firebase download URL form with escaped slashes and token.
			"https://firebasestorage.googleapis.com/v0/b/my-proj.appspot.com/o/user_avatar%2F42%2Fabc.jpg?alt=media&token=t",
			"my-proj.appspot.com",
			"user_avatar/42/abc.jpg",
		},
		{
			// Wrong bucket in path.
			"https://storage.googleapis.com/other-bucket/user_avatar/42/abc.jpg",
			"my-proj.appspot.com",
			"",
		},
		{"https://example.com/my-proj.appspot.com/user_avatar/42/abc.jpg", "my-proj.appspot.com", ""},
		{"https://firebasestorage.googleapis.com/v0/b/my-proj.appspot.com/no-object", "my-proj.appspot.com", ""},
		{"", "my-proj.appspot.com", ""},
	}
	for _, c := range cases {
		if got := ExtractBlobName(c.url, c.bucket); got != c.want {
			t.Errorf("ExtractBlobName(%q, %q) = %q, want %q", c.url, c.bucket, got, c.want)
		}
	}
}
