package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/vibeditor/backend/internal/interfaces"
)

// fakeService implements StorageService and records the calls it receives.
type fakeService struct {
	name      string
	uploads   int
	deletes   []string
	uploadErr error
}

func (f *fakeService) Upload(ctx context.Context, req *interfaces.UploadRequest) (*interfaces.UploadResult, error) {
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &interfaces.UploadResult{
		Success:     true,
		FileName:    req.FileType + "/" + req.UserID + "/fixed",
		DownloadURL: "https://" + f.name + ".example/" + req.FileType,
		Service:     f.name,
	}, nil
}

func (f *fakeService) Delete(ctx context.Context, downloadURL string) bool {
	f.deletes = append(f.deletes, downloadURL)
	return true
}

func (f *fakeService) SignedURL(ctx context.Context, downloadURL string, expiry time.Duration) string {
	return downloadURL + "?signed=1"
}

func (f *fakeService) List(ctx context.Context, userID, fileType string, limit int) []interfaces.FileDescriptor {
	return []interfaces.FileDescriptor{{FileName: f.name + "-file"}}
}

func (f *fakeService) Info() interfaces.ServiceInfo {
	return interfaces.ServiceInfo{Service: f.name}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func uploadReq(fileType string, size int64) *interfaces.UploadRequest {
	return &interfaces.UploadRequest{
		Content:  bytes.NewReader([]byte("data")),
		Size:     size,
		UserID:   "42",
		FileType: fileType,
	}
}

func TestUpload_ArchivalAffinityPrefersBackblaze(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	m := NewManagerWithServices(cld, b2, nil, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("remix_video", 1024), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceBackblaze {
		t.Fatalf("expected backblaze, got %s", res.Service)
	}
	if cld.uploads != 0 {
		t.Fatalf("cloudinary should not have been called")
	}
}

func TestUpload_ArchivalFallsBackToCloudinary(t *testing.T) {
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	fb := &fakeService{name: interfaces.ServiceFirebase}
	m := NewManagerWithServices(cld, nil, fb, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("remix_video", 1024), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceCloudinary {
		t.Fatalf("expected cloudinary fallback, got %s", res.Service)
	}
	if fb.uploads != 0 {
		t.Fatalf("firebase is not in the remix fallback chain")
	}
}

func TestUpload_EditorPrefersCloudinary(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	m := NewManagerWithServices(cld, b2, nil, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("editor_image", 1024), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceCloudinary {
		t.Fatalf("expected cloudinary, got %s", res.Service)
	}
}

func TestUpload_SharedResourcePrefersFirebase(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	fb := &fakeService{name: interfaces.ServiceFirebase}
	m := NewManagerWithServices(cld, b2, fb, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("user_avatar", 1024), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceFirebase {
		t.Fatalf("expected firebase, got %s", res.Service)
	}
}

func TestUpload_AutoSelectLargeFile(t *testing.T) {
	// 150MB with only backblaze configured: the large-file branch prefers
	// cloudinary then backblaze; availability scan lands on backblaze.
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	m := NewManagerWithServices(nil, b2, nil, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("mystery_blob", 150*1024*1024), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceBackblaze {
		t.Fatalf("expected backblaze, got %s", res.Service)
	}
}

func TestUpload_AutoSelectSmallFilePrefersFirebase(t *testing.T) {
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	fb := &fakeService{name: interfaces.ServiceFirebase}
	m := NewManagerWithServices(cld, nil, fb, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("mystery_blob", 1024), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceFirebase {
		t.Fatalf("expected firebase for small file, got %s", res.Service)
	}
}

func TestUpload_AutoSelectMidSizeFixedOrder(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	fb := &fakeService{name: interfaces.ServiceFirebase}
	m := NewManagerWithServices(nil, b2, fb, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("mystery_blob", 50*1024*1024), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceBackblaze {
		t.Fatalf("expected backblaze (first available in fixed order), got %s", res.Service)
	}
}

func TestUpload_NoServicesConfigured(t *testing.T) {
	m := NewManagerWithServices(nil, nil, nil, testLogger())

	_, err := m.Upload(context.Background(), uploadReq("remix_video", 1024), "")
	if !errors.Is(err, ErrNoStorageAvailable) {
		t.Fatalf("expected ErrNoStorageAvailable, got %v", err)
	}
}

func TestUpload_PreferenceHonoredWhenAvailable(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	m := NewManagerWithServices(cld, b2, nil, testLogger())

	res, err := m.Upload(context.Background(), uploadReq("editor_video", 1024), interfaces.ServiceBackblaze)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Service != interfaces.ServiceBackblaze {
		t.Fatalf("expected preferred backblaze, got %s", res.Service)
	}
}

func TestUpload_ConfiguredServiceFailureIsFatal(t *testing.T) {
	// A configured-but-failing service is not retried against the next
	// provider: fail fast, surface UploadError.
	b2 := &fakeService{name: interfaces.ServiceBackblaze, uploadErr: errors.New("quota exceeded")}
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	m := NewManagerWithServices(cld, b2, nil, testLogger())

	_, err := m.Upload(context.Background(), uploadReq("remix_video", 1024), "")
	var ue *UploadError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UploadError, got %v", err)
	}
	if ue.Service != interfaces.ServiceBackblaze {
		t.Fatalf("expected failure attributed to backblaze, got %s", ue.Service)
	}
	if cld.uploads != 0 {
		t.Fatalf("cloudinary must not be tried after a live backblaze failure")
	}
}

func TestDelete_InfersServiceFromURL(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	fb := &fakeService{name: interfaces.ServiceFirebase}
	m := NewManagerWithServices(cld, b2, fb, testLogger())

	cases := []struct {
		url  string
		want *fakeService
	}{
		{"https://s3.us-west-004.backblazeb2.com/remix/remix_video/42/a.mp4", b2},
		{"https://res.cloudinary.com/demo/video/upload/v1/editor_video/42/b.mp4", cld},
		{"https://storage.googleapis.com/bucket/user_avatar/42/c.jpg", fb},
	}
	for _, c := range cases {
		if !m.Delete(context.Background(), c.url, "") {
			t.Errorf("Delete(%q) = false, want true", c.url)
		}
		if len(c.want.deletes) != 1 || c.want.deletes[0] != c.url {
			t.Errorf("delete of %q routed to the wrong service", c.url)
		}
	}
}

func TestDelete_UnknownURLReturnsFalse(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	m := NewManagerWithServices(nil, b2, nil, testLogger())

	if m.Delete(context.Background(), "https://example.com/some/file.mp4", "") {
		t.Fatal("expected false for URL matching no provider pattern")
	}
	if len(b2.deletes) != 0 {
		t.Fatal("no adapter should have been called")
	}
}

func TestDelete_HintSkipsInference(t *testing.T) {
	fb := &fakeService{name: interfaces.ServiceFirebase}
	m := NewManagerWithServices(nil, nil, fb, testLogger())

	if !m.Delete(context.Background(), "https://example.com/opaque", interfaces.ServiceFirebase) {
		t.Fatal("expected hinted delete to reach firebase")
	}
}

func TestSignedURL_UnknownURLUnchanged(t *testing.T) {
	m := NewManagerWithServices(&fakeService{name: interfaces.ServiceCloudinary}, nil, nil, testLogger())

	in := "https://example.com/file.mp4"
	if got := m.SignedURL(context.Background(), in, time.Hour); got != in {
		t.Fatalf("expected unchanged URL, got %q", got)
	}
}

func TestSignedURL_DelegatesToOwningService(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	m := NewManagerWithServices(nil, b2, nil, testLogger())

	in := "https://s3.us-west-004.backblazeb2.com/remix/x"
	if got := m.SignedURL(context.Background(), in, time.Hour); got != in+"?signed=1" {
		t.Fatalf("expected signed URL, got %q", got)
	}
}

func TestServiceStatus_Idempotent(t *testing.T) {
	m := NewManagerWithServices(&fakeService{name: interfaces.ServiceCloudinary}, nil, nil, testLogger())

	first := m.ServiceStatus()
	second := m.ServiceStatus()
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected status for all three services, got %v", first)
	}
	for name, ok := range first {
		if second[name] != ok {
			t.Fatalf("status for %s changed between calls", name)
		}
	}
	if !first[interfaces.ServiceCloudinary] || first[interfaces.ServiceBackblaze] || first[interfaces.ServiceFirebase] {
		t.Fatalf("unexpected availability map: %v", first)
	}
}

func TestStorageInfo_OnlyAvailableServices(t *testing.T) {
	m := NewManagerWithServices(nil, &fakeService{name: interfaces.ServiceBackblaze}, nil, testLogger())

	info := m.StorageInfo()
	if len(info) != 1 {
		t.Fatalf("expected one entry, got %v", info)
	}
	if _, ok := info[interfaces.ServiceBackblaze]; !ok {
		t.Fatalf("expected backblaze entry, got %v", info)
	}
}

func TestListFiles_MergesUpToLimit(t *testing.T) {
	b2 := &fakeService{name: interfaces.ServiceBackblaze}
	cld := &fakeService{name: interfaces.ServiceCloudinary}
	m := NewManagerWithServices(cld, b2, nil, testLogger())

	files := m.ListFiles(context.Background(), "42", "", 1)
	if len(files) != 1 {
		t.Fatalf("expected limit to cap merged listing, got %d entries", len(files))
	}
	if files[0].FileName != interfaces.ServiceCloudinary+"-file" {
		t.Fatalf("expected cloudinary listed first, got %q", files[0].FileName)
	}
}
