package uploader_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yeisme/creativevault/pkg/internal/capture/uploader"
)

func TestHTTPIngestor_Success(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "shot.png")

	if err := os.WriteFile(media, []byte("png-bytes"), 0o600); err != nil {
		t.Fatalf("write media: %v", err)
	}

	type captured struct {
		fields   map[string]string
		media    string
		hasThumb bool
	}

	seen := make(chan captured, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		got := captured{fields: map[string]string{}}
		for k, v := range r.MultipartForm.Value {
			got.fields[k] = v[0]
		}

		if f, _, err := r.FormFile("media_file"); err == nil {
			b, _ := io.ReadAll(f)
			got.media = string(b)
			_ = f.Close()
		}

		_, _, err := r.FormFile("thumbnail_file")
		got.hasThumb = err == nil
		seen <- got

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"creative":{"id":7,"title":"Spring"},`+
			`"urls":{"mediaUrl":"https://cdn/m.png","thumbnailUrl":null,"downloadUrl":"https://x/y.zip"},`+
			`"fileUploads":{"media":true,"thumbnail":false,"archive":true}}`)
	}))
	defer srv.Close()

	ing := uploader.NewHTTPIngestor(srv.URL)

	reg, err := ing.Register(context.Background(), &uploader.Submission{
		Title:       "Spring",
		Format:      "image",
		Type:        "banner",
		Placement:   "feed",
		Platform:    "facebook",
		Cloaking:    true,
		LandingURL:  "https://shop.example.com",
		CapturedAt:  time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		DownloadURL: "https://x/y.zip",
		MediaPath:   media,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if reg.Creative == nil || reg.Creative.ID != 7 {
		t.Fatalf("unexpected creative %+v", reg.Creative)
	}

	if !reg.FileUploads.Media || reg.FileUploads.Thumbnail || reg.URLs.DownloadURL == nil {
		t.Errorf("unexpected registration %+v", reg)
	}

	got := <-seen

	want := map[string]string{
		"title":        "Spring",
		"format":       "image",
		"cloaking":     "true",
		"captured_at":  "2025-03-01T09:30:00Z",
		"download_url": "https://x/y.zip",
		"landing_url":  "https://shop.example.com",
	}
	for k, v := range want {
		if got.fields[k] != v {
			t.Errorf("field %s: expected %q, got %q", k, v, got.fields[k])
		}
	}

	if got.media != "png-bytes" {
		t.Errorf("expected media bytes, got %q", got.media)
	}

	if got.hasThumb {
		t.Error("thumbnail must be omitted when no path is set")
	}
}

func TestHTTPIngestor_NoDownloadURLField(t *testing.T) {
	present := make(chan bool, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		_, ok := r.MultipartForm.Value["download_url"]
		present <- ok

		_, _ = io.WriteString(w, `{"success":true,"creative":{"id":1}}`)
	}))
	defer srv.Close()

	if _, err := uploader.NewHTTPIngestor(srv.URL).Register(context.Background(), &uploader.Submission{Title: "t"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if <-present {
		t.Error("download_url must be omitted without an archive")
	}
}

func TestHTTPIngestor_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"success":false,"error":"unknown reference code","code":"UnknownReferenceCode",`+
			`"details":{"format":"unknown format code \"video\""}}`)
	}))
	defer srv.Close()

	_, err := uploader.NewHTTPIngestor(srv.URL).Register(context.Background(), &uploader.Submission{Title: "t"})
	if !errors.Is(err, uploader.ErrIngestionRejected) {
		t.Fatalf("expected ErrIngestionRejected, got %v", err)
	}

	var rej *uploader.RejectionError
	if !errors.As(err, &rej) {
		t.Fatalf("expected *RejectionError, got %T", err)
	}

	if rej.Status != http.StatusBadRequest || rej.Code != "UnknownReferenceCode" || rej.Details["format"] == "" {
		t.Errorf("unexpected rejection %+v", rej)
	}
}

func TestHTTPIngestor_UnparseableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer srv.Close()

	_, err := uploader.NewHTTPIngestor(srv.URL).Register(context.Background(), &uploader.Submission{})

	var rej *uploader.RejectionError
	if !errors.As(err, &rej) || rej.Status != http.StatusBadGateway {
		t.Fatalf("expected 502 rejection, got %v", err)
	}
}

func TestHTTPIngestor_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)

		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"error":"boom"}`)
	}))
	defer srv.Close()

	ing := uploader.NewHTTPIngestor(srv.URL, uploader.WithCircuitBreaker(gobreaker.Settings{
		Name:        "ingest-test",
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 },
	}))

	for range 2 {
		if _, err := ing.Register(context.Background(), &uploader.Submission{}); !errors.Is(err, uploader.ErrIngestionRejected) {
			t.Fatalf("expected rejection, got %v", err)
		}
	}

	_, err := ing.Register(context.Background(), &uploader.Submission{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}

	if n := calls.Load(); n != 2 {
		t.Errorf("expected breaker to stop the third call, got %d calls", n)
	}
}

func TestHTTPIngestor_VanishedImagesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	thumb := filepath.Join(dir, "thumb.png")

	if err := os.WriteFile(thumb, []byte("thumb-bytes"), 0o600); err != nil {
		t.Fatalf("write thumbnail: %v", err)
	}

	type parts struct {
		media, thumb bool
		title        string
	}

	seen := make(chan parts, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		}

		_, _, mediaErr := r.FormFile("media_file")
		_, _, thumbErr := r.FormFile("thumbnail_file")
		seen <- parts{media: mediaErr == nil, thumb: thumbErr == nil, title: r.FormValue("title")}

		_, _ = io.WriteString(w, `{"success":true,"creative":{"id":3}}`)
	}))
	defer srv.Close()

	reg, err := uploader.NewHTTPIngestor(srv.URL).Register(context.Background(), &uploader.Submission{
		Title:         "Spring",
		MediaPath:     filepath.Join(dir, "vanished.png"),
		ThumbnailPath: thumb,
	})
	if err != nil {
		t.Fatalf("register must succeed without the vanished image: %v", err)
	}

	if reg.Creative == nil || reg.Creative.ID != 3 {
		t.Fatalf("unexpected creative %+v", reg.Creative)
	}

	got := <-seen
	if got.media || !got.thumb || got.title != "Spring" {
		t.Errorf("expected only the thumbnail part, got %+v", got)
	}
}

func TestHTTPIngestor_BreakerIgnoresPermanentRejections(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := calls.Add(1)

		if n <= 3 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"success":false,"error":"unknown reference code","code":"UnknownReferenceCode"}`)

			return
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true,"creative":{"id":9}}`)
	}))
	defer srv.Close()

	ing := uploader.NewHTTPIngestor(srv.URL, uploader.WithCircuitBreaker(gobreaker.Settings{
		Name:        "ingest-test",
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 2 },
	}))

	for range 3 {
		if _, err := ing.Register(context.Background(), &uploader.Submission{}); !errors.Is(err, uploader.ErrIngestionRejected) {
			t.Fatalf("expected rejection, got %v", err)
		}
	}

	reg, err := ing.Register(context.Background(), &uploader.Submission{})
	if err != nil {
		t.Fatalf("breaker must stay closed after 4xx rejections: %v", err)
	}

	if reg.Creative == nil || reg.Creative.ID != 9 {
		t.Errorf("unexpected creative %+v", reg.Creative)
	}
}

func TestRejectionError_Permanent(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, true},
		{http.StatusConflict, true},
		{http.StatusRequestTimeout, false},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		if got := (&uploader.RejectionError{Status: tt.status}).Permanent(); got != tt.want {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, got)
		}
	}
}
