package storagekey_test

import (
	"testing"
	"time"

	"github.com/yeisme/creativevault/pkg/storagekey"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"hello world.zip": "helloworld.zip",
		"ad-01_final.png": "ad-01_final.png",
		"报告(1).mhtml":     "1.mhtml",
		"a/b\\c?d":        "abcd",
		"":                "",
	}
	for in, want := range cases {
		if got := storagekey.Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuild(t *testing.T) {
	at := time.UnixMilli(1700000000123).UTC()

	cases := []struct {
		prefix, name, def, want string
	}{
		{"archives", "My Page.zip", "zip", "archives/MyPage_1700000000123.zip"},
		{"archives", "page", "mhtml", "archives/page_1700000000123.mhtml"},
		{"media/", "shot.PNG", "png", "media/shot_1700000000123.png"},
		{"", "?!.jpg", "", "file_1700000000123.jpg"},
		{"thumbnails", "", "png", "thumbnails/file_1700000000123.png"},
		{"x", "/tmp/dir/a b.webp", "", "x/ab_1700000000123.webp"},
	}
	for _, c := range cases {
		if got := storagekey.Build(c.prefix, c.name, at, c.def); got != c.want {
			t.Errorf("Build(%q, %q, %q) = %q, want %q", c.prefix, c.name, c.def, got, c.want)
		}
	}
}

func TestBuildDistinctTimestamps(t *testing.T) {
	a := storagekey.Build("p", "x.zip", time.UnixMilli(1), "")
	b := storagekey.Build("p", "x.zip", time.UnixMilli(2), "")

	if a == b {
		t.Fatalf("expected distinct keys, got %q", a)
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"a.zip":   "application/zip",
		"a.mhtml": "multipart/related",
		"a.MHT":   "multipart/related",
		"a.jpg":   "image/jpeg",
		"a.webp":  "image/webp",
		"a.bin":   "application/octet-stream",
		"noext":   "application/octet-stream",
	}
	for in, want := range cases {
		if got := storagekey.ContentType(in); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsImage(t *testing.T) {
	for _, n := range []string{"a.png", "b.JPEG", "c.gif", "d.webp", "e.jpg"} {
		if !storagekey.IsImage(n) {
			t.Errorf("IsImage(%q) = false", n)
		}
	}

	for _, n := range []string{"a.svg", "b.zip", "c", "d.mp4"} {
		if storagekey.IsImage(n) {
			t.Errorf("IsImage(%q) = true", n)
		}
	}
}
