package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/creativevault/pkg/events"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/internal/storage/db"
	"github.com/yeisme/creativevault/pkg/internal/types"
)

const blobBase = "https://cdn.test/creatives"

var dbSeq atomic.Int64

// fakeBlobs 内存对象存储.
type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failPut   map[string]bool // 按前缀失败
	removed   []string
	removeErr error
	puts      int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}, failPut: map[string]bool{}}
}

func (f *fakeBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.puts++

	prefix, _, _ := strings.Cut(key, "/")
	if f.failPut[prefix] {
		return "", errors.New("storage rejected")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	f.objects[key] = data

	return blobBase + "/" + key, nil
}

func (f *fakeBlobs) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.removed = append(f.removed, key)
	if f.removeErr != nil {
		return f.removeErr
	}

	delete(f.objects, key)

	return nil
}

func (f *fakeBlobs) KeyFromURL(u string) (string, bool) {
	key, ok := strings.CutPrefix(u, blobBase+"/")

	return key, ok && key != ""
}

func (f *fakeBlobs) ListKeys(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string

	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	return keys, nil
}

// fakeEvents 记录发布的事件.
type fakeEvents struct {
	mu     sync.Mutex
	topics []string
	evts   []events.CreativeEvent
	err    error
}

func (f *fakeEvents) PublishCreative(_ context.Context, topic string, evt events.CreativeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.topics = append(f.topics, topic)
	f.evts = append(f.evts, evt)

	return f.err
}

func (f *fakeEvents) last() (string, events.CreativeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.topics) == 0 {
		return "", events.CreativeEvent{}
	}

	return f.topics[len(f.topics)-1], f.evts[len(f.evts)-1]
}

func testReferences() model.ReferenceSet {
	row := func(code string) model.ReferenceRow { return model.ReferenceRow{Code: code, Name: strings.ToUpper(code)} }

	return model.ReferenceSet{
		Formats:    []model.Format{{ReferenceRow: row("image")}, {ReferenceRow: row("carousel")}},
		Types:      []model.CreativeType{{ReferenceRow: row("banner")}, {ReferenceRow: row("native")}},
		Placements: []model.Placement{{ReferenceRow: row("feed")}},
		Platforms:  []model.Platform{{ReferenceRow: row("facebook")}, {ReferenceRow: row("tiktok")}},
		Countries:  []model.Country{{Code: "US", Name: "United States"}},
	}
}

type fixture struct {
	db         *gorm.DB
	blobs      *fakeBlobs
	events     *fakeEvents
	refs       *service.ReferenceService
	creatives  *service.CreativeService
	moderation *service.ModerationService
	catalog    *service.CatalogService
	now        time.Time
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%d?mode=memory&cache=shared", dbSeq.Add(1))

	client, err := db.Open(context.Background(), sqlite.Open(dsn), db.Options{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := client.DB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}

	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = client.Close() })

	if err := model.AutoMigrate(context.Background(), client.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return client.DB
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb := newTestDB(t)

	f := &fixture{
		db:     gdb,
		blobs:  newFakeBlobs(),
		events: &fakeEvents{},
		now:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	f.refs = service.NewReferenceService(gdb, nil, time.Minute)
	if err := f.refs.Seed(context.Background(), testReferences()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	f.creatives = service.NewCreativeService(gdb, f.refs, f.blobs, f.events)
	f.creatives.SetClock(func() time.Time { return f.now })
	f.moderation = service.NewModerationService(gdb, f.events)
	f.moderation.SetClock(func() time.Time { return f.now })
	f.catalog = service.NewCatalogService(gdb)

	return f
}

func baseForm(title string) types.CreativeForm {
	return types.CreativeForm{
		Title:        title,
		Description:  "desc",
		Format:       "image",
		Type:         "banner",
		Placement:    "feed",
		Platform:     "facebook",
		Country:      "US",
		Cloaking:     "false",
		LandingURL:   "https://landing.test/p",
		SourceLink:   "https://source.test/ad",
		SourceDevice: "pixel-8",
		CapturedAt:   "2025-03-01T08:30:00Z",
	}
}

func part(name, content string) *service.FilePart {
	return &service.FilePart{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func (f *fixture) create(t *testing.T, form types.CreativeForm, files service.AssetFiles) *model.Creative {
	t.Helper()

	resp, err := f.creatives.Create(context.Background(), form, files)
	if err != nil {
		t.Fatalf("create %q: %v", form.Title, err)
	}

	return resp.Creative
}

func (f *fixture) approve(t *testing.T, ids ...uint) {
	t.Helper()

	_, err := f.moderation.Moderate(context.Background(), types.ModerationRequest{Action: "approve", CreativeIDs: ids})
	if err != nil {
		t.Fatalf("approve %v: %v", ids, err)
	}
}

func (f *fixture) count(t *testing.T) int64 {
	t.Helper()

	var n int64
	if err := f.db.Model(&model.Creative{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}

	return n
}

func asValidation(t *testing.T, err error) *service.ValidationError {
	t.Helper()

	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	return verr
}

func strp(s string) *string { return &s }

func deleteReq(ids ...uint) types.DeleteRequest { return types.DeleteRequest{CreativeIDs: ids} }
