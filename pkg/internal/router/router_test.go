package router_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"

	"github.com/yeisme/creativevault/pkg/internal/handle"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/router"
	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/internal/storage/db"
	"github.com/yeisme/creativevault/pkg/middleware"
)

var seq atomic.Int64

type memBlobs struct {
	mu   sync.Mutex
	objs map[string]int
}

func (m *memBlobs) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.objs[key] = int(n)
	m.mu.Unlock()

	return "https://cdn.test/b/" + key, nil
}

func (m *memBlobs) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objs, key)
	m.mu.Unlock()

	return nil
}

func (m *memBlobs) KeyFromURL(u string) (string, bool) {
	return strings.CutPrefix(u, "https://cdn.test/b/")
}

func (m *memBlobs) ListKeys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string

	for k := range m.objs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	client, err := db.Open(context.Background(), sqlite.Open(fmt.Sprintf("file:router_%d?mode=memory&cache=shared", seq.Add(1))), db.Options{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	sqlDB, _ := client.DB.DB()
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { _ = client.Close() })

	if err := model.AutoMigrate(context.Background(), client.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	blobs := &memBlobs{objs: map[string]int{}}
	refs := service.NewReferenceService(client.DB, nil, time.Minute)

	if err := refs.Seed(context.Background(), model.DefaultReferences()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	h := &handle.Handlers{
		Creatives:   service.NewCreativeService(client.DB, refs, blobs, nil),
		Moderation:  service.NewModerationService(client.DB, nil),
		Catalog:     service.NewCatalogService(client.DB),
		References:  refs,
		Maintenance: service.NewMaintenanceService(client.DB, blobs, nil),
		Health: map[string]handle.HealthChecker{
			"db": client,
			"s3": healthFunc(func(context.Context) error { return errors.New("bucket missing") }),
		},
		MaxUploadBytes: 1 << 20,
	}

	r := gin.New()
	r.Use(middleware.OperatorMiddleware())
	router.Register(r.Group("/api/v1"), h)

	return r
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	for name, filename := range files {
		fw, err := w.CreateFormFile(name, filename)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}

		_, _ = fw.Write([]byte("binary-" + filename))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	return &buf, w.FormDataContentType()
}

func do(r http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body map[string]any
	_ = sonic.Unmarshal(w.Body.Bytes(), &body)

	return w, body
}

func createForm() map[string]string {
	return map[string]string{
		"title":         "summer promo",
		"description":   "d",
		"format":        "image",
		"type":          "banner",
		"placement":     "feed",
		"platform":      "facebook",
		"country":       "US",
		"cloaking":      "false",
		"landing_url":   "https://l.test",
		"source_link":   "https://s.test",
		"source_device": "pixel",
		"captured_at":   "2025-04-01T10:00:00Z",
		"download_url":  "https://x/y.zip",
	}
}

func postCreate(t *testing.T, r http.Handler, fields map[string]string, files map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	body, ct := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/creatives", body)
	req.Header.Set("Content-Type", ct)

	return do(r, req)
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func creativeID(t *testing.T, body map[string]any) int {
	t.Helper()

	c, ok := body["creative"].(map[string]any)
	if !ok {
		t.Fatalf("no creative in %v", body)
	}

	return int(c["id"].(float64))
}

func TestCreateCreative(t *testing.T) {
	r := newEngine(t)

	w, body := postCreate(t, r, createForm(), map[string]string{"media_file": "hero.png"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}

	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}

	uploads := body["fileUploads"].(map[string]any)
	if uploads["media"] != true || uploads["thumbnail"] != false || uploads["archive"] != true {
		t.Errorf("fileUploads = %v", uploads)
	}

	urls := body["urls"].(map[string]any)
	if urls["downloadUrl"] != "https://x/y.zip" || !strings.HasPrefix(urls["mediaUrl"].(string), "https://cdn.test/b/media/hero_") {
		t.Errorf("urls = %v", urls)
	}

	if st := body["creative"].(map[string]any)["status"]; st != "draft" {
		t.Errorf("status = %v", st)
	}
}

func TestCreateCreative_UnknownFormat(t *testing.T) {
	r := newEngine(t)

	fields := createForm()
	fields["format"] = "hologram"

	w, body := postCreate(t, r, fields, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}

	details, _ := body["details"].(map[string]any)
	if body["success"] != false || details["format"] == nil || body["code"] != service.CodeUnknownReferenceCode {
		t.Errorf("body = %v", body)
	}

	w, body = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/creatives", nil))
	if w.Code != http.StatusOK || body["total"].(float64) != 0 {
		t.Errorf("record created despite rejection: %v", body)
	}
}

func TestCreateCreative_Malformed(t *testing.T) {
	r := newEngine(t)

	w, body := do(r, jsonReq(http.MethodPost, "/api/v1/creatives", `{"title":"x"}`))
	if w.Code != http.StatusBadRequest || body["code"] != "MalformedRequestBody" {
		t.Errorf("status %d body %v", w.Code, body)
	}
}

func TestPublishFlow(t *testing.T) {
	r := newEngine(t)

	_, body := postCreate(t, r, createForm(), nil)
	id := creativeID(t, body)

	// 未审核前公开接口不可见
	w, body := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/creatives", nil))
	if w.Code != http.StatusOK || body["total"].(float64) != 0 {
		t.Fatalf("draft visible publicly: %v", body)
	}

	w, _ = do(r, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/creatives/%d", id), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("draft single read status %d", w.Code)
	}

	req := jsonReq(http.MethodPost, "/api/v1/admin/moderation", fmt.Sprintf(`{"action":"approve","creativeIds":[%d,999]}`, id))
	req.Header.Set(middleware.OperatorHeader, "carol")

	w, body = do(r, req)
	if w.Code != http.StatusOK || body["count"].(float64) != 1 || body["newStatus"] != "published" {
		t.Fatalf("moderate: %d %v", w.Code, body)
	}

	rec := body["updatedCreatives"].([]any)[0].(map[string]any)
	if rec["moderatedBy"] != "carol" {
		t.Errorf("moderatedBy = %v", rec["moderatedBy"])
	}

	w, body = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/creatives?format=image&cloaking=false", nil))
	if w.Code != http.StatusOK || body["total"].(float64) != 1 || body["totalPages"].(float64) != 1 {
		t.Fatalf("public list: %v", body)
	}

	w, body = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/moderation", nil))
	if w.Code != http.StatusOK || body["published"].(float64) != 1 || body["total"].(float64) != 1 {
		t.Errorf("counts: %v", body)
	}

	// 编辑后回到 draft
	upd, ct := multipartBody(t, map[string]string{"creative_id": fmt.Sprint(id), "title": "renamed"}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/creatives/update", upd)
	req.Header.Set("Content-Type", ct)

	w, body = do(r, req)
	if w.Code != http.StatusOK || body["redrafted"] != true {
		t.Fatalf("update: %d %v", w.Code, body)
	}

	c := body["creative"].(map[string]any)
	if c["status"] != "draft" || c["moderatedBy"] != nil || c["title"] != "renamed" {
		t.Errorf("after update: %v", c)
	}
}

func TestUpdateCreative_NotFound(t *testing.T) {
	r := newEngine(t)

	body, ct := multipartBody(t, map[string]string{"creative_id": "77", "title": "x"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/creatives/update", body)
	req.Header.Set("Content-Type", ct)

	w, resp := do(r, req)
	if w.Code != http.StatusNotFound || resp["success"] != false {
		t.Errorf("status %d body %v", w.Code, resp)
	}
}

func TestDeleteCreatives(t *testing.T) {
	r := newEngine(t)

	_, body := postCreate(t, r, createForm(), nil)
	id := creativeID(t, body)

	w, resp := do(r, jsonReq(http.MethodPost, "/api/v1/admin/creatives/delete", fmt.Sprintf(`{"creativeIds":[%d,404]}`, id)))
	if w.Code != http.StatusOK || resp["deletedCount"].(float64) != 1 {
		t.Fatalf("delete: %d %v", w.Code, resp)
	}

	ids := resp["deletedIds"].([]any)
	if len(ids) != 1 || int(ids[0].(float64)) != id {
		t.Errorf("deletedIds = %v", ids)
	}

	w, _ = do(r, jsonReq(http.MethodPost, "/api/v1/admin/creatives/delete", `{"creativeIds":"nope"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed delete status %d", w.Code)
	}
}

func TestListInvalidQuery(t *testing.T) {
	r := newEngine(t)

	for _, q := range []string{"dateFrom=2025-13-40", "cloaking=yes", "page=abc", "page=9223372036854775807", "page=1000001"} {
		w, body := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/creatives?"+q, nil))
		if w.Code != http.StatusBadRequest || body["success"] != false {
			t.Errorf("%s: status %d body %v", q, w.Code, body)
		}
	}
}

func TestReferencesAndHealth(t *testing.T) {
	r := newEngine(t)

	w, body := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/references", nil))
	if w.Code != http.StatusOK || len(body["formats"].([]any)) == 0 || len(body["countries"].([]any)) == 0 {
		t.Errorf("references: %d %v", w.Code, body)
	}

	w, body = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/health/db", nil))
	if w.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("db health: %d %v", w.Code, body)
	}

	w, body = do(r, httptest.NewRequest(http.MethodGet, "/api/v1/health/s3", nil))
	if w.Code != http.StatusServiceUnavailable || body["status"] != "unhealthy" {
		t.Errorf("s3 health: %d %v", w.Code, body)
	}
}

func TestOrphanReport(t *testing.T) {
	r := newEngine(t)

	postCreate(t, r, createForm(), map[string]string{"thumbnail_file": "t.png"})

	w, body := do(r, httptest.NewRequest(http.MethodGet, "/api/v1/admin/maintenance/orphans", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}

	if len(body["orphanKeys"].([]any)) != 0 || len(body["missingAssets"].([]any)) != 1 {
		t.Errorf("report = %v", body)
	}
}
