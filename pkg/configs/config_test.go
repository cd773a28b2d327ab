package configs_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/yeisme/creativevault/pkg/configs"
)

func validClient(t *testing.T) configs.ClientConfig {
	t.Helper()

	return configs.ClientConfig{
		QueuePath:   filepath.Join(t.TempDir(), "queue.db"),
		IngestURL:   "http://localhost:8080/api/v1/creatives",
		Parallelism: 2,
	}
}

func TestClientConfig_Check(t *testing.T) {
	c := validClient(t)
	if err := c.Check(); err != nil {
		t.Fatalf("expected valid client config, got %v", err)
	}
}

func TestClientConfig_CheckRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *configs.ClientConfig)
		want   string
	}{
		{"relative ingest url", func(c *configs.ClientConfig) { c.IngestURL = "/api/v1/creatives" }, "ingest_url"},
		{"ftp ingest url", func(c *configs.ClientConfig) { c.IngestURL = "ftp://host/creatives" }, "ingest_url"},
		{"missing queue dir", func(c *configs.ClientConfig) {
			c.QueuePath = filepath.Join(c.QueuePath, "nope", "queue.db")
		}, "queue_path"},
		{"empty queue path", func(c *configs.ClientConfig) { c.QueuePath = "" }, "queue_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClient(t)
			tt.mutate(&c)

			err := c.Check()
			if err == nil {
				t.Fatal("expected error")
			}

			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestAppConfig_Redacted(t *testing.T) {
	var c configs.AppConfig
	c.DB.Password = "db-secret"
	c.S3.SecretAccessKey = "s3-secret"
	c.KV.Redis.Password = ""
	c.MQ.NATS.Password = "nats-secret"
	c.S3.AccessKeyID = "minio"

	r := c.Redacted()

	if r.DB.Password == "db-secret" || r.S3.SecretAccessKey == "s3-secret" || r.MQ.NATS.Password == "nats-secret" {
		t.Errorf("secrets must be hidden: %+v", r)
	}

	if r.KV.Redis.Password != "" {
		t.Errorf("empty secret must stay empty, got %q", r.KV.Redis.Password)
	}

	if r.S3.AccessKeyID != "minio" {
		t.Errorf("non-secret fields must be kept, got %q", r.S3.AccessKeyID)
	}

	if c.DB.Password != "db-secret" {
		t.Error("original config must not be modified")
	}
}
