// Package s3 处理S3存储操作.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/creativevault/pkg/configs"
	nlog "github.com/yeisme/creativevault/pkg/log"
)

// publicReadPolicy 允许匿名读取存储桶内的对象.
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// Client 包装 MinIO 客户端，所有对象写入同一个存储桶.
type Client struct {
	*minio.Client
	bucket  string
	baseURL string
}

// New 初始化 MinIO 客户端，若 bucket 不存在则创建并设置匿名只读.
func New(ctx context.Context, cfg configs.S3Config) (*Client, error) {
	endpoint := cfg.Endpoint
	// 允许用户传完整 schema endpoint（http:// 或 https://）
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo(configs.AppName, configs.AppVersion)

	c := &Client{Client: cli, bucket: cfg.Bucket, baseURL: cfg.GetPublicBaseURL()}
	if err := c.ensureBucket(ctx, cfg.Region); err != nil {
		return nil, err
	}

	nlog.Logger().Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("s3 connected")

	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, region string) error {
	exists, err := c.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", c.bucket, err)
	}

	if exists {
		return nil
	}

	if err := c.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}

	if err := c.SetBucketPolicy(ctx, c.bucket, fmt.Sprintf(publicReadPolicy, c.bucket)); err != nil {
		nlog.Logger().Warn().Err(err).Str("bucket", c.bucket).Msg("set public read policy failed")
	}

	nlog.Logger().Info().Str("bucket", c.bucket).Msg("bucket created")

	return nil
}

// Bucket 返回使用的存储桶.
func (c *Client) Bucket() string {
	return c.bucket
}

// PublicURL 返回对象的公开访问地址.
func (c *Client) PublicURL(key string) string {
	return c.baseURL + "/" + key
}

// KeyFromURL 从公开地址反推对象键，不属于本存储桶时返回 false.
func (c *Client) KeyFromURL(publicURL string) (string, bool) {
	key, ok := strings.CutPrefix(publicURL, c.baseURL+"/")
	if !ok || key == "" {
		return "", false
	}

	return key, true
}

// Put 上传对象并返回其公开地址.
func (c *Client) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := c.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return c.PublicURL(key), nil
}

// Remove 删除对象.
func (c *Client) Remove(ctx context.Context, key string) error {
	return c.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
}

// ListKeys 列出前缀下的全部对象键.
func (c *Client) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	for obj := range c.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}

		keys = append(keys, obj.Key)
	}

	return keys, nil
}

// HealthCheck 通过检查存储桶验证连接.
func (c *Client) HealthCheck(ctx context.Context) error {
	exists, err := c.BucketExists(ctx, c.bucket)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("bucket %s not found", c.bucket)
	}

	return nil
}
