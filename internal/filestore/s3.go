package filestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	commons3 "github.com/xxxsen/common/s3"
)

type s3Config struct {
	Endpoint  string `json:"endpoint"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Prefix    string `json:"prefix"`
	PublicURL string `json:"public_url"`
	UseSSL    bool   `json:"use_ssl"`
}

// s3Store keeps uploaded audio and course materials in an S3-compatible
// bucket. Reads go through the bucket's public URL, so deployments that
// need transcription or text extraction must either expose the bucket or
// use the local store.
type s3Store struct {
	client    *commons3.S3Client
	prefix    string
	publicURL string
	http      *http.Client
}

func init() {
	Register("s3", newS3Store)
}

func newS3Store(args interface{}) (Store, error) {
	cfg := &s3Config{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	for name, v := range map[string]string{
		"endpoint":   cfg.Endpoint,
		"bucket":     cfg.Bucket,
		"secret_id":  cfg.SecretID,
		"secret_key": cfg.SecretKey,
	} {
		if v == "" {
			return nil, fmt.Errorf("s3 %s is required", name)
		}
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	client, err := commons3.New(
		commons3.WithEndpoint(cfg.Endpoint),
		commons3.WithSecret(cfg.SecretID, cfg.SecretKey),
		commons3.WithBucket(cfg.Bucket),
		commons3.WithRegion(cfg.Region),
		commons3.WithSSL(cfg.UseSSL),
	)
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	publicURL := strings.TrimSuffix(cfg.PublicURL, "/")
	if publicURL == "" {
		publicURL = defaultBucketURL(cfg.Endpoint, cfg.Bucket, cfg.UseSSL)
	}
	return &s3Store{
		client:    client,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		publicURL: publicURL,
		http:      http.DefaultClient,
	}, nil
}

func (s *s3Store) Type() string {
	return "s3"
}

func (s *s3Store) objectKey(key string) string {
	if s.prefix == "" {
		return strings.TrimPrefix(key, "/")
	}
	return strings.TrimPrefix(path.Join(s.prefix, key), "/")
}

func (s *s3Store) URL(key, baseURL string) string {
	_ = baseURL
	return s.publicURL + "/" + s.objectKey(key)
}

func (s *s3Store) Save(ctx context.Context, key string, r ReadSeekCloser, size int64) error {
	if key == "" {
		return fmt.Errorf("file key is required")
	}
	if _, err := s.client.Upload(ctx, s.objectKey(key), r, size); err != nil {
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	return nil
}

// Open fetches the object over HTTP and spools it to a temp file so the
// caller gets a seekable handle. The temp file is removed on Close.
func (s *s3Store) Open(ctx context.Context, key string) (ReadSeekCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(key, ""), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch object %s: %w", key, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("object %s not found", key)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch object %s: status %d", key, resp.StatusCode)
	}
	tmp, err := os.CreateTemp("", "s3spool-*")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("spool object %s: %w", key, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	return &spoolFile{File: tmp}, nil
}

type spoolFile struct {
	*os.File
}

func (f *spoolFile) Close() error {
	err := f.File.Close()
	os.Remove(f.Name())
	return err
}

func defaultBucketURL(endpoint, bucket string, useSSL bool) string {
	ep := endpoint
	if !strings.Contains(ep, "://") {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		ep = scheme + "://" + ep
	}
	u, err := url.Parse(ep)
	if err != nil {
		return strings.TrimSuffix(ep, "/") + "/" + bucket
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + bucket
	return strings.TrimSuffix(u.String(), "/")
}
