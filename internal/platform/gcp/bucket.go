package gcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/logosgraph-export/internal/platform/envutil"
	"github.com/yungbote/logosgraph-export/internal/platform/logger"
)

// Bucket writes and removes objects in the export bucket.
type Bucket struct {
	log    *logger.Logger
	client *storage.Client
	cfg    StorageConfig
}

func NewBucket(ctx context.Context, log *logger.Logger, cfg StorageConfig) (*Bucket, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate storage config: %w", err)
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	log = log.With("service", "ExportBucket")
	log.Info("Object storage initialized", "mode", cfg.Mode, "fallback", cfg.Fallback, "bucket", cfg.Bucket, "prefix", cfg.Prefix)
	return &Bucket{log: log, client: client, cfg: cfg}, nil
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.IsEmulator() {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	return storage.NewClient(ctx, append(credentialOptions(), option.WithScopes(storage.ScopeReadWrite))...)
}

// credentialOptions reads GOOGLE_APPLICATION_CREDENTIALS_JSON (inline key)
// before GOOGLE_APPLICATION_CREDENTIALS (key file). Neither set means ADC.
func credentialOptions() []option.ClientOption {
	if inline := envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", ""); strings.HasPrefix(inline, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(inline))}
	}
	if path := envutil.String("GOOGLE_APPLICATION_CREDENTIALS", ""); path != "" {
		return []option.ClientOption{option.WithCredentialsFile(path)}
	}
	return nil
}

func (b *Bucket) Config() StorageConfig { return b.cfg }

func (b *Bucket) Put(ctx context.Context, name, contentType string, data []byte) error {
	obj := b.client.Bucket(b.cfg.Bucket).Object(b.cfg.ObjectName(name))
	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", name, err)
	}
	b.log.Debug("Object written", "object", b.cfg.ObjectName(name), "bytes", len(data))
	return nil
}

// Copy runs a server-side copy between two names in the bucket.
func (b *Bucket) Copy(ctx context.Context, src, dst string) error {
	bkt := b.client.Bucket(b.cfg.Bucket)
	from := bkt.Object(b.cfg.ObjectName(src))
	if _, err := bkt.Object(b.cfg.ObjectName(dst)).CopierFrom(from).Run(ctx); err != nil {
		return fmt.Errorf("gcs copy %s -> %s: %w", src, dst, err)
	}
	return nil
}

func (b *Bucket) Exists(ctx context.Context, name string) (bool, error) {
	_, err := b.client.Bucket(b.cfg.Bucket).Object(b.cfg.ObjectName(name)).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("gcs attrs %s: %w", name, err)
	}
}

// Delete treats a missing object as already deleted.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	err := b.client.Bucket(b.cfg.Bucket).Object(b.cfg.ObjectName(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %s: %w", name, err)
	}
	return nil
}

func (b *Bucket) Close() error { return b.client.Close() }
