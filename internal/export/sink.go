package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/yungbote/logosgraph-export/internal/platform/logger"
)

// Sink publishes every file of a run or none of them.
type Sink interface {
	WriteAll(ctx context.Context, files []File) error
	Describe() string
}

type LocalDirSink struct {
	Dir string
	log *logger.Logger

	rename func(oldpath, newpath string) error
}

func NewLocalDirSink(dir string, log *logger.Logger) *LocalDirSink {
	return &LocalDirSink{Dir: dir, log: log.With("sink", "local"), rename: os.Rename}
}

func (s *LocalDirSink) Describe() string { return s.Dir }

type localPublish struct {
	dst    string
	backup string
}

// WriteAll stages each file under a temp name in Dir and renames only after
// every file is staged. Existing files are moved aside first and moved back
// if any rename fails, so a failed call leaves Dir as it was.
func (s *LocalDirSink) WriteAll(ctx context.Context, files []File) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", s.Dir, err)
	}

	temps := make([]string, 0, len(files))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			cleanup()
			return err
		}
		tmp, err := os.CreateTemp(s.Dir, "."+f.Name+".tmp-*")
		if err != nil {
			cleanup()
			return fmt.Errorf("export: stage %s: %w", f.Name, err)
		}
		temps = append(temps, tmp.Name())
		if _, err := tmp.Write(f.Data); err != nil {
			_ = tmp.Close()
			cleanup()
			return fmt.Errorf("export: stage %s: %w", f.Name, err)
		}
		if err := tmp.Close(); err != nil {
			cleanup()
			return fmt.Errorf("export: stage %s: %w", f.Name, err)
		}
		if err := os.Chmod(tmp.Name(), 0o644); err != nil {
			cleanup()
			return fmt.Errorf("export: stage %s: %w", f.Name, err)
		}
	}

	var done []localPublish
	restore := func() {
		for i := len(done) - 1; i >= 0; i-- {
			p := done[i]
			if p.backup == "" {
				_ = os.Remove(p.dst)
				continue
			}
			if err := s.rename(p.backup, p.dst); err != nil {
				s.log.Error("Restore failed", "path", p.dst, "backup", p.backup, "error", err)
			}
		}
	}

	for i, f := range files {
		p := localPublish{dst: filepath.Join(s.Dir, f.Name)}
		if _, err := os.Lstat(p.dst); err == nil {
			p.backup = temps[i] + ".bak"
			if err := s.rename(p.dst, p.backup); err != nil {
				restore()
				cleanup()
				return fmt.Errorf("export: back up %s: %w", f.Name, err)
			}
		}
		if err := s.rename(temps[i], p.dst); err != nil {
			if p.backup != "" {
				_ = s.rename(p.backup, p.dst)
			}
			restore()
			cleanup()
			return fmt.Errorf("export: publish %s: %w", f.Name, err)
		}
		done = append(done, p)
	}

	for i, p := range done {
		if p.backup != "" {
			_ = os.Remove(p.backup)
		}
		s.log.Info("Wrote dataset", "path", p.dst, "bytes", len(files[i].Data), "records", files[i].Records)
	}
	return nil
}

// ObjectStore is the slice of a bucket client the GCS sink needs. Names are
// relative to the sink's prefix.
type ObjectStore interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
	Copy(ctx context.Context, src, dst string) error
	Exists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, name string) error
}

const (
	stagingDir = ".staging"
	backupDir  = ".backup"
)

type GCSSink struct {
	store ObjectStore
	desc  string
	log   *logger.Logger
	newID func() string
}

func NewGCSSink(store ObjectStore, desc string, log *logger.Logger) *GCSSink {
	return &GCSSink{store: store, desc: desc, log: log.With("sink", "gcs"), newID: uuid.NewString}
}

func (s *GCSSink) Describe() string { return s.desc }

// WriteAll uploads every file under .staging/<id>/ first. Only when all
// uploads succeed are current objects copied to .backup/<id>/ and the staged
// objects copied over the final names. A failed publish copies the backups
// back, so the bucket keeps the previous run's files. Staged and backup
// objects are removed in every case.
func (s *GCSSink) WriteAll(ctx context.Context, files []File) error {
	id := s.newID()
	var scratch []string
	defer func() { s.remove(scratch) }()

	for _, f := range files {
		staged := path.Join(stagingDir, id, f.Name)
		if err := s.store.Put(ctx, staged, "application/json", f.Data); err != nil {
			return fmt.Errorf("export: upload %s: %w", f.Name, err)
		}
		scratch = append(scratch, staged)
	}

	backups := map[string]string{}
	for _, f := range files {
		ok, err := s.store.Exists(ctx, f.Name)
		if err != nil {
			return fmt.Errorf("export: check %s: %w", f.Name, err)
		}
		if !ok {
			continue
		}
		backup := path.Join(backupDir, id, f.Name)
		if err := s.store.Copy(ctx, f.Name, backup); err != nil {
			return fmt.Errorf("export: back up %s: %w", f.Name, err)
		}
		scratch = append(scratch, backup)
		backups[f.Name] = backup
	}

	var published []string
	for _, f := range files {
		if err := s.store.Copy(ctx, path.Join(stagingDir, id, f.Name), f.Name); err != nil {
			scratch = s.restore(published, backups, scratch)
			return fmt.Errorf("export: publish %s: %w", f.Name, err)
		}
		published = append(published, f.Name)
	}

	for _, f := range files {
		s.log.Info("Uploaded dataset", "object", f.Name, "bytes", len(f.Data), "records", f.Records)
	}
	return nil
}

// restore puts back the objects published so far and returns scratch minus
// any backup that could not be copied back, so it survives for manual repair.
func (s *GCSSink) restore(published []string, backups map[string]string, scratch []string) []string {
	ctx := context.Background()
	keep := map[string]bool{}
	for i := len(published) - 1; i >= 0; i-- {
		name := published[i]
		backup, ok := backups[name]
		if !ok {
			if err := s.store.Delete(ctx, name); err != nil {
				s.log.Error("Restore failed", "object", name, "error", err)
			}
			continue
		}
		if err := s.store.Copy(ctx, backup, name); err != nil {
			keep[backup] = true
			s.log.Error("Restore failed", "object", name, "backup", backup, "error", err)
		}
	}
	out := scratch[:0]
	for _, n := range scratch {
		if !keep[n] {
			out = append(out, n)
		}
	}
	return out
}

func (s *GCSSink) remove(names []string) {
	ctx := context.Background()
	for _, n := range names {
		if err := s.store.Delete(ctx, n); err != nil {
			s.log.Warn("Scratch delete failed", "object", n, "error", err)
		}
	}
}
