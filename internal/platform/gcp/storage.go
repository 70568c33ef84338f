package gcp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yungbote/logosgraph-export/internal/platform/envutil"
)

type StorageMode string

const (
	StorageModeGCS         StorageMode = "gcs"
	StorageModeGCSEmulator StorageMode = "gcs_emulator"
)

type StorageConfig struct {
	Mode         StorageMode
	EmulatorHost string
	Bucket       string
	Prefix       string
	// Fallback is set when the emulator was picked only because
	// STORAGE_EMULATOR_HOST was present.
	Fallback bool
}

func (c StorageConfig) IsEmulator() bool { return c.Mode == StorageModeGCSEmulator }

type StorageConfigErrorCode string

const (
	StorageConfigInvalidMode         StorageConfigErrorCode = "invalid_mode"
	StorageConfigMissingBucket       StorageConfigErrorCode = "missing_bucket"
	StorageConfigMissingEmulatorHost StorageConfigErrorCode = "missing_emulator_host"
	StorageConfigInvalidEmulatorHost StorageConfigErrorCode = "invalid_emulator_host"
)

type StorageConfigError struct {
	Code  StorageConfigErrorCode
	Value string
	Cause error
}

func (e *StorageConfigError) Error() string {
	if e == nil {
		return "invalid storage config"
	}
	switch e.Code {
	case StorageConfigInvalidMode:
		return fmt.Sprintf("invalid OBJECT_STORAGE_MODE=%q (allowed: %q, %q)", e.Value, StorageModeGCS, StorageModeGCSEmulator)
	case StorageConfigMissingBucket:
		return "EXPORT_GCS_BUCKET is required for the gcs sink"
	case StorageConfigMissingEmulatorHost:
		return fmt.Sprintf("OBJECT_STORAGE_MODE=%q requires STORAGE_EMULATOR_HOST", StorageModeGCSEmulator)
	case StorageConfigInvalidEmulatorHost:
		return fmt.Sprintf("invalid STORAGE_EMULATOR_HOST=%q; expected absolute URL like http://fake-gcs:4443", e.Value)
	default:
		return "invalid storage config"
	}
}

func (e *StorageConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func StorageConfigFromEnv() (StorageConfig, error) {
	cfg := StorageConfig{
		EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		Bucket:       envutil.String("EXPORT_GCS_BUCKET", ""),
		Prefix:       strings.Trim(envutil.String("EXPORT_GCS_PREFIX", ""), "/"),
	}
	raw := envutil.String("OBJECT_STORAGE_MODE", "")
	switch mode := StorageMode(strings.ToLower(raw)); mode {
	case "":
		cfg.Mode = StorageModeGCS
		if cfg.EmulatorHost != "" {
			cfg.Mode = StorageModeGCSEmulator
			cfg.Fallback = true
		}
	case StorageModeGCS, StorageModeGCSEmulator:
		cfg.Mode = mode
	default:
		return cfg, &StorageConfigError{Code: StorageConfigInvalidMode, Value: raw}
	}
	return cfg, cfg.Validate()
}

func (c StorageConfig) Validate() error {
	if c.Mode != StorageModeGCS && c.Mode != StorageModeGCSEmulator {
		return &StorageConfigError{Code: StorageConfigInvalidMode, Value: string(c.Mode)}
	}
	if strings.TrimSpace(c.Bucket) == "" {
		return &StorageConfigError{Code: StorageConfigMissingBucket}
	}
	if !c.IsEmulator() {
		return nil
	}
	if c.EmulatorHost == "" {
		return &StorageConfigError{Code: StorageConfigMissingEmulatorHost}
	}
	u, err := url.Parse(c.EmulatorHost)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &StorageConfigError{Code: StorageConfigInvalidEmulatorHost, Value: c.EmulatorHost, Cause: err}
	}
	return nil
}

// ObjectName joins the configured prefix and a dataset file name.
func (c StorageConfig) ObjectName(name string) string {
	if c.Prefix == "" {
		return name
	}
	return c.Prefix + "/" + name
}
