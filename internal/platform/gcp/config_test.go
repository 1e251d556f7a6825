package gcp

import (
	"errors"
	"testing"
)

func TestResolveBlobConfigDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("BLOB_GCS_BUCKET_NAME", "onboarder")

	cfg, err := ResolveBlobConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveBlobConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS || cfg.CompatibilityFallback {
		t.Fatalf("mode: want=%q got=%q fallback=%v", ObjectStorageModeGCS, cfg.Mode, cfg.CompatibilityFallback)
	}
}

func TestResolveBlobConfigInfersEmulator(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443")
	t.Setenv("BLOB_GCS_BUCKET_NAME", "onboarder")

	cfg, err := ResolveBlobConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveBlobConfigFromEnv: %v", err)
	}
	if !cfg.IsEmulatorMode() || !cfg.CompatibilityFallback {
		t.Fatalf("emulator inference: got=%+v", cfg)
	}
}

func TestResolveBlobConfigErrors(t *testing.T) {
	cases := []struct {
		mode, host, bucket string
		code               ConfigErrorCode
	}{
		{"s3", "", "b", ConfigErrorInvalidMode},
		{"gcs", "", "", ConfigErrorMissingBucket},
		{"gcs_emulator", "", "b", ConfigErrorMissingEmulatorHost},
		{"gcs_emulator", "fake-gcs:4443", "b", ConfigErrorInvalidEmulatorHost},
	}
	for _, tc := range cases {
		t.Setenv("OBJECT_STORAGE_MODE", tc.mode)
		t.Setenv("STORAGE_EMULATOR_HOST", tc.host)
		t.Setenv("BLOB_GCS_BUCKET_NAME", tc.bucket)
		_, err := ResolveBlobConfigFromEnv()
		var cerr *ConfigError
		if !errors.As(err, &cerr) || cerr.Code != tc.code {
			t.Fatalf("%s/%s/%s: want code=%s got=%v", tc.mode, tc.host, tc.bucket, tc.code, err)
		}
	}
}

func TestContentTypeForKey(t *testing.T) {
	if got := contentTypeForKey("tutorials/x/content.json"); got != "application/json" {
		t.Fatalf("json: got=%q", got)
	}
	if got := contentTypeForKey("blob.bin"); got != "application/octet-stream" {
		t.Fatalf("bin: got=%q", got)
	}
}
