package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_JWT_SECRET", "s3cret")
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("PUBLIC_API_URL", "")
	t.Setenv("SYNC_PULL_CONCURRENCY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StorageBackend != BackendBadger {
		t.Errorf("backend = %s", cfg.StorageBackend)
	}
	if cfg.PublicAPIURL != "http://localhost:9090" {
		t.Errorf("public url = %s", cfg.PublicAPIURL)
	}
	if cfg.SyncPullConcurrency != 4 {
		t.Errorf("concurrency = %d", cfg.SyncPullConcurrency)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"APP_JWT_SECRET": ""}},
		{"postgres without url", map[string]string{"APP_JWT_SECRET": "x", "STORAGE_BACKEND": "postgres", "DATABASE_URL": ""}},
		{"unknown backend", map[string]string{"APP_JWT_SECRET": "x", "STORAGE_BACKEND": "redis"}},
		{"bad concurrency", map[string]string{"APP_JWT_SECRET": "x", "STORAGE_BACKEND": "", "SYNC_PULL_CONCURRENCY": "many"}},
		{"zero concurrency", map[string]string{"APP_JWT_SECRET": "x", "STORAGE_BACKEND": "", "SYNC_PULL_CONCURRENCY": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
