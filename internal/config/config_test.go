package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "missing session id",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "session only, defaults applied",
			env:  map[string]string{"SESSION_ID": "sess-1"},
			want: &Config{
				DatabasePath: "./data/crawler.db",
				StorageRoot:  "./data/instagram",
				LogLevel:     "info",
				APIBaseURL:   "https://i.instagram.com/api/v1",
				SessionID:    "sess-1",
				PageDelay:    5 * time.Second,
			},
		},
		{
			name: "all values set",
			env: map[string]string{
				"SESSION_ID":         "sess-2",
				"DATABASE_PATH":      "/tmp/crawler.db",
				"STORAGE_ROOT":       "/tmp/instagram",
				"LOG_LEVEL":          "debug",
				"API_BASE_URL":       "http://localhost:8080/api/v1",
				"PAGE_DELAY_SECONDS": "2",
			},
			want: &Config{
				DatabasePath: "/tmp/crawler.db",
				StorageRoot:  "/tmp/instagram",
				LogLevel:     "debug",
				APIBaseURL:   "http://localhost:8080/api/v1",
				SessionID:    "sess-2",
				PageDelay:    2 * time.Second,
			},
		},
		{
			name: "zero delay allowed",
			env: map[string]string{
				"SESSION_ID":         "s",
				"PAGE_DELAY_SECONDS": "0",
			},
			want: &Config{
				DatabasePath: "./data/crawler.db",
				StorageRoot:  "./data/instagram",
				LogLevel:     "info",
				APIBaseURL:   "https://i.instagram.com/api/v1",
				SessionID:    "s",
				PageDelay:    0,
			},
		},
		{
			name: "invalid delay",
			env: map[string]string{
				"SESSION_ID":         "s",
				"PAGE_DELAY_SECONDS": "soon",
			},
			wantErr: true,
		},
		{
			name: "negative delay",
			env: map[string]string{
				"SESSION_ID":         "s",
				"PAGE_DELAY_SECONDS": "-3",
			},
			wantErr: true,
		},
	}

	keys := []string{"SESSION_ID", "DATABASE_PATH", "STORAGE_ROOT", "LOG_LEVEL", "API_BASE_URL", "PAGE_DELAY_SECONDS"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range keys {
				t.Setenv(key, tt.env[key])
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
