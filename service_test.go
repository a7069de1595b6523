package fileref

import (
	"context"
	"strings"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty driver",
			config:  Config{},
			wantErr: true,
			errMsg:  "driver is required",
		},
		{
			name:    "empty source",
			config:  Config{Driver: "stub"},
			wantErr: true,
			errMsg:  "source name is required",
		},
		{
			name:    "invalid driver",
			config:  Config{Driver: "invalid", Source: "default"},
			wantErr: true,
			errMsg:  "unknown driver: invalid",
		},
		{
			name:    "local driver without base path",
			config:  Config{Driver: "local", Source: "default"},
			wantErr: true,
			errMsg:  "local base path is required for local driver",
		},
		{
			name:    "local driver with base path",
			config:  Config{Driver: "local", Source: "default", LocalBasePath: "/tmp"},
			wantErr: false,
		},
		{
			name:    "memory driver with negative size",
			config:  Config{Driver: "memory", Source: "default", MemoryMaxSize: -1},
			wantErr: true,
			errMsg:  "memory max size must not be negative",
		},
		{
			name:    "negative read limit",
			config:  Config{Driver: "stub", Source: "default", MaxReadSize: -1},
			wantErr: true,
			errMsg:  "max read size must not be negative",
		},
		{
			name:    "registered driver",
			config:  Config{Driver: "stub", Source: "default"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfig(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateConfig() error = %v, want error containing %v", err, tt.errMsg)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name:    "stub driver",
			config:  Config{Driver: "stub", Source: "uploads", VerifySnapshot: true},
			wantErr: false,
		},
		{
			name:    "stub driver with log level",
			config:  Config{Driver: "stub", Source: "uploads", LogLevel: "debug"},
			wantErr: false,
		},
		{
			name:    "invalid log level",
			config:  Config{Driver: "stub", Source: "uploads", LogLevel: "loud"},
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "invalid config",
			config:  Config{Source: "uploads"},
			wantErr: true,
			errMsg:  "invalid config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("New() error = %v, want error containing %v", err, tt.errMsg)
				}
				return
			}

			if got := h.Sources(); len(got) != 1 || got[0] != tt.config.Source {
				t.Errorf("Sources() = %v, want [%s]", got, tt.config.Source)
			}
			if h.verify != tt.config.VerifySnapshot {
				t.Errorf("verify = %v, want %v", h.verify, tt.config.VerifySnapshot)
			}
		})
	}
}

func TestNew_ReadsThroughDriver(t *testing.T) {
	ctx := context.Background()
	h, err := New(&Config{Driver: "stub", Source: "uploads", VerifySnapshot: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	sel, err := h.Select(ctx, "uploads", "hello.txt")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	msg, err := sel.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	f, err := h.DecodeFirst(msg)
	if err != nil {
		t.Fatalf("DecodeFirst() error = %v", err)
	}
	text, err := f.Text(ctx)
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if text != "Hello, World!" {
		t.Errorf("Text() = %q, want %q", text, "Hello, World!")
	}
}

func TestGlobalInstance(t *testing.T) {
	// Reset global state
	Reset()
	t.Cleanup(Reset)

	t.Setenv("BEAVER_FILEREF_DRIVER", "stub")
	t.Setenv("BEAVER_FILEREF_SOURCE", "env")

	h1, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	h2, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if h1 != h2 {
		t.Error("Default() returned different instances")
	}
	if got := h1.Sources(); len(got) != 1 || got[0] != "env" {
		t.Errorf("Sources() = %v, want [env]", got)
	}

	// SetDefault replaces the instance
	custom := NewHost()
	SetDefault(custom)
	h3, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if h3 != custom {
		t.Error("Default() did not return the host installed by SetDefault")
	}

	// Reset rebuilds from the environment
	Reset()
	h4, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if h4 == h1 || h4 == custom {
		t.Error("Default() returned a stale instance after Reset")
	}
}

func TestGlobalInstance_InitError(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("BEAVER_FILEREF_DRIVER", "missing")

	if _, err := Default(); err == nil {
		t.Fatal("Default() expected error for unknown driver")
	}
	if _, err := Decode([]byte(`{}`)); err == nil || IsDecodeError(err) {
		t.Errorf("Decode() error = %v, want init error", err)
	}
}

func TestBuilder(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("APP_FILEREF_DRIVER", "stub")
	t.Setenv("APP_FILEREF_SOURCE", "app")

	h, err := WithPrefix("APP_").New()
	if err != nil {
		t.Fatalf("Builder.New() error = %v", err)
	}
	if got := h.Sources(); len(got) != 1 || got[0] != "app" {
		t.Errorf("Sources() = %v, want [app]", got)
	}

	if err := WithPrefix("APP_").Init(); err != nil {
		t.Fatalf("Builder.Init() error = %v", err)
	}
	d, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if _, err := d.Source("app"); err != nil {
		t.Errorf("Source(app) error = %v", err)
	}
}

func TestDrivers(t *testing.T) {
	found := false
	for _, name := range Drivers() {
		if name == "stub" {
			found = true
		}
	}
	if !found {
		t.Errorf("Drivers() = %v, want stub registered", Drivers())
	}

	if _, err := CreateDriver(&Config{Driver: "missing"}); err == nil {
		t.Error("CreateDriver() expected error for unregistered driver")
	}
}
