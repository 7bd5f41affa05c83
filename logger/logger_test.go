package logger

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "default config",
			config: Config{
				Level:       "info",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "debug level",
			config: Config{
				Level:       "debug",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "console encoding",
			config: Config{
				Level:       "info",
				Encoding:    "console",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "invalid level falls back to info",
			config: Config{
				Level:       "loud",
				OutputPaths: []string{"stdout"},
			},
			wantErr: false,
		},
		{
			name: "empty output paths",
			config: Config{
				Level: "info",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger without error")
			}
		})
	}
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Fatal("NewNop() returned nil")
	}

	logger.DebugW("test debug", "key", "value")
	logger.InfoW("test message", "key", "value")
	logger.WarnW("test warning", "key", "value")
	logger.ErrorW("test error", "key", "value")

	if err := logger.Sync(); err != nil {
		t.Errorf("Sync() should not error on nop logger: %v", err)
	}
}
