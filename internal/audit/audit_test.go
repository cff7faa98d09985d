package audit

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitiseKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"secret set", "OPENAI_API_KEY", "sk-abc123", "set"},
		{"secret unset", "OPENAI_API_KEY", "", "unset"},
		{"non-secret set", "MODEL_PROVIDER", "ollama", "ollama"},
		{"non-secret unset", "MODEL_PROVIDER", "", "unset"},
		{"unknown key treated as non-secret", "SOME_OTHER_VAR", "value", "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitiseKey(tt.key, tt.value); got != tt.want {
				t.Errorf("SanitiseKey(%q, %q) = %q, want %q", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestLogCommandStart_RedactsSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-super-secret-value")
	t.Setenv("MODEL_PROVIDER", "openai")

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	LogCommandStart(log, "serve", "")

	out := buf.String()
	if strings.Contains(out, "sk-super-secret-value") {
		t.Fatal("secret value leaked into the audit log")
	}
	if !strings.Contains(out, `"OPENAI_API_KEY":"set"`) {
		t.Errorf("secret presence not recorded: %s", out)
	}
	if !strings.Contains(out, `"MODEL_PROVIDER":"openai"`) {
		t.Errorf("non-secret value not recorded: %s", out)
	}
	if !strings.Contains(out, `"command":"serve"`) {
		t.Errorf("command name not recorded: %s", out)
	}
	if !strings.Contains(out, `"config_file":"none"`) {
		t.Errorf("empty config path not recorded as none: %s", out)
	}
}

func TestLogCommandStart_RedactsHomeInConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	LogCommandStart(log, "ask", filepath.Join(home, ".farmguru", "config.yaml"))

	out := buf.String()
	if strings.Contains(out, home) {
		t.Errorf("home directory leaked into the audit log: %s", out)
	}
	if !strings.Contains(out, "~/.farmguru/config.yaml") {
		t.Errorf("config path not tilde-abbreviated: %s", out)
	}
}

func TestAuditKeys_SecretsConsistent(t *testing.T) {
	t.Parallel()

	// Every key marked secret in the audit list must be in the redaction set,
	// and vice versa for keys the list covers.
	for _, e := range auditKeys {
		if e.secret != secretEnvKeys[e.key] {
			t.Errorf("audit entry %q secret=%v disagrees with the redaction set", e.key, e.secret)
		}
	}
}
