package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_JSONWithService(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: INFO, Output: &buf, Service: "participations"})

	log.Info("Participation created", "webinar_id", "w1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record[SERVICE] != "participations" {
		t.Errorf("expected service attr 'participations', got %v", record[SERVICE])
	}
	if record["webinar_id"] != "w1" {
		t.Errorf("expected webinar_id 'w1', got %v", record["webinar_id"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		warnSeen  bool
	}{
		{level: DEBUG, debugSeen: true, warnSeen: true},
		{level: INFO, debugSeen: false, warnSeen: true},
		{level: ERROR, debugSeen: false, warnSeen: false},
		{level: "bogus", debugSeen: false, warnSeen: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Level: tt.level, Output: &buf, Format: TEXT})

			log.Debug("debug-line")
			log.Warn("warn-line")

			out := buf.String()
			if got := strings.Contains(out, "debug-line"); got != tt.debugSeen {
				t.Errorf("debug visible = %v, want %v", got, tt.debugSeen)
			}
			if got := strings.Contains(out, "warn-line"); got != tt.warnSeen {
				t.Errorf("warn visible = %v, want %v", got, tt.warnSeen)
			}
		})
	}
}

func TestWith_CarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).With("component", "dispatcher")

	log.Info("sent")

	if !strings.Contains(buf.String(), `"component":"dispatcher"`) {
		t.Errorf("expected component attribute in %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel(" WARN ") != slog.LevelWarn {
		t.Errorf("expected level parsing to trim and lowercase")
	}
}
