package schema

import (
	"strings"
	"testing"
)

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{"empty object", `{}`, ""},
		{"full", `{"log_dir":".cgt","log_file":true,"log_format":"json","log_level":"debug","color":false,"hook_timeout_seconds":30,"data_dir":"Data"}`, ""},
		{"unknown field", `{"update_check":true}`, "settings validation failed"},
		{"bad format", `{"log_format":"xml"}`, "settings validation failed"},
		{"bad timeout", `{"hook_timeout_seconds":0}`, "settings validation failed"},
		{"wrong type", `{"color":"yes"}`, "settings validation failed"},
		{"not json", `{"log_dir":`, "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings([]byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateSettings() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateSettings() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateInfo(t *testing.T) {
	valid := `{
		"descriptor": "/games/demo/game.cgt",
		"exists": true,
		"project": "Demo",
		"tool_version": "1.4.0",
		"check": {"result": "HasErrors", "errors": [{"kind": "DuplicatedKey", "line": 4, "text": "[4] a=2"}]},
		"entries": [{"key": "a", "value": "1", "resolved": "1", "line": 3}]
	}`
	if err := ValidateInfo([]byte(valid)); err != nil {
		t.Errorf("ValidateInfo(valid) error = %v", err)
	}

	invalid := []string{
		`{"exists": true, "tool_version": "1.4.0", "check": {"result": "NoErrors"}}`,
		`{"descriptor": "x", "exists": true, "tool_version": "1.4.0", "check": {"result": "Maybe"}}`,
		`{"descriptor": "x", "exists": true, "tool_version": "1.4.0", "check": {"result": "NoErrors"}, "entries": [{"key": "", "value": "", "line": 1}]}`,
	}
	for _, doc := range invalid {
		if err := ValidateInfo([]byte(doc)); err == nil {
			t.Errorf("ValidateInfo(%s) = nil, want error", doc)
		}
	}
}
