package schema

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestPrimitiveValidation(t *testing.T) {
	tests := []struct {
		name    string
		schema  JSON
		value   any
		wantErr bool
	}{
		{"string accepts string", String(), "hello", false},
		{"string rejects int", String(), 123, true},
		{"string rejects nil", String(), nil, true},
		{"int accepts int", Int(), 42, false},
		{"int accepts whole float", Int(), 42.0, false},
		{"int rejects fractional float", Int(), 42.5, true},
		{"number accepts float", Number(), 3.14, false},
		{"number accepts int", Number(), 3, false},
		{"number rejects string", Number(), "3.14", true},
		{"bool accepts bool", Bool(), true, false},
		{"bool rejects string", Bool(), "true", true},
		{"any accepts anything", Any(), map[string]any{"x": 1}, false},
		{"any accepts nil", Any(), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestStringConstraints(t *testing.T) {
	minLen, maxLen := 2, 10
	constrained := JSON{
		Type:      "string",
		MinLength: &minLen,
		MaxLength: &maxLen,
		Pattern:   `^[GSMD]\d+$`,
	}

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"valid match id", "G0007", false},
		{"pattern mismatch", "T1055", true},
		{"too short", "G", true},
		{"too long", "G00000000007", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := constrained.Validate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestNumericConstraints(t *testing.T) {
	min, max := 0.0, 100.0
	score := JSON{Type: "number", Minimum: &min, Maximum: &max}

	if err := score.Validate(50); err != nil {
		t.Errorf("Validate(50) error = %v", err)
	}
	if err := score.Validate(-1); err == nil {
		t.Error("Validate(-1) succeeded, want minimum violation")
	}
	if err := score.Validate(101); err == nil {
		t.Error("Validate(101) succeeded, want maximum violation")
	}
}

func TestEnumValidation(t *testing.T) {
	domains := Enum("enterprise", "mobile", "ics")

	if err := domains.Validate("enterprise"); err != nil {
		t.Errorf("Validate(enterprise) error = %v", err)
	}
	if err := domains.Validate("cloud"); err == nil {
		t.Error("Validate(cloud) succeeded, want enum violation")
	}
}

func TestObjectValidation(t *testing.T) {
	params := Object(map[string]JSON{
		"domain":          StringWithDesc("ATT&CK domain"),
		"attack_id":       String(),
		"score":           Number(),
		"include_revoked": BoolWithDefault(false),
	}, "domain", "attack_id")

	tests := []struct {
		name    string
		value   map[string]any
		wantErr string
	}{
		{
			name:  "valid args",
			value: map[string]any{"domain": "enterprise", "attack_id": "T1055", "score": 5.0},
		},
		{
			name:  "optional fields omitted",
			value: map[string]any{"domain": "enterprise", "attack_id": "T1055"},
		},
		{
			name:    "missing required field",
			value:   map[string]any{"domain": "enterprise"},
			wantErr: "required field attack_id is missing",
		},
		{
			name:    "wrong property type",
			value:   map[string]any{"domain": "enterprise", "attack_id": 1055},
			wantErr: "property attack_id",
		},
		{
			name:  "unknown properties pass through",
			value: map[string]any{"domain": "enterprise", "attack_id": "T1055", "extra": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := params.Validate(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestArrayValidation(t *testing.T) {
	ids := Array(String())

	if err := ids.Validate([]any{"G0007", "G0102"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	err := ids.Validate([]any{"G0007", 42})
	if err == nil || !strings.Contains(err.Error(), "item 1") {
		t.Errorf("Validate() error = %v, want item 1 failure", err)
	}
}

func TestStructValuesValidateAsObjects(t *testing.T) {
	type args struct {
		Domain   string `json:"domain"`
		AttackID string `json:"attack_id"`
	}
	params := Object(map[string]JSON{
		"domain":    String(),
		"attack_id": String(),
	}, "domain", "attack_id")

	if err := params.Validate(args{Domain: "enterprise", AttackID: "T1055"}); err != nil {
		t.Errorf("Validate(struct) error = %v", err)
	}
}

func TestSchemaMarshaling(t *testing.T) {
	params := Object(map[string]JSON{
		"alias": StringWithDesc("Group alias to resolve"),
	}, "alias")

	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if doc["type"] != "object" {
		t.Errorf("type = %v, want object", doc["type"])
	}
	props := doc["properties"].(map[string]any)
	if _, ok := props["alias"]; !ok {
		t.Error("alias property missing from marshaled schema")
	}
}
