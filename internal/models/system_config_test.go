package models

import "testing"

func TestSystemConfigurationTypedValue(t *testing.T) {
	tests := []struct {
		name     string
		dataType ConfigType
		value    string
		want     interface{}
		wantErr  bool
	}{
		{"string", ConfigString, "hello", "hello", false},
		{"integer", ConfigInteger, "42", 42, false},
		{"bad integer", ConfigInteger, "forty-two", nil, true},
		{"boolean true", ConfigBoolean, "true", true, false},
		{"boolean yes", ConfigBoolean, "yes", true, false},
		{"boolean off", ConfigBoolean, "off", false, false},
		{"bad json", ConfigJSON, "{", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &SystemConfiguration{Key: "k", Value: tt.value, DataType: tt.dataType}
			got, err := cfg.TypedValue()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("TypedValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSystemConfigurationEncodeValue(t *testing.T) {
	cfg := &SystemConfiguration{Key: "limits", DataType: ConfigJSON}
	if err := cfg.EncodeValue(map[string]int{"max": 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Value != `{"max":5}` {
		t.Errorf("encoded value = %s", cfg.Value)
	}

	cfg = &SystemConfiguration{Key: "n", DataType: ConfigInteger}
	if err := cfg.EncodeValue(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Value != "7" {
		t.Errorf("encoded value = %s", cfg.Value)
	}
}
