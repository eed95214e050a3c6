package handlers

import (
	"encoding/json"
	"testing"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		in      any
		want    int32
		wantErr bool
	}{
		{json.Number("1"), 1, false},
		{json.Number("-7"), -7, false},
		{json.Number("1.0"), 1, false},
		{json.Number("1e0"), 1, false},
		{json.Number("2E1"), 20, false},
		{json.Number("1.5"), 0, true},
		{json.Number("4294967296"), 0, true},
		{json.Number("1e20"), 0, true},
		{"1", 0, true},
		{nil, 0, true},
	}

	for _, tt := range tests {
		got, err := parseCode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseCode(%v): expected error, got %d", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseCode(%v): expected %d, got %d (%v)", tt.in, tt.want, got, err)
		}
	}
}
