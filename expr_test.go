package main

import (
	"math"
	"testing"
)

func TestRenderExpr(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{
			name:     "lnglat",
			input:    LngLat{Lng: 113.306646, Lat: 23.383048},
			expected: "new AMap.LngLat(113.306646, 23.383048)",
		},
		{
			name:     "bounds",
			input:    defaultBounds,
			expected: "new AMap.Bounds(new AMap.LngLat(113.271213, 23.362449), new AMap.LngLat(113.341422, 23.416018))",
		},
		{
			name:     "int array",
			input:    []any{8, 16},
			expected: "[8, 16]",
		},
		{
			name:     "horn device",
			input:    hornDevice("horn1", defaultCenter, true),
			expected: "{id: 1, name: 'horn1', type: 'horn', position: new AMap.LngLat(113.306646, 23.383048), functional: true}",
		},
		{
			name:     "nested path",
			input:    []any{[]LngLat{{Lng: 1, Lat: 2}, {Lng: 3.5, Lat: -4}}},
			expected: "[[new AMap.LngLat(1, 2), new AMap.LngLat(3.5, -4)]]",
		},
		{
			name:     "escaped string",
			input:    "it's a\\b",
			expected: `'it\'s a\\b'`,
		},
		{
			name:     "quoted key",
			input:    Object{{Key: "extra-info", Value: 1.25}, {Key: "$ok", Value: false}},
			expected: "{'extra-info': 1.25, $ok: false}",
		},
		{
			name:     "empty object",
			input:    Object{},
			expected: "{}",
		},
		{
			name:     "null",
			input:    nil,
			expected: "null",
		},
		{
			name:     "raw",
			input:    RawExpr("window.innerWidth / 2"),
			expected: "window.innerWidth / 2",
		},
		{
			name:     "positive infinity",
			input:    math.Inf(1),
			expected: "Infinity",
		},
		{
			name:     "negative infinity",
			input:    []any{math.Inf(-1), math.NaN()},
			expected: "[-Infinity, NaN]",
		},
		{
			name:     "int64",
			input:    int64(1700000000),
			expected: "1700000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := renderExpr(tt.input)
			if err != nil {
				t.Fatalf("renderExpr() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("renderExpr() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRenderExprUnsupported(t *testing.T) {
	if _, err := renderExpr(Object{{Key: "c", Value: make(chan int)}}); err == nil {
		t.Fatal("expected error for channel value")
	}
}

func TestRenderTrack(t *testing.T) {
	tr := Track{
		ID:       3,
		Position: LngLat{Lng: 113.3, Lat: 23.4},
		Altitude: 120,
		TrackAt:  1700000000,
		Extra:    TrackExtra{Size: "小型", Danger: "高威"},
	}
	got, err := renderExpr(trackObject(tr))
	if err != nil {
		t.Fatalf("renderExpr() error = %v", err)
	}
	want := "{id: 3, position: new AMap.LngLat(113.3, 23.4), altitude: 120, trackAt: 1700000000, extra_info: {size: '小型', danger: '高威'}}"
	if got != want {
		t.Errorf("renderExpr() = %q, want %q", got, want)
	}
}
