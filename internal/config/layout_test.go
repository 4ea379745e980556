package config

import "testing"

func TestNormaliseLayoutSettings(t *testing.T) {
	tests := []struct {
		name string
		in   LayoutSettings
		want LayoutSettings
	}{
		{
			name: "zero uses defaults",
			in:   LayoutSettings{},
			want: DefaultLayoutSettings(),
		},
		{
			name: "clamped high and low",
			in:   LayoutSettings{HistoryWidth: 0.9, EditorSplit: 0.01, MainSplit: " Horizontal "},
			want: LayoutSettings{
				HistoryWidth: LayoutHistoryWidthMax,
				EditorSplit:  LayoutEditorSplitMin,
				MainSplit:    LayoutMainSplitHorizontal,
			},
		},
		{
			name: "unknown split falls back",
			in:   LayoutSettings{HistoryWidth: 0.1, EditorSplit: 0.6, MainSplit: "diagonal"},
			want: LayoutSettings{
				HistoryWidth: LayoutHistoryWidthMin,
				EditorSplit:  0.6,
				MainSplit:    LayoutMainSplitVertical,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormaliseLayoutSettings(tt.in); got != tt.want {
				t.Fatalf("NormaliseLayoutSettings(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
