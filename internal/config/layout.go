package config

import "strings"

// LayoutMainSplit arranges the request editor and the response pane.
// Vertical stacks them; horizontal places them next to each other.
type LayoutMainSplit string

const (
	LayoutMainSplitVertical   LayoutMainSplit = "vertical"
	LayoutMainSplitHorizontal LayoutMainSplit = "horizontal"
)

// LayoutSettings are ratios of the terminal size. HistoryWidth is the
// history sidebar's share of the width; EditorSplit is the editor's share
// of the space it divides with the response pane.
type LayoutSettings struct {
	HistoryWidth float64         `json:"history_width" toml:"history_width"`
	EditorSplit  float64         `json:"editor_split"  toml:"editor_split"`
	MainSplit    LayoutMainSplit `json:"main_split"    toml:"main_split"`
}

const (
	LayoutHistoryWidthDefault = 0.25
	LayoutHistoryWidthMin     = 0.15
	LayoutHistoryWidthMax     = 0.4
	LayoutEditorSplitDefault  = 0.5
	LayoutEditorSplitMin      = 0.3
	LayoutEditorSplitMax      = 0.7
)

type ratio struct{ def, lo, hi float64 }

var (
	historyWidth = ratio{LayoutHistoryWidthDefault, LayoutHistoryWidthMin, LayoutHistoryWidthMax}
	editorSplit  = ratio{LayoutEditorSplitDefault, LayoutEditorSplitMin, LayoutEditorSplitMax}
)

// clamp treats zero as unset.
func (r ratio) clamp(v float64) float64 {
	switch {
	case v == 0:
		return r.def
	case v < r.lo:
		return r.lo
	case v > r.hi:
		return r.hi
	}
	return v
}

func DefaultLayoutSettings() LayoutSettings {
	return LayoutSettings{
		HistoryWidth: historyWidth.def,
		EditorSplit:  editorSplit.def,
		MainSplit:    LayoutMainSplitVertical,
	}
}

func NormaliseLayoutSettings(in LayoutSettings) LayoutSettings {
	split := LayoutMainSplit(strings.ToLower(strings.TrimSpace(string(in.MainSplit))))
	if split != LayoutMainSplitHorizontal {
		split = LayoutMainSplitVertical
	}
	return LayoutSettings{
		HistoryWidth: historyWidth.clamp(in.HistoryWidth),
		EditorSplit:  editorSplit.clamp(in.EditorSplit),
		MainSplit:    split,
	}
}
