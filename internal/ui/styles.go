package ui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	tab         lipgloss.Style
	activeTab   lipgloss.Style
	pane        lipgloss.Style
	focusedPane lipgloss.Style
	label       lipgloss.Style
	dim         lipgloss.Style
	selected    lipgloss.Style
	method      lipgloss.Style
	errText     lipgloss.Style
	status      map[statusLevel]lipgloss.Style
	prompt      lipgloss.Style
}

func defaultStyles() styles {
	border := lipgloss.RoundedBorder()
	return styles{
		tab:         lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245")),
		activeTab:   lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")),
		pane:        lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("240")),
		focusedPane: lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("205")),
		label:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("111")),
		dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		selected:    lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("237")),
		method:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		errText:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		status: map[statusLevel]lipgloss.Style{
			statusInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
			statusWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
			statusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
			statusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		},
		prompt: lipgloss.NewStyle().Border(border).BorderForeground(lipgloss.Color("62")).Padding(0, 1),
	}
}

func methodColor(name string) lipgloss.Color {
	switch name {
	case "GET":
		return lipgloss.Color("78")
	case "POST":
		return lipgloss.Color("214")
	case "PUT", "PATCH":
		return lipgloss.Color("111")
	case "DELETE":
		return lipgloss.Color("203")
	default:
		return lipgloss.Color("252")
	}
}
