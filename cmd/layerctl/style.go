package main

import (
	"github.com/charmbracelet/lipgloss"

	"layerforge/internal/engine"
)

// layerctl is a line-oriented CLI, not a TUI, so styling stops at
// status badge colors.
var (
	colorSuccess     = lipgloss.Color("#8BC34A") // Lime Green
	colorDestructive = lipgloss.Color("#e53935") // Red
	colorWarning     = lipgloss.Color("#FFC107") // Yellow
	colorInfo        = lipgloss.Color("#2196F3") // Blue

	badgeAccepted = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	badgeFailed   = lipgloss.NewStyle().Bold(true).Foreground(colorDestructive)
	badgeReverted = lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	badgeSkipped  = lipgloss.NewStyle().Foreground(colorInfo)
)

// statusBadge renders outcome as a short colored tag, e.g. "[ACCEPTED]".
func statusBadge(outcome engine.OutcomeKind) string {
	switch outcome {
	case engine.OutcomeAccepted:
		return badgeAccepted.Render("[ACCEPTED]")
	case engine.OutcomeFailed:
		return badgeFailed.Render("[FAILED]")
	case engine.OutcomeReverted:
		return badgeReverted.Render("[REVERTED]")
	case engine.OutcomeSkipped:
		return badgeSkipped.Render("[SKIPPED]")
	default:
		return string(outcome)
	}
}

// overallBadge renders a top-level run/case result as a colored OK/FAILED tag.
func overallBadge(success bool) string {
	if success {
		return badgeAccepted.Render("OK")
	}
	return badgeFailed.Render("FAILED")
}
