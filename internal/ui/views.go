package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/oszuidwest/zwfm-ledsync/internal/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// onsetLinger keeps the last onset label visible after the state went idle.
const onsetLinger = 250 * time.Millisecond

const (
	defaultBarWidth = 40
	minBarWidth     = 10
	labelWidth      = 12
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#A40000"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Width(labelWidth).
			Foreground(lipgloss.Color("#FFA500"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#A40000")).
			Padding(0, 1)

	// Counters run into the millions on long sessions.
	counts = message.NewPrinter(language.English)

	onsetColors = map[types.OnsetState]lipgloss.Color{
		types.OnsetKick:  lipgloss.Color("#FF3B30"),
		types.OnsetSnare: lipgloss.Color("#FFD60A"),
		types.OnsetPeak:  lipgloss.Color("#0A84FF"),
		types.OnsetIdle:  lipgloss.Color("#444444"),
	}
)

func renderMonitor(m Model) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("LED Sync monitor"))
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(statusLine(m.Status)))
	b.WriteString("\n\n")

	width := barWidth(m.Width)
	s := m.Snapshot

	var bars strings.Builder
	rows := []struct {
		label string
		value float64
		color string
	}{
		{"Volume", s.Volume, "#00AA00"},
		{"Normalized", s.VolumeNormalized, "#00AA00"},
		{"Bass", s.Bass, "#FF3B30"},
		{"Melody", s.Melody, "#30D158"},
		{"Percussion", s.Percussion, "#0A84FF"},
		{"Beat", s.BeatIntensity, "#FFD60A"},
		{"Flux", s.SpectralFlux, "#BF5AF2"},
	}
	for _, r := range rows {
		bars.WriteString(labelStyle.Render(r.label))
		bars.WriteString(renderBar(r.value, width, r.color))
		bars.WriteString("\n")
	}
	bars.WriteString(labelStyle.Render("AGC gain"))
	bars.WriteString(fmt.Sprintf("%.2fx", s.AGCGain))
	b.WriteString(boxStyle.Render(bars.String()))
	b.WriteString("\n\n")

	b.WriteString(renderOnset(m.lastOnset, s.Intensity))
	b.WriteString("   ")
	b.WriteString(counts.Sprintf("kicks %d  snares %d  peaks %d",
		m.Status.KickCount, m.Status.SnareCount, m.Status.PeakCount))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("level %.1f dB  peak %.1f dB", s.RMSDB, s.PeakDB))
	if s.Standby {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("  standby %.0fs", s.StandbyDuration)))
	}
	b.WriteString("\n\n")
	b.WriteString(subtleStyle.Render("q to quit"))
	b.WriteString("\n")

	return b.String()
}

func statusLine(st types.EngineStatus) string {
	line := fmt.Sprintf("engine %s", st.State)
	if st.Uptime != "" {
		line += " | up " + st.Uptime
	}
	if st.FrameRate > 0 {
		line += fmt.Sprintf(" | %.1f frames/s", st.FrameRate)
	}
	if st.LastError != "" {
		line += " | " + st.LastError
	}
	return line
}

// barWidth fits the bars into the terminal, leaving room for the label,
// the border and the percentage.
func barWidth(termWidth int) int {
	if termWidth == 0 {
		return defaultBarWidth
	}
	return max(minBarWidth, min(defaultBarWidth, termWidth-labelWidth-12))
}

// renderBar renders value in [0, 1] as a bar of width cells.
func renderBar(value float64, width int, color string) string {
	value = max(0, min(1, value))
	filled := int(value*float64(width) + 0.5)
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled)) +
		strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3d%%", bar, int(value*100+0.5))
}

func renderOnset(state types.OnsetState, intensity float64) string {
	label := strings.ToUpper(string(state))
	style := lipgloss.NewStyle().
		Bold(true).
		Width(7).
		Align(lipgloss.Center).
		Foreground(lipgloss.Color("#000000")).
		Background(onsetColors[state])
	if state == types.OnsetIdle {
		return style.Foreground(lipgloss.Color("#AAAAAA")).Render(label)
	}
	return style.Render(label) + fmt.Sprintf(" %.2f", intensity)
}
