package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pngkit/internal/processor"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "1023 B", FormatBytes(1023))
	assert.Equal(t, "1.0 KiB", FormatBytes(1024))
	assert.Equal(t, "1.5 MiB", FormatBytes(3<<19))
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary([]SummaryRow{
		{Label: "Files", Value: "3"},
		{Label: "Written", Value: "1.0 KiB"},
	})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Files   | 3      ", lines[1])
	assert.Equal(t, "Written | 1.0 KiB", lines[2])
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Type", "Length"}, [][]string{
		{"IHDR", "13"},
		{"IDAT", "8192"},
	})
	assert.Equal(t, "Type  Length\nIHDR  13\nIDAT  8192", out)
}

func TestModelCountsUpdates(t *testing.T) {
	updates := make(chan processor.ProgressUpdate)
	var m tea.Model = NewModel("scan", updates)

	m, _ = m.Update(updateMsg{TotalDelta: 2})
	m, _ = m.Update(updateMsg{ProcessedDelta: 1, BytesDelta: 2048})
	m, _ = m.Update(updateMsg{ConvertedDelta: 1})

	view := m.View()
	assert.Contains(t, view, "pngkit scan")
	assert.Contains(t, view, "Files: 1/2")
	assert.Contains(t, view, "Converted: 1")
	assert.Contains(t, view, "Written: 2.0 KiB")

	m, cmd := m.Update(doneMsg{})
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}
