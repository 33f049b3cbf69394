package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/seventv/slide-inverter/internal/testutil"
	"github.com/seventv/slide-inverter/task"
)

func TestModelProgress(t *testing.T) {
	updates := make(chan Update, 2)
	updates <- Update{Current: 1, Total: 2, Filename: "a.pptx"}
	close(updates)

	var m tea.Model = NewModel(updates, 2, nil)
	testutil.True(t, strings.Contains(m.View(), "Waiting"), "initial view")

	msg := m.Init()()
	m, cmd := m.Update(msg)
	testutil.True(t, strings.Contains(m.View(), "Processing 1 of 2: a.pptx"), "progress view")
	testutil.True(t, strings.Contains(m.View(), "[====="), "half bar")

	m, cmd = m.Update(cmd())
	testutil.Assert(t, "", m.View(), "cleared on done")
	testutil.NotNil(t, cmd, "quit command")
}

func TestModelCtrlCCancelsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var m tea.Model = NewModel(make(chan Update), 3, cancel)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	testutil.NotNil(t, ctx.Err(), "run context canceled")
	testutil.NotNil(t, cmd, "quit command")
	testutil.Assert(t, "", m.View(), "cleared")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	testutil.True(t, cmd == nil, "other keys ignored")
}

func TestRenderBar(t *testing.T) {
	testutil.Assert(t, "[==  ]", renderBar(4, 0.5), "half")
	testutil.Assert(t, "[====]", renderBar(4, 2), "clamped")
	testutil.Assert(t, "[    ]", renderBar(4, -1), "clamped")
}

func TestSummary(t *testing.T) {
	res := task.BatchResult{
		Total:      3,
		Successful: 2,
		Archive:    make([]byte, 2048),
		Results: []task.Result{
			{Filename: "a.pptx", State: task.ResultStateSuccess, Warnings: []string{"Slide 1: Text: bad run"}},
			{Filename: "b.pptx", State: task.ResultStateFailed, Warnings: []string{"Processing failed: corrupt"}},
		},
	}

	out := RenderSummary(BatchSummary(res, "out/Inverted Presentations.zip"))
	testutil.True(t, strings.Contains(out, "Converted"), "converted row")
	testutil.True(t, strings.Contains(out, "2.048kB"), "human size")
	testutil.True(t, strings.Contains(out, "Inverted Presentations.zip"), "archive path")

	warnings := RenderWarnings(res)
	lines := strings.Split(warnings, "\n")
	testutil.Assert(t, 2, len(lines), "one line per warning")
	testutil.True(t, strings.Contains(lines[0], "b.pptx: Processing failed"), "failures first")
	testutil.True(t, strings.Contains(lines[1], "a.pptx: Slide 1"), "warnings after")
}
