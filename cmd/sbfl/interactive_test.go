package main

import (
	"context"
	"regexp"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/sbfl/internal/spectrum"
	"github.com/unbound-force/sbfl/internal/suspicion"
)

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func sampleResult(t *testing.T) *suspicion.Result {
	t.Helper()
	records := []spectrum.FunctionRecord{
		{Function: "calc.Add", Occurrences: 2, Failures: 0, Successes: 2},
		{Function: "calc.Div", Occurrences: 2, Failures: 1, Successes: 1},
	}
	res, err := suspicion.Analyze(context.Background(), records,
		spectrum.GlobalCounters{FailedTests: 1, PassedTests: 2}, suspicion.Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return res
}

func TestRenderRankContent_TitleAndTables(t *testing.T) {
	output := stripANSI(renderRankContent(sampleResult(t), nil))

	for _, want := range []string{
		"sbfl: 2 function(s), 1 failing / 2 passing test(s)",
		"--- Tarantula (top 2 of 2) ---",
		"--- Composite (top 2 of 2) ---",
		"Max Suspiciousness Found",
		"calc.Div",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRenderRankContent_SelectedFormulas(t *testing.T) {
	output := stripANSI(renderRankContent(sampleResult(t), []suspicion.Formula{suspicion.Ochiai}))

	if !strings.Contains(output, "--- Ochiai") {
		t.Errorf("expected Ochiai table, got:\n%s", output)
	}
	if strings.Contains(output, "--- SBI") {
		t.Errorf("unselected SBI table was rendered:\n%s", output)
	}
}

func TestRenderRankContent_Empty(t *testing.T) {
	res, err := suspicion.Analyze(context.Background(), nil, spectrum.GlobalCounters{}, suspicion.Options{})
	if err != nil {
		t.Fatal(err)
	}
	output := stripANSI(renderRankContent(res, nil))
	if !strings.Contains(output, "0 function(s)") {
		t.Errorf("expected zero function count, got:\n%s", output)
	}
	if !strings.Contains(output, "No functions ranked.") {
		t.Errorf("expected empty notice, got:\n%s", output)
	}
}

func TestRankModel_ViewBeforeReady(t *testing.T) {
	m := newRankModel(sampleResult(t), nil)
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before window size = %q", got)
	}
}

func TestRankModel_WindowSizeThenQuit(t *testing.T) {
	var model tea.Model = newRankModel(sampleResult(t), nil)

	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m := model.(rankModel)
	if !m.ready {
		t.Fatal("model should be ready after WindowSizeMsg")
	}
	if m.viewport.Height != 38 {
		t.Errorf("viewport height = %d, want 38", m.viewport.Height)
	}
	if !strings.Contains(stripANSI(m.View()), "sbfl:") {
		t.Errorf("view should show the report title, got:\n%s", m.View())
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestRankModel_HelpToggle(t *testing.T) {
	var model tea.Model = newRankModel(sampleResult(t), nil)
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	if !model.(rankModel).help.ShowAll {
		t.Error("? should expand the help view")
	}
}
