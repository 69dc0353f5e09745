package main

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/neurobench/neuro-runtime/config"
	"github.com/neurobench/neuro-runtime/model"
	"github.com/neurobench/neuro-runtime/quantity"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2D7D46")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type tuiState int

const (
	stateLoading tuiState = iota
	stateInput
	stateRunning
	stateShowResult
)

type interactiveModel struct {
	cfg      *config.RunConfig
	m        *model.Model
	err      error
	state    tuiState
	inputs   []textinput.Model
	focusIdx int
	summary  string
}

type loadedMsg struct {
	err error
	m   *model.Model
}

type runResultMsg struct {
	err     error
	summary string
}

func newInteractiveModel(cfg *config.RunConfig) *interactiveModel {
	labels := []struct{ prompt, value string }{
		{"amplitude: ", cfg.Stimulus.Amplitude},
		{"delay:     ", cfg.Stimulus.Delay},
		{"duration:  ", cfg.Stimulus.Duration},
	}
	inputs := make([]textinput.Model, len(labels))
	for i, l := range labels {
		ti := textinput.New()
		ti.Prompt = l.prompt
		ti.SetValue(l.value)
		ti.Width = 24
		if i == 0 {
			ti.Focus()
		}
		inputs[i] = ti
	}
	return &interactiveModel{cfg: cfg, state: stateLoading, inputs: inputs}
}

func runInteractive(cfg *config.RunConfig) error {
	_, err := tea.NewProgram(newInteractiveModel(cfg)).Run()
	return err
}

func (im *interactiveModel) Init() tea.Cmd {
	return im.loadModel
}

func (im *interactiveModel) loadModel() tea.Msg {
	m, err := buildModel(context.Background(), im.cfg)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{m: m}
}

func (im *interactiveModel) runStimulus() tea.Msg {
	ctx := context.Background()

	stim, err := parseStimulus(im.inputs[0].Value(), im.inputs[1].Value(), im.inputs[2].Value())
	if err != nil {
		return runResultMsg{err: err}
	}
	if err := im.m.InjectSquareCurrent(ctx, stim); err != nil {
		return runResultMsg{err: err}
	}

	vm, err := im.m.MembranePotential()
	if err != nil {
		return runResultMsg{err: err}
	}
	res := im.m.Results()

	vmMin, vmMax := math.Inf(1), math.Inf(-1)
	for _, v := range vm.Values {
		vmMin = math.Min(vmMin, v)
		vmMax = math.Max(vmMax, v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "run #%d: %d samples @ %s\n", res.RunNumber, len(vm.Values), vm.SamplingPeriod)
	fmt.Fprintf(&b, "vm range [%.2f, %.2f] %s", vmMin, vmMax, vm.Units)
	if !res.Finite {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("trace contains non-finite values"))
	}
	return runResultMsg{summary: b.String()}
}

func parseStimulus(amplitude, delay, duration string) (quantity.SquareCurrent, error) {
	var s quantity.SquareCurrent
	var err error
	if s.Amplitude, err = quantity.Parse(amplitude); err != nil {
		return quantity.SquareCurrent{}, err
	}
	if s.Delay, err = quantity.ParseAs(delay, quantity.Millisecond); err != nil {
		return quantity.SquareCurrent{}, err
	}
	if s.Duration, err = quantity.ParseAs(duration, quantity.Millisecond); err != nil {
		return quantity.SquareCurrent{}, err
	}
	return s, nil
}

func (im *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if im.state != stateInput || msg.String() == "ctrl+c" {
				return im, tea.Quit
			}

		case "tab":
			if im.state == stateInput {
				im.inputs[im.focusIdx].Blur()
				im.focusIdx = (im.focusIdx + 1) % len(im.inputs)
				im.inputs[im.focusIdx].Focus()
			}

		case "enter":
			switch im.state {
			case stateInput:
				im.state = stateRunning
				return im, im.runStimulus
			case stateShowResult:
				im.state = stateInput
				im.summary = ""
				im.err = nil
			}

		case "esc":
			if im.state == stateShowResult {
				im.state = stateInput
				im.summary = ""
				im.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			im.err = msg.err
			return im, nil
		}
		im.m = msg.m
		im.state = stateInput

	case runResultMsg:
		im.summary = msg.summary
		im.err = msg.err
		im.state = stateShowResult
	}

	if im.state == stateInput {
		var cmds []tea.Cmd
		for i := range im.inputs {
			var cmd tea.Cmd
			im.inputs[i], cmd = im.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return im, tea.Batch(cmds...)
	}

	return im, nil
}

func (im *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("neurobench"))
	b.WriteString(" ")
	b.WriteString(im.cfg.Model)
	b.WriteString("\n\n")

	if im.err != nil && im.state != stateShowResult {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", im.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("ctrl+c quit"))
		return b.String()
	}

	switch im.state {
	case stateLoading:
		b.WriteString("Loading model...")

	case stateInput:
		b.WriteString(labelStyle.Render("Square current stimulus"))
		b.WriteString("\n\n")
		for _, input := range im.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter run • ctrl+c quit"))

	case stateRunning:
		b.WriteString("Running...")

	case stateShowResult:
		if im.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", im.err)))
		} else {
			b.WriteString(resultStyle.Render(im.summary))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter run again • q quit"))
	}

	return b.String()
}
