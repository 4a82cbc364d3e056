package problemform

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/ojterm/internal/api"
	"github.com/fragmede/ojterm/internal/ui/messages"
	"github.com/fragmede/ojterm/internal/ui/theme"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	labelStyle     = theme.LabelStyle.Width(12)
	collapsedStyle = theme.DimStyle
)

// Short fields, then long ones. Focus moves through both in order.
const (
	inCode = iota
	inTitle
	inDifficulty
	inTimeLimit
	inMemoryLimit
	inTags
	inputCount
)

const (
	areaStatement = iota
	areaInputSpec
	areaOutputSpec
	areaSamples
	areaCount
)

var (
	inputLabels = [inputCount]string{"Code", "Title", "Difficulty", "Time (ms)", "Memory (MB)", "Tags"}
	areaLabels  = [areaCount]string{"Statement", "Input", "Output", "Samples"}
)

// Model is the admin form for creating or editing a problem.
type Model struct {
	id         string
	inputs     [inputCount]textinput.Model
	areas      [areaCount]textarea.Model
	visibility api.Visibility
	focused    int
	client     *api.Client
	errs       []string
	submitting bool
	width      int
	height     int
}

// New creates the form. A nil problem starts a new one from Blank.
func New(p *api.Problem, client *api.Client) Model {
	in := Blank()
	id := ""
	if p != nil {
		in, id = p.Input(), p.ID
	}

	m := Model{id: id, client: client, visibility: in.Visibility}
	if m.visibility == "" {
		m.visibility = api.VisibilityPublic
	}

	values := [inputCount]string{
		in.Code,
		in.Title,
		strconv.Itoa(in.Difficulty),
		strconv.Itoa(in.TimeLimitMs),
		strconv.Itoa(in.MemoryLimitMb),
		strings.Join(in.Tags, ", "),
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Width = 40
		ti.SetValue(values[i])
		m.inputs[i] = ti
	}
	m.inputs[inTags].Placeholder = "comma separated"

	areaValues := [areaCount]string{in.Statement, in.InputSpec, in.OutputSpec, FormatSamples(in.Samples)}
	for i := range m.areas {
		ta := textarea.New()
		ta.CharLimit = 0
		ta.SetWidth(80)
		ta.SetHeight(8)
		ta.SetValue(areaValues[i])
		m.areas[i] = ta
	}
	m.inputs[inCode].Focus()
	return m
}

// Editing reports whether the form updates an existing problem.
func (m Model) Editing() bool {
	return m.id != ""
}

// SetSize sets the viewport dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	tw := w - 4
	if tw > 100 {
		tw = 100
	}
	th := h - inputCount - 14
	if th < 4 {
		th = 4
	}
	for i := range m.areas {
		m.areas[i].SetWidth(tw)
		m.areas[i].SetHeight(th)
	}
}

// Input collects the form into a request body, or the problems preventing it.
func (m Model) Input() (api.ProblemInput, []string) {
	var in api.ProblemInput
	var problems []string

	in.Code = strings.TrimSpace(m.inputs[inCode].Value())
	in.Title = strings.TrimSpace(m.inputs[inTitle].Value())
	numbers := []struct {
		field int
		dst   *int
	}{
		{inDifficulty, &in.Difficulty},
		{inTimeLimit, &in.TimeLimitMs},
		{inMemoryLimit, &in.MemoryLimitMb},
	}
	for _, n := range numbers {
		v, err := parseInt(inputLabels[n.field], m.inputs[n.field].Value())
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		*n.dst = v
	}
	in.Tags = ParseTags(m.inputs[inTags].Value())
	in.Statement = m.areas[areaStatement].Value()
	in.InputSpec = m.areas[areaInputSpec].Value()
	in.OutputSpec = m.areas[areaOutputSpec].Value()
	in.Visibility = m.visibility

	samples, err := ParseSamples(m.areas[areaSamples].Value())
	if err != nil {
		problems = append(problems, err.Error())
	}
	in.Samples = samples

	if len(problems) > 0 {
		return in, problems
	}
	return in, Validate(in)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			return m, m.focus((m.focused + 1) % (inputCount + areaCount))
		case "shift+tab":
			return m, m.focus((m.focused + inputCount + areaCount - 1) % (inputCount + areaCount))
		case "ctrl+v":
			if m.visibility == api.VisibilityPublic {
				m.visibility = api.VisibilityPrivate
			} else {
				m.visibility = api.VisibilityPublic
			}
			return m, nil
		case "ctrl+s":
			if m.submitting {
				return m, nil
			}
			in, problems := m.Input()
			if m.errs = problems; len(problems) > 0 {
				return m, nil
			}
			m.submitting = true
			client, id := m.client, m.id
			return m, func() tea.Msg {
				ctx := context.Background()
				if id == "" {
					p, err := client.CreateProblem(ctx, in)
					return messages.ProblemSavedMsg{Problem: p, Created: true, Err: err}
				}
				p, err := client.UpdateProblem(ctx, id, in)
				return messages.ProblemSavedMsg{Problem: p, Err: err}
			}
		}

	case messages.ProblemSavedMsg:
		m.submitting = false
		if msg.Err != nil {
			m.errs = []string{saveError(msg.Err)}
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focused < inputCount {
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	} else {
		i := m.focused - inputCount
		m.areas[i], cmd = m.areas[i].Update(msg)
	}
	return m, cmd
}

func saveError(err error) string {
	var he *api.HTTPError
	if errors.As(err, &he) && he.Body != "" {
		return he.Body
	}
	return err.Error()
}

func (m *Model) focus(i int) tea.Cmd {
	if m.focused < inputCount {
		m.inputs[m.focused].Blur()
	} else {
		m.areas[m.focused-inputCount].Blur()
	}
	m.focused = i
	if i < inputCount {
		return m.inputs[i].Focus()
	}
	return m.areas[i-inputCount].Focus()
}

// View renders the form. Only the focused long field is expanded.
func (m Model) View() string {
	var sb strings.Builder

	heading := "New problem"
	if m.Editing() {
		heading = "Edit problem " + m.inputs[inCode].Value()
	}
	sb.WriteString(titleStyle.Render(heading))
	sb.WriteString("\n\n")

	for i := range m.inputs {
		sb.WriteString(labelStyle.Render(inputLabels[i]) + " " + m.inputs[i].View())
		sb.WriteString("\n")
	}
	sb.WriteString(labelStyle.Render("Visibility") + " " + string(m.visibility))
	sb.WriteString("\n\n")

	for i := range m.areas {
		if m.focused == inputCount+i {
			sb.WriteString(theme.LabelStyle.Render(areaLabels[i]))
			sb.WriteString("\n")
			sb.WriteString(m.areas[i].View())
			sb.WriteString("\n")
			continue
		}
		lines := m.areas[i].LineCount()
		if m.areas[i].Value() == "" {
			lines = 0
		}
		sb.WriteString(labelStyle.Render(areaLabels[i]) + " " + collapsedStyle.Render(strconv.Itoa(lines)+" lines"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for _, e := range m.errs {
		sb.WriteString(theme.ErrorStyle.Render(e))
		sb.WriteString("\n")
	}

	if m.submitting {
		sb.WriteString("Saving...")
	} else {
		sb.WriteString(theme.HintStyle.Render("Tab next field | Ctrl+V visibility | Ctrl+S save | Esc cancel"))
	}
	return sb.String()
}
