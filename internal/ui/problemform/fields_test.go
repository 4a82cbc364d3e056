package problemform

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragmede/ojterm/internal/api"
)

func TestBlank(t *testing.T) {
	in := Blank()
	assert.Equal(t, 1, in.Difficulty)
	assert.Equal(t, 1000, in.TimeLimitMs)
	assert.Equal(t, 256, in.MemoryLimitMb)
	assert.Equal(t, api.VisibilityPrivate, in.Visibility)
	assert.Len(t, in.Samples, 1)
}

func TestValidate(t *testing.T) {
	valid := api.ProblemInput{
		Code: "A1", Title: "Sum", Statement: "Add.", InputSpec: "a b", OutputSpec: "a+b",
		Difficulty: 3, TimeLimitMs: 100, MemoryLimitMb: 64,
		Samples: []api.Sample{{Input: "1 2", Output: "3"}},
	}
	assert.Empty(t, Validate(valid))

	bad := Blank()
	bad.Difficulty = 11
	bad.TimeLimitMs = 99
	bad.MemoryLimitMb = 63
	assert.Equal(t, []string{
		"Code is required",
		"Title is required",
		"Statement is required",
		"Input specification is required",
		"Output specification is required",
		"Difficulty must be between 1 and 10",
		"Time limit must be at least 100ms",
		"Memory limit must be at least 64MB",
		"Sample 1 needs both input and output",
	}, Validate(bad))
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"dp", "math"}, ParseTags(" dp, math ,, dp "))
	assert.Nil(t, ParseTags(""))
}

func TestSamplesRoundTrip(t *testing.T) {
	samples := []api.Sample{
		{Input: "1 2", Output: "3"},
		{Input: "3\n1 2 3", Output: "6"},
	}
	text := FormatSamples(samples)
	assert.Equal(t, "input:\n1 2\noutput:\n3\n\ninput:\n3\n1 2 3\noutput:\n6", text)

	parsed, err := ParseSamples(text)
	require.NoError(t, err)
	assert.Equal(t, samples, parsed)
}

func TestParseSamples(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []api.Sample
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"blank sample", "input:\noutput:", []api.Sample{{}}, false},
		{"case insensitive markers", "Input:\n5\nOUTPUT:\n25\n", []api.Sample{{Input: "5", Output: "25"}}, false},
		{"text before first marker", "hello\ninput:\n1\noutput:\n1", nil, true},
		{"missing output", "input:\n1", nil, true},
		{"output first", "output:\n1", nil, true},
		{"two outputs", "input:\n1\noutput:\n1\noutput:\n2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSamples(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestModel_Input(t *testing.T) {
	p := &api.Problem{
		ID: "p1", Code: "A1", Title: "Sum", Statement: "Add.", InputSpec: "a b", OutputSpec: "a+b",
		Difficulty: 2, TimeLimitMs: 2000, MemoryLimitMb: 128, Tags: []string{"math"},
		Samples: []api.Sample{{Input: "1 2", Output: "3"}}, Visibility: api.VisibilityPublic,
	}
	m := New(p, nil)
	assert.True(t, m.Editing())

	in, problems := m.Input()
	require.Empty(t, problems)
	assert.Equal(t, p.Input(), in)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlV})
	in, _ = m.Input()
	assert.Equal(t, api.VisibilityPrivate, in.Visibility)

	m.inputs[inTimeLimit].SetValue("fast")
	_, problems = m.Input()
	assert.Equal(t, []string{"Time (ms) must be a whole number"}, problems)
}

func TestModel_NewProblemBlocksInvalidSave(t *testing.T) {
	m := New(nil, nil)
	assert.False(t, m.Editing())
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Nil(t, cmd)
	assert.False(t, m.submitting)
	assert.Contains(t, m.errs, "Code is required")
}
