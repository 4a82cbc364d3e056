package problemform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fragmede/ojterm/internal/api"
)

// Defaults for a new problem.
const (
	DefaultDifficulty    = 1
	DefaultTimeLimitMs   = 1000
	DefaultMemoryLimitMb = 256

	minTimeLimitMs   = 100
	minMemoryLimitMb = 64
)

// Blank returns the input for a new problem: private, with one empty sample.
func Blank() api.ProblemInput {
	return api.ProblemInput{
		Difficulty:    DefaultDifficulty,
		TimeLimitMs:   DefaultTimeLimitMs,
		MemoryLimitMb: DefaultMemoryLimitMb,
		Samples:       []api.Sample{{}},
		Visibility:    api.VisibilityPrivate,
	}
}

// Validate returns the problems with in, in field order.
func Validate(in api.ProblemInput) []string {
	var problems []string
	required := []struct{ name, value string }{
		{"Code", in.Code},
		{"Title", in.Title},
		{"Statement", in.Statement},
		{"Input specification", in.InputSpec},
		{"Output specification", in.OutputSpec},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problems = append(problems, r.name+" is required")
		}
	}
	if in.Difficulty < 1 || in.Difficulty > 10 {
		problems = append(problems, "Difficulty must be between 1 and 10")
	}
	if in.TimeLimitMs < minTimeLimitMs {
		problems = append(problems, fmt.Sprintf("Time limit must be at least %dms", minTimeLimitMs))
	}
	if in.MemoryLimitMb < minMemoryLimitMb {
		problems = append(problems, fmt.Sprintf("Memory limit must be at least %dMB", minMemoryLimitMb))
	}
	for i, s := range in.Samples {
		if strings.TrimSpace(s.Input) == "" || strings.TrimSpace(s.Output) == "" {
			problems = append(problems, fmt.Sprintf("Sample %d needs both input and output", i+1))
		}
	}
	return problems
}

// ParseTags splits a comma separated tag list, dropping blanks and duplicates.
func ParseTags(s string) []string {
	var tags []string
	seen := map[string]bool{}
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tags = append(tags, t)
	}
	return tags
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return n, nil
}

const (
	inputMarker  = "input:"
	outputMarker = "output:"
)

var errSampleFormat = errors.New(`samples must alternate "input:" and "output:" sections`)

// FormatSamples renders samples in the editable text form:
//
//	input:
//	1 2
//	output:
//	3
func FormatSamples(samples []api.Sample) string {
	var sb strings.Builder
	for i, s := range samples {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(inputMarker + "\n")
		if s.Input != "" {
			sb.WriteString(strings.TrimRight(s.Input, "\n") + "\n")
		}
		sb.WriteString(outputMarker + "\n")
		if s.Output != "" {
			sb.WriteString(strings.TrimRight(s.Output, "\n") + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ParseSamples reads the text form written by FormatSamples.
func ParseSamples(text string) ([]api.Sample, error) {
	var (
		samples []api.Sample
		cur     *api.Sample
		section *[]string
		in, out []string
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Input = strings.Join(trimBlank(in), "\n")
		cur.Output = strings.Join(trimBlank(out), "\n")
		samples = append(samples, *cur)
		cur, in, out = nil, nil, nil
	}

	for _, line := range strings.Split(text, "\n") {
		switch strings.ToLower(strings.TrimSpace(line)) {
		case inputMarker:
			flush()
			cur = &api.Sample{}
			section = &in
		case outputMarker:
			if cur == nil || section != &in {
				return nil, errSampleFormat
			}
			section = &out
		default:
			if cur == nil {
				if strings.TrimSpace(line) != "" {
					return nil, errSampleFormat
				}
				continue
			}
			*section = append(*section, line)
		}
	}
	if cur != nil && section != &out {
		return nil, errSampleFormat
	}
	flush()
	return samples, nil
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
