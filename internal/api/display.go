package api

// Display metadata for verdicts and languages. Presentation only.

type verdictDisplay struct {
	text  string
	color string
}

var verdictTable = map[Verdict]verdictDisplay{
	VerdictAccepted:            {"Accepted", "green"},
	VerdictWrongAnswer:         {"Wrong Answer", "red"},
	VerdictTimeLimitExceeded:   {"Time Limit Exceeded", "orange"},
	VerdictMemoryLimitExceeded: {"Memory Limit Exceeded", "orange"},
	VerdictRuntimeError:        {"Runtime Error", "red"},
	VerdictCompilationError:    {"Compilation Error", "red"},
	VerdictSystemError:         {"System Error", "red"},
	VerdictPending:             {"Pending", "blue"},
}

// Text returns the human-readable verdict. Unknown verdicts are returned as is.
func (v Verdict) Text() string {
	if d, ok := verdictTable[v]; ok {
		return d.text
	}
	return string(v)
}

// Color returns the display color name for v, "default" when unknown.
func (v Verdict) Color() string {
	if d, ok := verdictTable[v]; ok {
		return d.color
	}
	return "default"
}

var languageNames = map[Language]string{
	LanguageCPP:        "C++",
	LanguageJava:       "Java",
	LanguagePython:     "Python",
	LanguageJavaScript: "JavaScript",
	LanguageC:          "C",
}

// DisplayName returns the language's display name, or the raw value if unknown.
func (l Language) DisplayName() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return string(l)
}

// DifficultyText buckets a 1-10 difficulty into Easy, Medium or Hard.
func DifficultyText(d int) string {
	switch {
	case d <= 3:
		return "Easy"
	case d <= 6:
		return "Medium"
	default:
		return "Hard"
	}
}

// DifficultyColor returns the display color for a difficulty bucket.
func DifficultyColor(d int) string {
	switch {
	case d <= 3:
		return "green"
	case d <= 6:
		return "orange"
	default:
		return "red"
	}
}
