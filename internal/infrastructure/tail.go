package infrastructure

import "strings"

// DiagnosticTailLines is how many trailing lines are shown in user-facing
// failure messages. Root-cause errors appear near the end of tool output, so
// the tail keeps the last lines, never the first.
const DiagnosticTailLines = 30

// OutputTail keeps the most recent N lines of tool output to bound memory
// while preserving enough context for diagnostics.
type OutputTail struct {
	lines []string
	cap   int
	start int
	count int
}

// NewOutputTail creates a tail keeping at most capacity lines
func NewOutputTail(capacity int) *OutputTail {
	if capacity < 1 {
		capacity = 1
	}
	return &OutputTail{
		lines: make([]string, capacity),
		cap:   capacity,
	}
}

// Append adds a line, evicting the oldest when full
func (t *OutputTail) Append(line string) {
	if t.count < t.cap {
		t.lines[(t.start+t.count)%t.cap] = line
		t.count++
		return
	}
	t.lines[t.start] = line
	t.start = (t.start + 1) % t.cap
}

// Len returns the number of retained lines
func (t *OutputTail) Len() int {
	return t.count
}

// Lines returns the retained lines in original order
func (t *OutputTail) Lines() []string {
	out := make([]string, 0, t.count)
	for i := 0; i < t.count; i++ {
		out = append(out, t.lines[(t.start+i)%t.cap])
	}
	return out
}

// String joins all retained lines
func (t *OutputTail) String() string {
	return strings.Join(t.Lines(), "\n")
}

// Last joins at most limit trailing lines, in original order
func (t *OutputTail) Last(limit int) string {
	lines := t.Lines()
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return strings.Join(lines, "\n")
}
