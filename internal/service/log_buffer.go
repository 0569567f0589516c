package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/haatos/simple-deploy/internal"
)

// logBuffer accumulates build log lines in memory. Every line carries its own
// timestamp so operators can read durations between steps straight from the
// log. The persisted representation is the newline-joined text.
type logBuffer struct {
	sb strings.Builder
}

func newLogBuffer() *logBuffer {
	return &logBuffer{}
}

func (lb *logBuffer) Addf(format string, args ...any) {
	lb.sb.WriteString("[")
	lb.sb.WriteString(time.Now().UTC().Format(internal.LogTimestampLayout))
	lb.sb.WriteString("] ")
	lb.sb.WriteString(fmt.Sprintf(format, args...))
	lb.sb.WriteString("\n")
}

// AddLines timestamps each non-empty line of a multi-line text block, such
// as captured subprocess output.
func (lb *logBuffer) AddLines(text string) {
	if text == "" {
		return
	}
	for line := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
		if line == "" {
			continue
		}
		lb.Addf("%s", line)
	}
}

func (lb *logBuffer) String() string {
	return lb.sb.String()
}
