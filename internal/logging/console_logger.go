package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	verboseLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// ConsoleLogger writes log lines to a writer, stderr by default.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	out     io.Writer
	verbose bool
	styled  bool
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger on stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to out.
func NewConsoleLoggerTo(out io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{out: out, verbose: verbose}
}

// WithStyle enables colored labels. Callers decide based on terminal detection.
func (l *ConsoleLogger) WithStyle(styled bool) *ConsoleLogger {
	l.styled = styled
	return l
}

func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write(verboseLabel, "[VERBOSE] ", format, args)
}

func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	l.write(lipgloss.Style{}, "", format, args)
}

func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write(errorLabel, "[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(style lipgloss.Style, label, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if label != "" && l.styled {
		label = style.Render(label[:len(label)-1]) + " "
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, label+msg+"\n")
}
