package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/neoload/internal/services"
	"github.com/vvka-141/neoload/pkg/neoload"
)

type stageMsg string

type partitionMsg services.PartitionOutcome

type finishMsg struct{}

// progressModel renders a spinner with the running partition totals.
type progressModel struct {
	spinner   spinner.Model
	stage     string
	succeeded int
	failed    int
	rows      int
	counters  neoload.Counters
	started   time.Time
	now       func() time.Time
	finished  bool
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return progressModel{spinner: s, stage: "Starting", started: time.Now(), now: time.Now}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageMsg:
		m.stage = string(msg)
	case partitionMsg:
		if msg.Err != nil {
			m.failed++
		} else {
			m.succeeded++
			m.rows += msg.Rows
			m.counters = m.counters.Add(msg.Counters)
		}
	case finishMsg:
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.stage)
	b.WriteString("\n")

	parts := fmt.Sprintf("partitions %d ok", m.succeeded)
	if m.failed > 0 {
		parts += ", " + ErrorStyle.Render(fmt.Sprintf("%d failed", m.failed))
	}
	stats := []string{
		parts,
		fmt.Sprintf("rows %d", m.rows),
		m.counters.String(),
		m.now().Sub(m.started).Round(time.Second).String(),
	}
	b.WriteString(MutedStyle.Render("  " + strings.Join(stats, " "+SymbolBullet+" ")))
	b.WriteString("\n")
	return b.String()
}

// Progress shows live load progress on a terminal. It is also a
// neoload.Logger: while running, log lines are printed above the
// progress display instead of through it.
type Progress struct {
	out     io.Writer
	verbose bool
	program *tea.Program
	done    chan struct{}

	mu      sync.Mutex
	running bool
}

// NewProgress creates a display writing to out. Signals are left to the caller.
func NewProgress(out io.Writer, verbose bool) *Progress {
	return &Progress{
		out:     out,
		verbose: verbose,
		program: tea.NewProgram(newProgressModel(), tea.WithOutput(out), tea.WithInput(nil), tea.WithoutSignalHandler()),
		done:    make(chan struct{}),
	}
}

func (p *Progress) Start() {
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
}

// Stop clears the display and waits for it to exit.
func (p *Progress) Stop() {
	p.mu.Lock()
	running := p.running
	p.running = false
	p.mu.Unlock()

	if running {
		p.program.Send(finishMsg{})
		<-p.done
	}
}

// SetStage replaces the text next to the spinner.
func (p *Progress) SetStage(format string, args ...interface{}) {
	p.send(stageMsg(fmt.Sprintf(format, args...)))
}

func (p *Progress) OnPartitionDone(o services.PartitionOutcome) {
	p.send(partitionMsg(o))
}

func (p *Progress) OnFileStarted(index, total int, url string) {
	p.SetStage("Loading %s (%d/%d)", url, index+1, total)
}

func (p *Progress) OnChunkLoaded(url string, chunk int, result neoload.LoadResult) {
	p.SetStage("Loading %s, chunk %d done", url, chunk+1)
}

func (p *Progress) Verbose(format string, args ...interface{}) {
	if p.verbose {
		p.println(MutedStyle.Render("[VERBOSE] ") + fmt.Sprintf(format, args...))
	}
}

func (p *Progress) Info(format string, args ...interface{}) {
	p.println(fmt.Sprintf(format, args...))
}

func (p *Progress) Error(format string, args ...interface{}) {
	p.println(ErrorStyle.Bold(true).Render("[ERROR] ") + fmt.Sprintf(format, args...))
}

// send drops messages while the display is not running; Send would block.
func (p *Progress) send(msg tea.Msg) {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	if running {
		p.program.Send(msg)
	}
}

func (p *Progress) println(line string) {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()

	if running {
		p.program.Println(line)
		return
	}
	fmt.Fprintln(p.out, line)
}
