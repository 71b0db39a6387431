package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tanq16/dltime/internal/units"
)

type Task struct {
	ID          int
	Label       string
	Status      string
	Message     string
	Stream      string
	Complete    bool
	StartTime   time.Time
	LastUpdated time.Time
	Error       error
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager redraws a live list of tasks in place until StopDisplay.
type Manager struct {
	out         io.Writer
	tasks       []*Task
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	displayWg   sync.WaitGroup
}

func NewManager(out io.Writer) *Manager {
	return &Manager{
		out:         out,
		doneCh:      make(chan struct{}),
		displayTick: 200 * time.Millisecond,
	}
}

func (m *Manager) Register(label string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	now := time.Now()
	m.tasks = append(m.tasks, &Task{
		ID:          len(m.tasks) + 1,
		Label:       label,
		Status:      "pending",
		StartTime:   now,
		LastUpdated: now,
	})
	return len(m.tasks)
}

func (m *Manager) task(id int) *Task {
	if id < 1 || id > len(m.tasks) {
		return nil
	}
	return m.tasks[id-1]
}

func (m *Manager) SetMessage(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if t := m.task(id); t != nil {
		t.Message = message
		t.LastUpdated = time.Now()
	}
}

// SetProgress shows a progress bar with the running throughput under the task.
func (m *Manager) SetProgress(id int, done, total int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if t := m.task(id); t != nil {
		elapsed := time.Since(t.StartTime).Seconds()
		speed := 0.0
		if elapsed > 0 {
			speed = float64(done) / elapsed
		}
		t.Stream = fmt.Sprintf("%s%s %s %s",
			PrintProgressBar(done, total, 30),
			debugStyle.Render(fmt.Sprintf("%s / %s", units.FormatBytes(uint64(max(done, 0))), units.FormatBytes(uint64(max(total, 0))))),
			StyleSymbols["bullet"],
			debugStyle.Render(units.FormatSpeed(speed)))
		t.LastUpdated = time.Now()
	}
}

func (m *Manager) Complete(id int, message string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if t := m.task(id); t != nil {
		t.Stream = ""
		if message == "" {
			message = fmt.Sprintf("Completed %s", t.Label)
		}
		t.Message = message
		t.Complete = true
		t.Status = "success"
		t.LastUpdated = time.Now()
	}
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if t := m.task(id); t != nil {
		t.Stream = ""
		t.Message = fmt.Sprintf("Failed %s", t.Label)
		t.Complete = true
		t.Status = "error"
		t.Error = err
		t.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{Label: t.Label, Error: err, Time: time.Now()})
	}
}

func statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	default:
		return pendingStyle.Render(StyleSymbols["pending"])
	}
}

func styleMessage(status, message string) string {
	switch status {
	case "success":
		return successStyle.Render(message)
	case "error":
		return errorStyle.Render(message)
	default:
		return pendingStyle.Render(message)
	}
}

// render returns the current frame, limited to maxLines lines.
func (m *Manager) render(maxLines int) (string, int) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var sb strings.Builder
	lines := 0
	for _, t := range m.tasks {
		if lines >= maxLines {
			break
		}
		elapsed := time.Since(t.StartTime).Round(time.Second)
		if t.Complete {
			elapsed = t.LastUpdated.Sub(t.StartTime).Round(time.Second)
		}
		message := t.Message
		if message == "" {
			message = "Waiting..."
		}
		fmt.Fprintf(&sb, "  %s %s %s\n", statusIndicator(t.Status), debugStyle.Render(elapsed.String()), styleMessage(t.Status, message))
		lines++
		if t.Stream != "" && lines < maxLines {
			fmt.Fprintf(&sb, "      %s\n", t.Stream)
			lines++
		}
	}
	return sb.String(), lines
}

func (m *Manager) updateDisplay() {
	frame, lines := m.render(getTerminalHeight() - 3)
	if m.numLines > 0 {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	fmt.Fprint(m.out, frame)
	m.numLines = lines
}

func (m *Manager) StartDisplay() {
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				m.updateDisplay()
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	close(m.doneCh)
	m.displayWg.Wait()
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var success, failures int
	for _, t := range m.tasks {
		switch t.Status {
		case "success":
			success++
		case "error":
			failures++
		}
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "  "+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.tasks))))
	if failures == 0 {
		return
	}
	fmt.Fprintln(m.out, "  "+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.tasks))))
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "  "+errorStyle.Bold(true).Render("Errors:"))
	for i, report := range m.errors {
		fmt.Fprintf(m.out, "    %s %s %s\n",
			errorStyle.Render(fmt.Sprintf("%d.", i+1)),
			debugStyle.Render(fmt.Sprintf("[%s]", report.Time.Format("15:04:05"))),
			errorStyle.Render(report.Label))
		fmt.Fprintf(m.out, "      %s\n", errorStyle.Render(fmt.Sprintf("Error: %v", report.Error)))
	}
}
