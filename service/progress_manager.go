package service

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/kecaps/lsh/domain"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressManagerImpl implements the ProgressManager interface
type ProgressManagerImpl struct {
	mu          sync.Mutex
	writer      io.Writer
	progressBar *progressbar.ProgressBar
	interactive bool
	maxValue    int // Maximum value for progress (set by Initialize)
}

// NewProgressManager creates a new progress manager
func NewProgressManager() domain.ProgressManager {
	return &ProgressManagerImpl{
		writer:      os.Stderr,
		interactive: IsInteractiveEnvironment(),
	}
}

// Initialize sets up progress tracking with the maximum value.
// A non-positive maxValue produces a spinner instead of a bar.
func (pm *ProgressManagerImpl) Initialize(maxValue int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.maxValue = maxValue
}

// Start starts the progress bar
func (pm *ProgressManagerImpl) Start() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if !pm.interactive {
		return
	}

	total := pm.maxValue
	if total <= 0 {
		total = -1
	}

	pm.progressBar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Indexing"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetWriter(pm.writer),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(pm.writer)
		}),
	)
}

// Update updates the progress with the number of processed items
func (pm *ProgressManagerImpl) Update(processed, total int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.progressBar == nil {
		return
	}

	if total != pm.maxValue && total > 0 {
		pm.maxValue = total
		pm.progressBar.ChangeMax(total)
	}

	_ = pm.progressBar.Set(processed)
}

// Complete marks the progress as finished
func (pm *ProgressManagerImpl) Complete(success bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.progressBar == nil {
		return
	}

	// Spinners have no max to finish to, so they just stop.
	if success && pm.maxValue > 0 {
		_ = pm.progressBar.Finish()
	} else {
		_ = pm.progressBar.Exit()
	}
	pm.progressBar = nil
}

// SetWriter changes the output destination for progress rendering.
// Interactivity is re-evaluated when the writer is a real file.
func (pm *ProgressManagerImpl) SetWriter(w io.Writer) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.writer = w
	if f, ok := w.(*os.File); ok {
		pm.interactive = term.IsTerminal(int(f.Fd()))
	}
}

// IsInteractive reports whether progress output will actually render
func (pm *ProgressManagerImpl) IsInteractive() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	return pm.interactive
}

// Close releases any progress resources
func (pm *ProgressManagerImpl) Close() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.progressBar != nil {
		_ = pm.progressBar.Exit()
		pm.progressBar = nil
	}
}

// NoOpProgressManager is a progress manager that does nothing.
// Used when progress display is disabled.
type NoOpProgressManager struct{}

// NewNoOpProgressManager creates a progress manager that discards all updates
func NewNoOpProgressManager() domain.ProgressManager {
	return &NoOpProgressManager{}
}

func (n *NoOpProgressManager) Initialize(maxValue int)     {}
func (n *NoOpProgressManager) Start()                      {}
func (n *NoOpProgressManager) Update(processed, total int) {}
func (n *NoOpProgressManager) Complete(success bool)       {}
func (n *NoOpProgressManager) SetWriter(w io.Writer)       {}
func (n *NoOpProgressManager) IsInteractive() bool         { return false }
func (n *NoOpProgressManager) Close()                      {}

// IsInteractiveEnvironment reports whether stderr is attached to a terminal
// outside of CI. Progress bars are suppressed otherwise.
func IsInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" || os.Getenv("GITHUB_ACTIONS") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
