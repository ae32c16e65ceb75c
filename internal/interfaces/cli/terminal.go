package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/turtacn/molexplorer/internal/application/explorer"
	"github.com/turtacn/molexplorer/internal/application/render"
)

// terminalDisplay prints status lines and toasts to w, one per line.
type terminalDisplay struct {
	w io.Writer

	mu   sync.Mutex
	info explorer.Info
}

func newTerminalDisplay(w io.Writer) *terminalDisplay {
	return &terminalDisplay{w: w, info: explorer.EmptyInfo()}
}

func (d *terminalDisplay) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.w, color.New(color.Faint).Sprint(status))
}

func (d *terminalDisplay) ShowCompound(info explorer.Info) {
	d.mu.Lock()
	d.info = info
	d.mu.Unlock()
}

func (d *terminalDisplay) Notify(t explorer.Toast) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintf(d.w, "%s %s\n", toastPrefix(t.Severity), t.Message)
}

func (d *terminalDisplay) SetLoading(bool) {}

// Info returns the panel last shown.
func (d *terminalDisplay) Info() explorer.Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info
}

func toastPrefix(s explorer.Severity) string {
	switch s {
	case explorer.SeveritySuccess:
		return color.GreenString("[ok]")
	case explorer.SeverityWarning:
		return color.YellowString("[warn]")
	case explorer.SeverityError:
		return color.RedString("[error]")
	default:
		return color.CyanString("[info]")
	}
}

// terminalViewer stands in for a 3D viewer. It reads the counts line of the
// record and reports what would be drawn.
type terminalViewer struct {
	w io.Writer

	atoms, bonds int
	loaded       bool
	spec         render.StyleSpec
}

func newTerminalViewer(w io.Writer) *terminalViewer {
	return &terminalViewer{w: w, spec: render.Preset(render.DefaultStyle)}
}

func (v *terminalViewer) Clear() {
	v.atoms, v.bonds, v.loaded = 0, 0, false
}

func (v *terminalViewer) AddModel(record, format string) error {
	if format != render.FormatSDF {
		return fmt.Errorf("unsupported model format %q", format)
	}
	atoms, bonds, err := sdfCounts(record)
	if err != nil {
		return err
	}
	v.atoms, v.bonds, v.loaded = atoms, bonds, true
	return nil
}

func (v *terminalViewer) SetStyle(spec render.StyleSpec) { v.spec = spec }

func (v *terminalViewer) ZoomTo() {}

func (v *terminalViewer) Render() error {
	if !v.loaded {
		return nil
	}
	_, err := fmt.Fprintf(v.w, "%s %d atoms, %d bonds (%s)\n",
		color.New(color.Faint).Sprint("rendered"), v.atoms, v.bonds, v.spec.Describe())
	return err
}

// sdfCounts reads the atom and bond counts from the fourth line of an
// MDL molfile, whose first two fields are three characters wide.
func sdfCounts(record string) (atoms, bonds int, err error) {
	lines := strings.SplitN(record, "\n", 5)
	if len(lines) < 4 {
		return 0, 0, fmt.Errorf("sdf: missing counts line")
	}
	counts := strings.TrimRight(lines[3], "\r")
	if len(counts) < 6 {
		return 0, 0, fmt.Errorf("sdf: short counts line %q", counts)
	}
	if atoms, err = strconv.Atoi(strings.TrimSpace(counts[0:3])); err != nil {
		return 0, 0, fmt.Errorf("sdf: bad atom count: %w", err)
	}
	if bonds, err = strconv.Atoi(strings.TrimSpace(counts[3:6])); err != nil {
		return 0, 0, fmt.Errorf("sdf: bad bond count: %w", err)
	}
	return atoms, bonds, nil
}
