package render

import (
	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// FormatSDF names the record format passed to AddModel.
const FormatSDF = "sdf"

const msgRenderFailed = "Failed to render molecular structure"

// Viewer is the molecular rendering collaborator.
type Viewer interface {
	Clear()
	AddModel(record, format string) error
	SetStyle(spec StyleSpec)
	ZoomTo()
	Render() error
}

// Apply shows record in v: clear, load, style, zoom, render.
func Apply(v Viewer, record compound.StructuralRecord, spec StyleSpec) error {
	v.Clear()
	if err := v.AddModel(record.Text, FormatSDF); err != nil {
		return errors.RenderError(msgRenderFailed).WithCause(err)
	}
	v.SetStyle(spec)
	v.ZoomTo()
	if err := v.Render(); err != nil {
		return errors.RenderError(msgRenderFailed).WithCause(err)
	}
	return nil
}

// Restyle changes the style of the loaded model.
func Restyle(v Viewer, spec StyleSpec) error {
	v.SetStyle(spec)
	if err := v.Render(); err != nil {
		return errors.RenderError(msgRenderFailed).WithCause(err)
	}
	return nil
}

// Reset re-centres the loaded model.
func Reset(v Viewer) error {
	v.ZoomTo()
	if err := v.Render(); err != nil {
		return errors.RenderError(msgRenderFailed).WithCause(err)
	}
	return nil
}

// Blank empties the viewer.
func Blank(v Viewer) error {
	v.Clear()
	if err := v.Render(); err != nil {
		return errors.RenderError(msgRenderFailed).WithCause(err)
	}
	return nil
}
