// Package editor implements the detail form as a small state machine:
//
//	Loading -> Ready -> (Editing <-> Saving) -> Saved
//	Loading -> Failed
//
// The editor owns a private draft copy of one circuit. Network calls go
// through a Backend; the split BeginSave/FinishSave and FinishLoad methods
// let an event loop run the call elsewhere and apply the result later.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/martinsuchenak/circuits/internal/model"
)

var (
	// ErrNotEditable is returned when the draft cannot change in the current state.
	ErrNotEditable = errors.New("circuit is not editable in this state")
	// ErrNotLoading is returned when a load result arrives outside Loading.
	ErrNotLoading = errors.New("editor is not loading")
	// ErrNotSaving is returned when a save result arrives outside Saving.
	ErrNotSaving = errors.New("editor is not saving")
)

// State of the editor.
type State int

const (
	Loading State = iota
	Ready
	Editing
	Saving
	Saved
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Editor holds one circuit draft.
type Editor struct {
	id      string
	create  bool
	state   State
	loaded  model.Circuit
	draft   model.Circuit
	dirty   bool
	message string
}

// NewForUpdate returns an editor waiting to load the circuit with id.
func NewForUpdate(id string) *Editor {
	return &Editor{id: id, state: Loading}
}

// NewForCreate returns an editor with an empty draft, ready for input.
func NewForCreate() *Editor {
	return &Editor{create: true, state: Ready}
}

func (e *Editor) State() State { return e.state }
func (e *Editor) ID() string { return e.id }
func (e *Editor) Creating() bool { return e.create }
func (e *Editor) Dirty() bool { return e.dirty }
func (e *Editor) Message() string { return e.message }
func (e *Editor) Draft() model.Circuit { return e.draft }
func (e *Editor) Loaded() model.Circuit { return e.loaded }
func (e *Editor) Value(field string) string {
	v, _ := e.draft.Get(field)
	return v
}

// Load fetches the circuit and applies the result.
func (e *Editor) Load(ctx context.Context, b Backend) error {
	if e.state != Loading {
		return ErrNotLoading
	}
	return e.FinishLoad(b.GetCircuit(ctx, e.id))
}

// FinishLoad applies a fetch result. A failure is terminal.
func (e *Editor) FinishLoad(res model.Result[model.Circuit]) error {
	if e.state != Loading {
		return ErrNotLoading
	}
	res.Match(
		func(c model.Circuit) {
			e.loaded = c
			e.draft = c
			e.state = Ready
			e.message = ""
		},
		func(f model.Failure) {
			e.state = Failed
			e.message = f.Message
		},
	)
	if f, failed := res.Failure(); failed {
		return f
	}
	return nil
}

// Set changes one field of the draft.
func (e *Editor) Set(field, value string) error {
	if e.state != Ready && e.state != Editing {
		return ErrNotEditable
	}
	if field == model.FieldID {
		return fmt.Errorf("%w: id is read-only", ErrNotEditable)
	}
	if err := e.draft.Set(field, value); err != nil {
		return err
	}
	e.state = Editing
	e.dirty = true
	return nil
}

// BeginSave moves to Saving and returns the draft to submit.
func (e *Editor) BeginSave() (model.Circuit, error) {
	if e.state != Ready && e.state != Editing {
		return model.Circuit{}, ErrNotEditable
	}
	e.state = Saving
	e.message = ""
	return e.draft, nil
}

// FinishSave applies a save result. On failure the draft is kept and the
// editor returns to Editing with the failure message.
func (e *Editor) FinishSave(res model.Result[model.Circuit]) error {
	if e.state != Saving {
		return ErrNotSaving
	}
	if f, failed := res.Failure(); failed {
		e.state = Editing
		e.message = f.Message
		return f
	}
	if c, ok := res.Get(); ok && e.create && c.ID != "" {
		e.draft.ID = c.ID
		e.id = c.ID
	}
	e.loaded = e.draft
	e.dirty = false
	e.state = Saved
	return nil
}

// Save submits the full draft, through create for a new circuit and update otherwise.
func (e *Editor) Save(ctx context.Context, b Backend) error {
	draft, err := e.BeginSave()
	if err != nil {
		return err
	}
	return e.FinishSave(Submit(ctx, b, e.create, draft))
}

// Submit sends draft to the backend.
func Submit(ctx context.Context, b Backend, create bool, draft model.Circuit) model.Result[model.Circuit] {
	if create {
		return b.CreateCircuit(ctx, model.DTOFromCircuit(draft))
	}
	return b.UpdateCircuit(ctx, draft)
}
