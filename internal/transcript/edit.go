package transcript

import (
	"errors"
	"fmt"
)

// ErrEditInProgress is returned by Begin while a different field is open.
var ErrEditInProgress = errors.New("another field is being edited")

// Cursor is the single (segment, field) pair open for inline editing.
type Cursor struct {
	Index int
	Field Field
}

// EditSession gates which field is editable and finalizes edits into a
// Store. At most one cursor exists at a time.
//
// Blur and AcceptKey both finalize with the last typed value; only Cancel
// discards it. Once an edit is finalized the cursor is gone, so a second
// finalize arriving for the same edit (a blur firing while an Enter commit is
// being handled) is a no-op.
type EditSession struct {
	store  *Store
	cursor *Cursor
	draft  string
	seed   string
	dirty  bool
}

// NewEditSession returns an idle session editing store.
func NewEditSession(store *Store) *EditSession {
	return &EditSession{store: store}
}

// Cursor returns the open cursor, if any.
func (e *EditSession) Cursor() (Cursor, bool) {
	if e.cursor == nil {
		return Cursor{}, false
	}
	return *e.cursor, true
}

// Draft returns the value currently typed into the open field.
func (e *EditSession) Draft() string { return e.draft }

// Begin opens field of the segment at index for editing and seeds the draft
// with its displayed value. Re-opening the already open field is a no-op.
func (e *EditSession) Begin(index int, field Field) error {
	if e.cursor != nil {
		if *e.cursor == (Cursor{Index: index, Field: field}) {
			return nil
		}
		return fmt.Errorf("%w: segment %d %s", ErrEditInProgress, e.cursor.Index, e.cursor.Field)
	}
	value, ok := e.store.Display(index, field)
	if !ok {
		return &EditError{Index: index, Field: field, Reason: "field is not editable"}
	}
	e.cursor = &Cursor{Index: index, Field: field}
	e.draft = value
	e.seed = value
	e.dirty = false
	return nil
}

// Type records the latest value typed into the open field.
func (e *EditSession) Type(value string) {
	if e.cursor == nil {
		return
	}
	e.draft = value
	e.dirty = true
}

// Commit clears the cursor and routes rawValue to the store. A rejected value
// leaves the segment unchanged and the caller re-renders the last good
// value; there is no retry. Without an open cursor Commit does nothing.
func (e *EditSession) Commit(rawValue string) error {
	if e.cursor == nil {
		return nil
	}
	c := *e.cursor
	e.clear()
	return e.store.UpdateField(c.Index, c.Field, rawValue)
}

// AcceptKey finalizes the open field with the draft. applied reports
// whether the store changed; a draft still equal to the seeded value closes
// the field without committing.
func (e *EditSession) AcceptKey() (applied bool, err error) {
	return e.finalize()
}

// Blur finalizes the open field with the draft, like AcceptKey. Losing
// focus commits; it does not cancel.
func (e *EditSession) Blur() (applied bool, err error) {
	return e.finalize()
}

// Cancel closes the open field and discards the draft.
func (e *EditSession) Cancel() {
	e.clear()
}

func (e *EditSession) finalize() (bool, error) {
	if e.cursor == nil {
		return false, nil
	}
	if !e.dirty || e.draft == e.seed {
		e.clear()
		return false, nil
	}
	if err := e.Commit(e.draft); err != nil {
		return false, err
	}
	return true, nil
}

func (e *EditSession) clear() {
	e.cursor = nil
	e.draft = ""
	e.seed = ""
	e.dirty = false
}
