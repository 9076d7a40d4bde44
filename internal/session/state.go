// Package session implements the interactive editor as a state machine
// that is independent of any rendering. A front end shows a State, turns
// user input into Events and calls Machine.Transition.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/larsks/part/internal/actions"
	"github.com/larsks/part/internal/device"
	"github.com/larsks/part/internal/placement"
	"github.com/larsks/part/internal/snapshot"
	"github.com/larsks/part/internal/table"
	"github.com/larsks/part/internal/units"
)

// Screen is the full screen view underneath any modal dialogs.
type Screen int

const (
	DeviceList Screen = iota
	PartitionList
	Done
)

func (s Screen) String() string {
	switch s {
	case DeviceList:
		return "device-list"
	case PartitionList:
		return "partition-list"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// SessionState is the mutable data shared by the partition list
// transitions. LastSelected is the last real partition the user selected;
// the free-space preview is computed relative to it.
type SessionState struct {
	CurrentTable *table.Table
	LastSelected *table.Record
}

// Row is one line of the partition list: a RealRow or the FreeSpaceRow.
type Row interface {
	isRow()
	Label() string
}

type RealRow struct {
	Number int
	Record table.Record
}

type FreeSpaceRow struct{}

func (RealRow) isRow()      {}
func (FreeSpaceRow) isRow() {}

func (r RealRow) Label() string    { return fmt.Sprintf("Partition %d", r.Number) }
func (FreeSpaceRow) Label() string { return "Free Space" }

// Detail is the content of the info panel for the selected row.
type Detail struct {
	Name        string
	Start       uint64
	Size        uint64
	ID          uuid.UUID
	Type        uuid.UUID
	Placeholder bool
}

// Lines renders the detail panel.
func (d Detail) Lines() []string {
	return []string{
		fmt.Sprintf("Name: %s", d.Name),
		fmt.Sprintf("Start: %d", d.Start),
		fmt.Sprintf("Size: %s", units.FormatSize(d.Size)),
		fmt.Sprintf("UUID: %s", d.ID),
		fmt.Sprintf("Type: %s", table.TypeName(d.Type)),
	}
}

func recordDetail(r table.Record) *Detail {
	return &Detail{
		Name:  r.Name,
		Start: r.Start,
		Size:  r.Size(),
		ID:    r.ID,
		Type:  r.Type,
	}
}

func placeholderDetail(rg placement.Range) *Detail {
	return &Detail{
		Name:        "None",
		Start:       rg.Start,
		Size:        rg.Size(),
		ID:          uuid.Nil,
		Type:        table.TypeUnused,
		Placeholder: true,
	}
}

// Modal is a dialog shown over the current screen. Dialogs stack; Dismiss
// closes the topmost one.
type Modal interface {
	isModal()
	Title() string
}

// ErrorRecovery reports a failure to open a device. When OfferCreate is
// set the user may create a new table instead. QuitOnDismiss is set when
// there is no screen to go back to.
type ErrorRecovery struct {
	Err           error
	OfferCreate   bool
	QuitOnDismiss bool
}

// CreateConfirmation asks before overwriting the device with a new table.
type CreateConfirmation struct{}

// DumpFormatSelect asks which format to dump in.
type DumpFormatSelect struct {
	Formats []snapshot.Format
}

// DumpTargetEntry asks where to write an already rendered dump.
type DumpTargetEntry struct {
	Format snapshot.Format
	Data   []byte
}

// ErrorDialog shows a failure that leaves the state underneath unchanged.
type ErrorDialog struct {
	Err error
}

func (ErrorRecovery) isModal()      {}
func (CreateConfirmation) isModal() {}
func (DumpFormatSelect) isModal()   {}
func (DumpTargetEntry) isModal()    {}
func (ErrorDialog) isModal()        {}

func (ErrorRecovery) Title() string      { return "Error" }
func (CreateConfirmation) Title() string { return "Are you sure?" }
func (DumpFormatSelect) Title() string   { return "Select format" }
func (DumpTargetEntry) Title() string    { return "Dump File" }

func (d ErrorDialog) Title() string {
	if table.IsValidation(d.Err) {
		return "Invalid partition"
	}
	return "Error"
}

// State is everything a front end needs to draw the session.
type State struct {
	Screen Screen

	// Devices is the device list, empty when the session was started on
	// one explicit device.
	Devices      []device.Descriptor
	DeviceCursor int

	// Device is the device being edited, or being opened.
	Device *device.Descriptor

	Session     SessionState
	Rows        []Row
	Cursor      int
	Detail      *Detail
	Placeholder *placement.Range

	Modals []Modal
	Status string

	editor *actions.Editor
}

// Top returns the topmost dialog, or nil.
func (s State) Top() Modal {
	if len(s.Modals) == 0 {
		return nil
	}
	return s.Modals[len(s.Modals)-1]
}

func (s State) push(m Modal) State {
	modals := make([]Modal, len(s.Modals), len(s.Modals)+1)
	copy(modals, s.Modals)
	s.Modals = append(modals, m)
	return s
}

func (s State) pop() State {
	if len(s.Modals) == 0 {
		return s
	}
	s.Modals = append([]Modal(nil), s.Modals[:len(s.Modals)-1]...)
	return s
}

func (s State) replaceTop(m Modal) State {
	return s.pop().push(m)
}
