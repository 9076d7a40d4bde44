package session

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/larsks/part/internal/actions"
	"github.com/larsks/part/internal/device"
	"github.com/larsks/part/internal/placement"
	"github.com/larsks/part/internal/snapshot"
	"github.com/larsks/part/internal/table"
)

// EditorFactory returns the editor for a selected device.
type EditorFactory func(d device.Descriptor) *actions.Editor

// Machine holds the collaborators of the session. All session data lives in
// State; a Machine can drive any number of sessions.
type Machine struct {
	newEditor EditorFactory
	lister    device.Lister
	logger    logrus.FieldLogger
}

func NewMachine(newEditor EditorFactory, lister device.Lister, logger logrus.FieldLogger) *Machine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Machine{
		newEditor: newEditor,
		lister:    lister,
		logger:    logger,
	}
}

// Start begins a session on the device list. A failure to list devices
// leaves nothing to go back to, so dismissing it quits.
func (m *Machine) Start() State {
	s := State{Screen: DeviceList}
	devices, err := m.lister.List()
	if err != nil {
		return s.push(ErrorRecovery{
			Err:           errors.Wrap(err, "couldn't list devices"),
			QuitOnDismiss: true,
		})
	}
	if len(devices) == 0 {
		return s.push(ErrorRecovery{
			Err:           errors.New("no disks found"),
			QuitOnDismiss: true,
		})
	}
	s.Devices = devices
	return s
}

// StartWith begins a session directly on d.
func (m *Machine) StartWith(d device.Descriptor) State {
	return m.open(State{Screen: DeviceList}, d, true)
}

// Transition returns the state that follows s after e. Events that do not
// apply to s return s unchanged.
func (m *Machine) Transition(s State, e Event) State {
	next := m.transition(s, e)
	m.logger.WithFields(logrus.Fields{
		"event": fmt.Sprintf("%T", e),
		"from":  s.Screen,
		"to":    next.Screen,
		"modal": len(next.Modals),
	}).Debug("session transition")
	return next
}

func (m *Machine) transition(s State, e Event) State {
	if _, ok := e.(Quit); ok {
		s.Screen = Done
		return s
	}
	if s.Screen == Done {
		return s
	}

	if top := s.Top(); top != nil {
		return m.modalTransition(s, top, e)
	}

	switch s.Screen {
	case DeviceList:
		if ev, ok := e.(SelectDevice); ok {
			if ev.Index < 0 || ev.Index >= len(s.Devices) {
				return s
			}
			s.DeviceCursor = ev.Index
			return m.open(s, s.Devices[ev.Index], false)
		}
	case PartitionList:
		switch ev := e.(type) {
		case SelectPartition:
			return m.selectRow(s, ev.Row)
		case AddPartition:
			return m.addPartition(s, ev.Name)
		case OpenDump:
			return s.push(DumpFormatSelect{Formats: snapshot.Formats()})
		case Back:
			if len(s.Devices) == 0 {
				return s
			}
			return backToDevices(s)
		}
	}
	return s
}

func (m *Machine) modalTransition(s State, top Modal, e Event) State {
	if _, ok := e.(Dismiss); ok {
		if er, ok := top.(ErrorRecovery); ok && er.QuitOnDismiss {
			s.Screen = Done
			return s
		}
		s = s.pop()
		if s.Screen == DeviceList && len(s.Modals) == 0 {
			s.Device = nil
			s.editor = nil
		}
		return s
	}

	switch mod := top.(type) {
	case ErrorRecovery:
		if _, ok := e.(RequestCreate); ok && mod.OfferCreate {
			return s.push(CreateConfirmation{})
		}
	case CreateConfirmation:
		if _, ok := e.(ConfirmCreate); ok {
			return m.createTable(s)
		}
	case DumpFormatSelect:
		if ev, ok := e.(ChooseFormat); ok {
			data, err := s.editor.DumpTable(s.Session.CurrentTable, ev.Format)
			if err != nil {
				return s.replaceTop(ErrorDialog{Err: err})
			}
			return s.replaceTop(DumpTargetEntry{Format: ev.Format, Data: data})
		}
	case DumpTargetEntry:
		if ev, ok := e.(SubmitDump); ok {
			if err := actions.WriteDump(ev.Path, mod.Data); err != nil {
				// The entry stays open underneath so another path can be tried.
				return s.push(ErrorDialog{Err: err})
			}
			s = s.pop()
			s.Status = fmt.Sprintf("Dumped table to %s", ev.Path)
			return s
		}
	}
	return s
}

// open reads the table on d. On failure the device stays pending so that
// the error dialog can offer to create a table on it.
func (m *Machine) open(s State, d device.Descriptor, quitOnDismiss bool) State {
	ed := m.newEditor(d)
	s.Device = &d
	s.editor = ed

	t, err := ed.Open()
	if err != nil {
		return s.push(ErrorRecovery{
			Err:           err,
			OfferCreate:   errors.Is(err, table.ErrNoTable),
			QuitOnDismiss: quitOnDismiss,
		})
	}
	return m.enterPartitions(s, t)
}

func (m *Machine) createTable(s State) State {
	t, err := s.editor.CreateTable(nil)
	if err != nil {
		return s.push(ErrorDialog{Err: err})
	}
	s.Modals = nil
	s.Status = fmt.Sprintf("Created new table %s", t.ID())
	return m.enterPartitions(s, t)
}

func (m *Machine) selectRow(s State, i int) State {
	if i < 0 || i >= len(s.Rows) {
		return s
	}
	s.Cursor = i
	switch row := s.Rows[i].(type) {
	case RealRow:
		rec := row.Record
		s.Session.LastSelected = &rec
		s.Detail = recordDetail(rec)
		s.Placeholder = nil
	case FreeSpaceRow:
		rg := s.editor.Resolver().Preview(s.Session.CurrentTable, s.Session.LastSelected)
		s.Placeholder = &rg
		s.Detail = placeholderDetail(rg)
	}
	return s
}

// addPartition persists the free-space preview. Only now does the
// placeholder become part of the table.
func (m *Machine) addPartition(s State, name string) State {
	if s.Placeholder == nil {
		return s
	}
	rg := *s.Placeholder
	hint := placement.Hint{Start: &rg.Start, End: placement.AbsoluteEnd(rg.End)}

	next, rec, err := s.editor.AddPartition(s.Session.CurrentTable, hint, actions.PartitionOptions{Name: name})
	if err != nil {
		return s.push(ErrorDialog{Err: err})
	}
	if err := s.editor.Write(next); err != nil {
		return s.push(ErrorDialog{Err: err})
	}

	s.Session.CurrentTable = next
	s.Session.LastSelected = &rec
	s.Rows = buildRows(next)
	s.Status = fmt.Sprintf("Added partition %s", rec.ID)
	// Keep the free-space row selected; its preview now follows the new
	// partition.
	return m.selectRow(s, len(s.Rows)-1)
}

// enterPartitions shows t with the first row selected, so the detail panel
// and the last selection are filled in from the start.
func (m *Machine) enterPartitions(s State, t *table.Table) State {
	s.Screen = PartitionList
	s.Session = SessionState{CurrentTable: t}
	s.Rows = buildRows(t)
	s.Detail = nil
	s.Placeholder = nil
	return m.selectRow(s, 0)
}

func backToDevices(s State) State {
	s.Screen = DeviceList
	s.Device = nil
	s.editor = nil
	s.Session = SessionState{}
	s.Rows = nil
	s.Cursor = 0
	s.Detail = nil
	s.Placeholder = nil
	s.Status = ""
	return s
}

// buildRows lists the partitions in table order followed by the single
// free-space row.
func buildRows(t *table.Table) []Row {
	parts := t.Partitions()
	rows := make([]Row, 0, len(parts)+1)
	for i, p := range parts {
		rows = append(rows, RealRow{Number: i + 1, Record: p})
	}
	return append(rows, FreeSpaceRow{})
}
