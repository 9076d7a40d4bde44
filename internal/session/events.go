package session

import "github.com/larsks/part/internal/snapshot"

// Event is user input, already mapped to an intent by the front end.
type Event interface {
	isEvent()
}

// SelectDevice opens the device at Index in the device list.
type SelectDevice struct{ Index int }

// SelectPartition moves the partition list selection to Row.
type SelectPartition struct{ Row int }

// RequestCreate is the "Create New Table" button of the error dialog.
type RequestCreate struct{}

// ConfirmCreate accepts the create confirmation. This writes to the device.
type ConfirmCreate struct{}

// AddPartition turns the free-space preview into a real partition.
type AddPartition struct{ Name string }

// OpenDump starts the dump flow.
type OpenDump struct{}

// ChooseFormat picks the dump format.
type ChooseFormat struct{ Format snapshot.Format }

// SubmitDump writes the dump to Path.
type SubmitDump struct{ Path string }

// Dismiss closes the topmost dialog.
type Dismiss struct{}

// Back returns from the partition list to the device list.
type Back struct{}

// Quit ends the session from any screen.
type Quit struct{}

func (SelectDevice) isEvent()    {}
func (SelectPartition) isEvent() {}
func (RequestCreate) isEvent()   {}
func (ConfirmCreate) isEvent()   {}
func (AddPartition) isEvent()    {}
func (OpenDump) isEvent()        {}
func (ChooseFormat) isEvent()    {}
func (SubmitDump) isEvent()      {}
func (Dismiss) isEvent()         {}
func (Back) isEvent()            {}
func (Quit) isEvent()            {}
