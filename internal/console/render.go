// Package console is a line oriented front end for the interactive
// session. It prints the current state, reads one command per line and
// feeds the resulting events to a session.Machine.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/morikuni/aec"

	"github.com/larsks/part/internal/session"
	"github.com/larsks/part/internal/units"
)

// Renderer draws session states.
type Renderer struct {
	out   io.Writer
	color bool
}

func NewRenderer(out io.Writer, color bool) *Renderer {
	return &Renderer{out: out, color: color}
}

func (r *Renderer) c(clr aec.ANSI) aec.ANSI {
	if r.color {
		return clr
	}
	return colorNone
}

func (r *Renderer) println(clr aec.ANSI, args ...any) {
	fmt.Fprintln(r.out, r.c(clr).Apply(fmt.Sprint(args...)))
}

// Render draws s followed by the prompt for the input it expects.
func (r *Renderer) Render(s session.State) {
	switch s.Screen {
	case session.DeviceList:
		r.deviceList(s)
	case session.PartitionList:
		r.partitionList(s)
	case session.Done:
		return
	}

	if top := s.Top(); top != nil {
		r.modal(top)
	}
	fmt.Fprint(r.out, Prompt(s))
}

func (r *Renderer) deviceList(s session.State) {
	r.println(colorTitle, "Devices")
	for i, d := range s.Devices {
		line := fmt.Sprintf("%3d) %s", i+1, d.Label())
		if i == s.DeviceCursor {
			r.println(colorCursor, line)
		} else {
			r.println(colorNone, line)
		}
	}
}

func (r *Renderer) partitionList(s session.State) {
	title := "Partitions"
	if s.Device != nil {
		title = fmt.Sprintf("Partitions on %s (%s, %d byte blocks)",
			s.Device.Path, units.FormatSize(s.Device.TotalSize), s.Device.LogicalBlockSize)
	}
	if t := s.Session.CurrentTable; t != nil {
		title += fmt.Sprintf(", %s free", units.FormatSize(t.Free()))
	}
	r.println(colorTitle, title)

	for i, row := range s.Rows {
		marker := " "
		if i == s.Cursor {
			marker = ">"
		}
		line := fmt.Sprintf("%s%3d) %s", marker, i+1, row.Label())
		switch row.(type) {
		case session.FreeSpaceRow:
			r.println(colorFreeSpace, line)
		default:
			r.println(colorNone, line)
		}
	}

	if s.Detail != nil {
		fmt.Fprintln(r.out)
		for _, l := range s.Detail.Lines() {
			r.println(colorNone, "    "+l)
		}
	}
	if s.Status != "" {
		r.println(colorFaint, s.Status)
	}
}

func (r *Renderer) modal(m session.Modal) {
	fmt.Fprintln(r.out)
	r.println(colorTitle, "[ "+m.Title()+" ]")

	switch m := m.(type) {
	case session.ErrorRecovery:
		r.println(colorError, m.Err.Error())
	case session.ErrorDialog:
		r.println(colorError, m.Err.Error())
	case session.CreateConfirmation:
		r.println(colorNone, "This will overwrite the partition table on the device.")
	case session.DumpFormatSelect:
		for i, f := range m.Formats {
			r.println(colorNone, fmt.Sprintf("%3d) %s", i+1, f))
		}
	case session.DumpTargetEntry:
		r.println(colorNone, fmt.Sprintf("Writing %d bytes of %s", len(m.Data), m.Format))
	}
}

// Prompt lists the commands valid in s.
func Prompt(s session.State) string {
	var choices []string
	switch m := s.Top().(type) {
	case session.ErrorRecovery:
		if m.OfferCreate {
			choices = append(choices, "c=create new table")
		}
		if m.QuitOnDismiss {
			choices = append(choices, "enter=quit")
		} else {
			choices = append(choices, "enter=back", "q=quit")
		}
	case session.ErrorDialog:
		choices = append(choices, "enter=ok", "q=quit")
	case session.CreateConfirmation:
		choices = append(choices, "y=yes", "n=cancel", "q=quit")
	case session.DumpFormatSelect:
		choices = append(choices, "number or name=format", "enter=cancel", "q=quit")
	case session.DumpTargetEntry:
		// Any text is a path here, so quitting takes a cancel first.
		return "Dump file path (empty to cancel, then q to quit): "
	case nil:
		switch s.Screen {
		case session.DeviceList:
			choices = append(choices, "number=open device", "q=quit")
		case session.PartitionList:
			choices = append(choices, "number=select", "a [name]=add", "d=dump")
			if len(s.Devices) > 0 {
				choices = append(choices, "b=back")
			}
			choices = append(choices, "q=quit")
		}
	}
	return "[" + strings.Join(choices, ", ") + "] > "
}
