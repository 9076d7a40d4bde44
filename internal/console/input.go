package console

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/larsks/part/internal/session"
	"github.com/larsks/part/internal/snapshot"
)

var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand maps one line of input to an event for state s. The meaning
// of a line depends on the dialog that is open. "q" quits everywhere except
// in the dump path entry, where it is a valid file name.
func ParseCommand(s session.State, line string) (session.Event, error) {
	line = strings.TrimSpace(line)

	if _, ok := s.Top().(session.DumpTargetEntry); !ok && isQuit(line) {
		return session.Quit{}, nil
	}

	switch m := s.Top().(type) {
	case session.ErrorRecovery:
		if m.OfferCreate && strings.EqualFold(line, "c") {
			return session.RequestCreate{}, nil
		}
		if line == "" {
			return session.Dismiss{}, nil
		}
	case session.ErrorDialog:
		return session.Dismiss{}, nil
	case session.CreateConfirmation:
		switch strings.ToLower(line) {
		case "y", "yes":
			return session.ConfirmCreate{}, nil
		case "n", "no", "":
			return session.Dismiss{}, nil
		}
	case session.DumpFormatSelect:
		if line == "" {
			return session.Dismiss{}, nil
		}
		if n, err := strconv.Atoi(line); err == nil {
			if n < 1 || n > len(m.Formats) {
				return nil, errors.Wrapf(ErrUnknownCommand, "no format %d", n)
			}
			return session.ChooseFormat{Format: m.Formats[n-1]}, nil
		}
		f, err := snapshot.ParseFormat(line)
		if err != nil {
			return nil, err
		}
		return session.ChooseFormat{Format: f}, nil
	case session.DumpTargetEntry:
		if line == "" {
			return session.Dismiss{}, nil
		}
		return session.SubmitDump{Path: line}, nil
	case nil:
		return parseScreenCommand(s, line)
	}
	return nil, errors.Wrapf(ErrUnknownCommand, "%q", line)
}

func parseScreenCommand(s session.State, line string) (session.Event, error) {
	cmd, arg, _ := strings.Cut(line, " ")

	if n, err := strconv.Atoi(cmd); err == nil {
		switch s.Screen {
		case session.DeviceList:
			return session.SelectDevice{Index: n - 1}, nil
		case session.PartitionList:
			return session.SelectPartition{Row: n - 1}, nil
		}
	}

	if s.Screen == session.PartitionList {
		switch cmd {
		case "a", "add":
			return session.AddPartition{Name: strings.TrimSpace(arg)}, nil
		case "d", "dump":
			return session.OpenDump{}, nil
		case "b", "back":
			return session.Back{}, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownCommand, "%q", line)
}

func isQuit(line string) bool {
	return strings.EqualFold(line, "q") || strings.EqualFold(line, "quit")
}

// Run drives m from s until the session is done or in is exhausted.
func Run(m *session.Machine, s session.State, in io.Reader, r *Renderer) error {
	scanner := bufio.NewScanner(in)
	for s.Screen != session.Done {
		r.Render(s)
		if !scanner.Scan() {
			break
		}
		ev, err := ParseCommand(s, scanner.Text())
		if err != nil {
			r.println(colorError, err.Error())
			continue
		}
		s = m.Transition(s, ev)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "couldn't read input")
	}
	return nil
}
