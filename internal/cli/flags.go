package cli

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/larsks/part/internal/snapshot"
	"github.com/larsks/part/internal/table"
	"github.com/larsks/part/internal/units"
)

var (
	_ pflag.Value = (*sizeValue)(nil)
	_ pflag.Value = (*uuidValue)(nil)
	_ pflag.Value = (*typeValue)(nil)
	_ pflag.Value = (*snapshot.Format)(nil)
)

// sizeValue is an optional byte count flag accepting suffixes like 10M.
type sizeValue struct {
	value uint64
	set   bool
}

func (s *sizeValue) String() string {
	if !s.set {
		return ""
	}
	return strconv.FormatUint(s.value, 10)
}

func (s *sizeValue) Set(v string) error {
	n, err := units.ParseSize(v)
	if err != nil {
		return err
	}
	s.value = n
	s.set = true
	return nil
}

func (s *sizeValue) Type() string { return "size" }

// ptr returns nil when the flag was not given.
func (s *sizeValue) ptr() *uint64 {
	if !s.set {
		return nil
	}
	v := s.value
	return &v
}

// uuidValue is an optional GUID flag.
type uuidValue struct {
	value uuid.UUID
	set   bool
}

func (u *uuidValue) String() string {
	if !u.set {
		return ""
	}
	return strings.ToUpper(u.value.String())
}

func (u *uuidValue) Set(v string) error {
	id, err := uuid.Parse(v)
	if err != nil {
		return errors.Wrapf(err, "invalid GUID %q", v)
	}
	u.value = id
	u.set = true
	return nil
}

func (u *uuidValue) Type() string { return "guid" }

func (u *uuidValue) ptr() *uuid.UUID {
	if !u.set {
		return nil
	}
	v := u.value
	return &v
}

// typeValue is a partition type given as a GUID or a well known name.
type typeValue struct {
	value uuid.UUID
}

func (t *typeValue) String() string {
	if t.value == uuid.Nil {
		return ""
	}
	return strings.ToUpper(t.value.String())
}

func (t *typeValue) Set(v string) error {
	typ, err := table.ParseType(v)
	if err != nil {
		return err
	}
	t.value = typ
	return nil
}

func (t *typeValue) Type() string { return "type" }

func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, 0, len(snapshot.Formats()))
	for _, f := range snapshot.Formats() {
		names = append(names, f.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeTypes(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return table.TypeAliases(), cobra.ShellCompDirectiveNoFileComp
}
