package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/larsks/part/internal/actions"
	"github.com/larsks/part/internal/placement"
	"github.com/larsks/part/internal/snapshot"
	"github.com/larsks/part/internal/table"
	"github.com/larsks/part/internal/units"
	"github.com/larsks/part/internal/version"
)

var ErrOverrideNeedsBlock = errors.New("--override-block requires --block")

func (a *app) createCmd() *cobra.Command {
	var id uuidValue
	cmd := &cobra.Command{
		Use:   "create [device]",
		Short: "Write a new, empty partition table",
		Long:  "Write a new, empty partition table. Any existing table on the device is overwritten.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.editor(deviceArg(args))
			if err != nil {
				return err
			}
			t, err := e.CreateTable(id.ptr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.ToUpper(t.ID().String()))
			return nil
		},
	}
	cmd.Flags().Var(&id, "uuid", "table GUID (default random)")
	return cmd
}

func (a *app) addPartitionCmd() *cobra.Command {
	var (
		start, end, size sizeValue
		id               uuidValue
		typ              typeValue
		name             string
	)
	cmd := &cobra.Command{
		Use:     "add-partition [device]",
		Aliases: []string{"add"},
		Short:   "Add a partition to the existing table",
		Long: `Add a partition to the existing table.

Without --start the partition follows the last partition, or starts at
1 MiB on an empty table. Without --end or --size it fills the free space
after its start. Sizes accept K, M, G and T suffixes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hint, err := placement.NewHint(start.ptr(), end.ptr(), size.ptr())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("partition-type") {
				if typ.value, err = a.cfg.Type(); err != nil {
					return err
				}
			}

			e, t, err := a.open(deviceArg(args))
			if err != nil {
				return err
			}
			next, rec, err := e.AddPartition(t, hint, actions.PartitionOptions{
				ID:   id.ptr(),
				Type: typ.value,
				Name: name,
			})
			if err != nil {
				return err
			}
			if err := e.Write(next); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d %d %s\n",
				strings.ToUpper(rec.ID.String()), rec.Start, rec.End, units.FormatSize(rec.Size()))
			return nil
		},
	}
	cmd.Flags().Var(&start, "start", "start offset in bytes (default after the last partition)")
	cmd.Flags().Var(&end, "end", "last byte of the partition")
	cmd.Flags().Var(&size, "size", "partition size")
	cmd.Flags().Var(&typ, "partition-type", fmt.Sprintf("partition type GUID or one of: %s", strings.Join(table.TypeAliases(), ", ")))
	cmd.Flags().Var(&id, "uuid", "partition GUID (default random)")
	cmd.Flags().StringVar(&name, "name", "", "partition name")
	cmd.MarkFlagsMutuallyExclusive("end", "size")
	_ = cmd.RegisterFlagCompletionFunc("partition-type", completeTypes)
	return cmd
}

// format returns the --format flag value, falling back to the config.
func (a *app) format(cmd *cobra.Command, f snapshot.Format) (snapshot.Format, error) {
	if cmd.Flags().Changed("format") {
		return f, nil
	}
	return a.cfg.SnapshotFormat()
}

func formatUsage() string {
	names := make([]string, 0, len(snapshot.Formats()))
	for _, f := range snapshot.Formats() {
		names = append(names, f.String())
	}
	return fmt.Sprintf("snapshot format (%s)", strings.Join(names, ", "))
}

func (a *app) dumpCmd() *cobra.Command {
	format := snapshot.JSON
	cmd := &cobra.Command{
		Use:   "dump [device]",
		Short: "Write a snapshot of the partition table to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.format(cmd, format)
			if err != nil {
				return err
			}
			e, t, err := a.open(deviceArg(args))
			if err != nil {
				return err
			}
			data, err := e.DumpTable(t, f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Var(&format, "format", formatUsage())
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	format := snapshot.JSON
	var overrideBlock bool
	cmd := &cobra.Command{
		Use:   "restore [device]",
		Short: "Write a partition table from a snapshot read on stdin",
		Long: `Write a partition table from a snapshot read on stdin.

The snapshot is fully decoded and validated before anything is written.
A snapshot taken with a different logical block size is rejected unless
--override-block is given. The block size from --block then replaces the
one recorded in the snapshot; partition byte offsets are kept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if overrideBlock && !a.opts.block.set {
				return ErrOverrideNeedsBlock
			}
			f, err := a.format(cmd, format)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return errors.Wrap(err, "couldn't read snapshot from stdin")
			}

			e, err := a.editor(deviceArg(args))
			if err != nil {
				return err
			}
			var override uint64
			if overrideBlock {
				override = a.opts.block.value
			}
			t, err := e.RestoreTable(data, f, override)
			if err != nil {
				return err
			}
			t, err = e.Retarget(t)
			if err != nil {
				return err
			}
			return e.Write(t)
		},
	}
	cmd.Flags().Var(&format, "format", formatUsage())
	cmd.Flags().BoolVar(&overrideBlock, "override-block", false, "use the --block size instead of the snapshot's block size")
	_ = cmd.RegisterFlagCompletionFunc("format", completeFormats)
	return cmd
}

func (a *app) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print [device]",
		Short: "List the partitions on a device",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, t, err := a.open(deviceArg(args))
			if err != nil {
				return err
			}
			return printTable(cmd.OutOrStdout(), e.Device().Path, t)
		},
	}
}

func printTable(out io.Writer, path string, t *table.Table) error {
	fmt.Fprintf(out, "Disk %s: %s, %d byte blocks\n", path, units.FormatSize(t.DiskSize()), t.BlockSize())
	fmt.Fprintf(out, "Table GUID: %s\n", strings.ToUpper(t.ID().String()))
	fmt.Fprintf(out, "Free space: %s\n\n", units.FormatSize(t.Free()))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTART\tEND\tSIZE\tTYPE\tNAME\tGUID")
	for i, p := range t.Partitions() {
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			i+1, p.Start, p.End, units.FormatSize(p.Size()), table.TypeName(p.Type), p.Name,
			strings.ToUpper(p.ID.String()))
	}
	return w.Flush()
}

func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "complete [shell]",
		Short:     "Generate a shell completion script (default fish)",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		// No config or logging needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := "fish"
			if len(args) > 0 {
				shell = args[0]
			}
			root := cmd.Root()
			out := cmd.OutOrStdout()
			switch shell {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		Args:              cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetVersion(progName))
		},
	}
}
