// Package cli implements the part command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/larsks/part/internal/actions"
	"github.com/larsks/part/internal/config"
	"github.com/larsks/part/internal/console"
	"github.com/larsks/part/internal/device"
	"github.com/larsks/part/internal/placement"
	"github.com/larsks/part/internal/session"
	"github.com/larsks/part/internal/table"
	"github.com/larsks/part/internal/version"
)

const progName = "part"

var ErrNoCommand = errors.New("no command given; use --interactive or a subcommand")

type options struct {
	block       sizeValue
	interactive bool
	configPath  string
	verbose     bool
}

// app is the state shared by every command once flags are parsed.
type app struct {
	opts   *options
	cfg    *config.Config
	logger *logrus.Logger
	lister device.Lister
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd(device.LsblkLister{})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree. lister enumerates devices for the
// auto device argument.
func NewRootCmd(lister device.Lister) *cobra.Command {
	a := &app{
		opts:   &options{},
		logger: logrus.New(),
		lister: lister,
	}

	cmd := &cobra.Command{
		Use:   progName + " [device]",
		Short: "Inspect and edit GPT partition tables",
		Long: `Inspect and edit GPT partition tables on block devices and disk images.

The device defaults to "auto": the interactive editor shows a device
list, and subcommands use the only disk on the system.`,
		Version:           version.GetVersion(progName),
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.opts.interactive {
				return ErrNoCommand
			}
			return a.runInteractive(cmd, deviceArg(args))
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.PersistentFlags().Var(&a.opts.block, "block", "override the logical block size (e.g. 4096)")
	cmd.PersistentFlags().StringVar(&a.opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/part/config.toml)")
	cmd.PersistentFlags().BoolVarP(&a.opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().BoolVarP(&a.opts.interactive, "interactive", "i", false, "start the interactive editor")

	cmd.AddCommand(a.createCmd())
	cmd.AddCommand(a.addPartitionCmd())
	cmd.AddCommand(a.dumpCmd())
	cmd.AddCommand(a.restoreCmd())
	cmd.AddCommand(a.printCmd())
	cmd.AddCommand(completeCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if a.opts.verbose {
		level = logrus.DebugLevel
	}
	a.logger.SetOutput(cmd.ErrOrStderr())
	a.logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	a.logger.SetLevel(level)
	return nil
}

func deviceArg(args []string) string {
	if len(args) == 0 {
		return device.AutoDetect
	}
	return args[0]
}

func (a *app) probeOptions() device.ProbeOptions {
	return device.ProbeOptions{BlockSize: a.opts.block.value}
}

func (a *app) resolver() *placement.Resolver {
	minStart, err := a.cfg.MinStartBytes()
	if err != nil {
		// Load has already validated the config.
		minStart = placement.DefaultMinStart
	}
	return placement.NewResolver(minStart)
}

func (a *app) newEditor(d device.Descriptor) *actions.Editor {
	return actions.NewEditor(d, a.resolver(), a.logger)
}

// editor resolves the device argument and returns its editor.
func (a *app) editor(arg string) (*actions.Editor, error) {
	d, err := device.Resolve(arg, a.lister, a.probeOptions())
	if err != nil {
		return nil, err
	}
	a.logger.WithFields(logrus.Fields{
		"device":     d.Path,
		"size":       d.TotalSize,
		"block_size": d.LogicalBlockSize,
	}).Debug("using device")
	return a.newEditor(d), nil
}

// open reads the table on the device named by arg.
func (a *app) open(arg string) (*actions.Editor, *table.Table, error) {
	e, err := a.editor(arg)
	if err != nil {
		return nil, nil, err
	}
	t, err := e.Open()
	if err != nil {
		return nil, nil, err
	}
	return e, t, nil
}

func (a *app) runInteractive(cmd *cobra.Command, arg string) error {
	m := session.NewMachine(a.newEditor, a.lister, a.logger)

	var s session.State
	if arg == device.AutoDetect {
		s = m.Start()
	} else {
		d, err := device.Probe(arg, a.probeOptions())
		if err != nil {
			return err
		}
		s = m.StartWith(d)
	}

	out := cmd.OutOrStdout()
	r := console.NewRenderer(out, console.UseColor(a.cfg.Color, fileOf(out)))
	return console.Run(m, s, cmd.InOrStdin(), r)
}

// fileOf returns w as a file when it is one, for terminal detection.
func fileOf(w io.Writer) *os.File {
	if f, ok := w.(*os.File); ok {
		return f
	}
	return nil
}
