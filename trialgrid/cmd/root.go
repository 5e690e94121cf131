// Package cmd provides the command-line interface of trialgrid.
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sarchlab/trialgrid/config"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"input":       "input.path",
	"variable":    "input.variable",
	"protocol":    "protocol.path",
	"output":      "output.path",
	"format":      "output.format",
	"dpi":         "output.dpi",
	"width":       "output.width_in",
	"height":      "output.height_in",
	"record":      "record.enabled",
	"record-path": "record.path",
	"port":        "preview.port",
	"open":        "preview.open",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

// app is the state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand creates the trialgrid command with all its subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{
		v:      viper.New(),
		logger: zap.NewNop(),
	}

	rootCmd := &cobra.Command{
		Use:   "trialgrid",
		Short: "Draw the trial structure of an experiment as a phase grid.",
		Long: `trialgrid reads a sequence of trial categories, splits it into ` +
			`the phases of an experiment protocol, and draws every trial as a ` +
			`coloured square. Settings come from trialgrid.yaml, .env files, ` +
			`TRIALGRID_ environment variables and flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "",
		"config file (default is ./trialgrid.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "console", "log encoding: console or json")

	rootCmd.AddCommand(
		a.newRenderCommand(),
		a.newCheckCommand(),
		a.newLegendCommand(),
		a.newProtocolCommand(),
		a.newServeCommand(),
		newVersionCommand(),
	)

	return rootCmd
}

// Execute runs the trialgrid command.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.Setup(a.v, a.cfgFile); err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = a.v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := newLogger(cfg.Log, a.verbose, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger

	return nil
}

func newLogger(
	cfg config.LogConfig,
	verbose bool,
	w io.Writer,
) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if verbose {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level))

	return zap.New(core), nil
}
