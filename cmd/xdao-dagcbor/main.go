package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xdao.co/dagcbor/config"
	"xdao.co/dagcbor/observability"
	"xdao.co/dagcbor/storage/casregistry"

	_ "xdao.co/dagcbor/storage/grpccas"
	_ "xdao.co/dagcbor/storage/ipfs"
	_ "xdao.co/dagcbor/storage/localfs"
	_ "xdao.co/dagcbor/storage/memory"
)

// app holds state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	backend    string

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:               "xdao-dagcbor",
		Short:             "Convert JSON to canonical DAG-CBOR and back",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default: ./dagcbor.yaml, ./configs/dagcbor.yaml, ~/.xdao-dagcbor/dagcbor.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level for diagnostics on stderr (debug, info, warn, error)")

	root.AddCommand(
		newEncodeCmd(a),
		newDecodeCmd(a),
		newInspectCmd(a),
		newCIDCmd(),
		newPutCmd(a),
		newGetCmd(a),
		newListCmd(a),
		newBundleCmd(a),
		newBackendsCmd(),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// The CLI stays quiet unless asked; the daemon logs per config.
	if a.logLevel != "" {
		logger, err := observability.SetupLogger(config.LogConfig{
			Level:   a.logLevel,
			Format:  "console",
			Outputs: []string{"stderr"},
		})
		if err != nil {
			return err
		}
		a.logger = logger
	}
	return nil
}

// addBackendFlags exposes --backend and every registered backend's flags on cmd.
func (a *app) addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.backend, "backend", "", "Block store backend: "+strings.Join(casregistry.Names(casregistry.UsageCLI), ", ")+" (default: storage from config)")
	gofs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	casregistry.RegisterFlags(gofs, casregistry.UsageCLI)
	cmd.Flags().AddGoFlagSet(gofs)
}
