package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"xdao.co/dagcbor/storage"
	"xdao.co/dagcbor/storage/bundle"
	"xdao.co/dagcbor/storage/casregistry"
)

// openCAS opens --backend if given, otherwise the storage section of the config.
func (a *app) openCAS() (storage.CAS, func() error, error) {
	nop := func() error { return nil }
	if a.backend != "" {
		cas, closeFn, err := casregistry.Open(a.backend, casregistry.UsageCLI)
		if err != nil {
			return nil, nil, err
		}
		if closeFn == nil {
			closeFn = nop
		}
		a.logger.Debug("opened backend", zap.String("backend", a.backend))
		return cas, closeFn, nil
	}
	if len(a.cfg.Storage.Backends) == 0 {
		return nil, nil, errors.New("no block store: pass --backend or configure storage.backends")
	}
	cas, closeFn, err := a.cfg.Storage.Open(casregistry.UsageCLI, "")
	if err != nil {
		return nil, nil, err
	}
	if closeFn == nil {
		closeFn = nop
	}
	return cas, closeFn, nil
}

func parseCIDArg(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, fmt.Errorf("invalid CID %q: %w", s, err)
	}
	return id, nil
}

func newPutCmd(a *app) *cobra.Command {
	var (
		cf       codecFlags
		fromJSON bool
		isHex    bool
	)
	cmd := &cobra.Command{
		Use:   "put [file|-]",
		Short: "Store a DAG-CBOR block and print its CID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var block []byte
			if fromJSON {
				in, err := readInput(cmd, args)
				if err != nil {
					return err
				}
				res, err := a.converter(cmd.Flags(), &cf).Encode(in)
				if err != nil {
					return err
				}
				block = res.Bytes
			} else {
				in, err := readBinary(cmd, args, isHex)
				if err != nil {
					return err
				}
				block = in
			}

			cas, closeFn, err := a.openCAS()
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := cas.Put(block)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	cf.register(cmd.Flags())
	cmd.Flags().BoolVar(&fromJSON, "json", false, "Input is JSON text; encode it first")
	cmd.Flags().BoolVar(&isHex, "hex", false, "Input is hex text")
	a.addBackendFlags(cmd)
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var (
		cf     codecFlags
		toJSON bool
		asHex  bool
	)
	cmd := &cobra.Command{
		Use:   "get <cid>",
		Short: "Fetch a block by CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseCIDArg(args[0])
			if err != nil {
				return err
			}
			cas, closeFn, err := a.openCAS()
			if err != nil {
				return err
			}
			defer closeFn()

			b, err := cas.Get(id)
			if err != nil {
				return err
			}
			if !toJSON {
				return writeBinary(cmd.OutOrStdout(), b, asHex)
			}
			text, err := a.converter(cmd.Flags(), &cf).Decode(b)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&toJSON, "json", false, "Decode the block to JSON text")
	cmd.Flags().BoolVar(&asHex, "hex", false, "Write hex instead of raw bytes")
	cmd.Flags().StringVar(&cf.indent, "indent", "", "Pretty-print JSON with this indent")
	a.addBackendFlags(cmd)
	return cmd
}

func newBundleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Export or import blocks as a deterministic TAR bundle",
	}

	var (
		outPath string
		noIndex bool
		all     bool
	)
	export := &cobra.Command{
		Use:   "export <cid>...",
		Short: "Write the given blocks (or the whole store with --all) to a bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass CIDs or --all, not both")
			}
			ids := make([]cid.Cid, 0, len(args))
			for _, s := range args {
				id, err := parseCIDArg(s)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			cas, closeFn, err := a.openCAS()
			if err != nil {
				return err
			}
			defer closeFn()
			if all {
				if ids, err = listStore(cas); err != nil {
					return err
				}
			}

			var buf bytes.Buffer
			if err := bundle.Export(&buf, cas, ids, bundle.ExportOptions{IncludeIndex: !noIndex}); err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			return os.WriteFile(outPath, buf.Bytes(), 0o644)
		},
	}
	export.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	export.Flags().BoolVar(&noIndex, "no-index", false, "Omit the index.cbor manifest")
	export.Flags().BoolVar(&all, "all", false, "Export every block the store can list")
	a.addBackendFlags(export)

	var ignoreUnknown bool
	imp := &cobra.Command{
		Use:   "import [file|-]",
		Short: "Import every block of a bundle and print the CIDs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			cas, closeFn, err := a.openCAS()
			if err != nil {
				return err
			}
			defer closeFn()

			ids, err := bundle.ImportWithOptions(bytes.NewReader(in), cas, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	imp.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip unknown TAR entries instead of failing")
	a.addBackendFlags(imp)

	cmd.AddCommand(export, imp)
	return cmd
}

func listStore(cas storage.CAS) ([]cid.Cid, error) {
	ids, ok, err := storage.ListAll(cas)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("block store %T cannot list its blocks", cas)
	}
	return ids, nil
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the CIDs held by the block store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cas, closeFn, err := a.openCAS()
			if err != nil {
				return err
			}
			defer closeFn()
			ids, err := listStore(cas)
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	a.addBackendFlags(cmd)
	return cmd
}

func newBackendsCmd() *cobra.Command {
	var daemon bool
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List linked block store backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			usage := casregistry.UsageCLI
			if daemon {
				usage = casregistry.UsageDaemon
			}
			for _, b := range casregistry.List(usage) {
				fmt.Fprintln(cmd.OutOrStdout(), b.Summary())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&daemon, "daemon", false, "List backends available to the daemon")
	return cmd
}
