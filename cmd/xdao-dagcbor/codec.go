package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"xdao.co/dagcbor/bridge"
	"xdao.co/dagcbor/cidutil"
	"xdao.co/dagcbor/dagcbor"
	"xdao.co/dagcbor/storage"
)

// codecFlags override the codec section of the config for one invocation.
type codecFlags struct {
	noImplicit  bool
	reserved    []string
	tagKey      string
	rejectLossy bool
	indent      string
}

func (f *codecFlags) register(fl *pflag.FlagSet) {
	fl.BoolVar(&f.noImplicit, "no-implicit-links", false, "Only promote identifiers under reserved link fields")
	fl.StringSliceVar(&f.reserved, "reserved-field", nil, "Reserved link field (repeatable; default \"cid\")")
	fl.StringVar(&f.tagKey, "tag-key", "", "Wrapper key for reserved link fields (default \"42\")")
	fl.BoolVar(&f.rejectLossy, "reject-lossy", false, "Fail on integers outside int64 instead of encoding a float")
}

func (a *app) converter(fl *pflag.FlagSet, f *codecFlags) *bridge.Converter {
	c := a.cfg.Codec
	if fl.Changed("no-implicit-links") {
		c.ImplicitLinks = !f.noImplicit
	}
	if fl.Changed("reserved-field") {
		c.ReservedLinkFields = f.reserved
	}
	if fl.Changed("tag-key") {
		c.TagKey = f.tagKey
	}
	if fl.Changed("reject-lossy") {
		c.RejectLossyNumbers = f.rejectLossy
	}
	if fl.Changed("indent") {
		c.Indent = f.indent
	}
	return bridge.New(c.Options())
}

func newEncodeCmd(a *app) *cobra.Command {
	var (
		cf     codecFlags
		asHex  bool
		onlyID bool
		hash   string
	)
	cmd := &cobra.Command{
		Use:   "encode [file|-]",
		Short: "Encode JSON text as canonical DAG-CBOR",
		Long: `Encode JSON text as canonical DAG-CBOR.

Strings that parse as CIDs become tag 42 links. A reserved field such as
"cid" holding a CID becomes {"42": <link>}. Integers outside int64 are
encoded as the nearest float unless --reject-lossy is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			res, err := a.converter(cmd.Flags(), &cf).Encode(in)
			if err != nil {
				return err
			}
			a.logger.Debug("encoded",
				zap.Int("bytes", len(res.Bytes)),
				zap.Int("links", res.Report.Links),
				zap.Int("tagged_links", res.Report.TaggedLinks),
				zap.Strings("lossy", res.Report.Lossy),
			)
			for _, p := range res.Report.Lossy {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: integer at %s encoded as float\n", p)
			}
			if onlyID {
				alg, err := cidutil.ParseHashAlg(hash)
				if err != nil {
					return err
				}
				id, err := cidutil.BlockCID(res.Bytes, alg)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
				return err
			}
			return writeBinary(cmd.OutOrStdout(), res.Bytes, asHex)
		},
	}
	cf.register(cmd.Flags())
	cmd.Flags().BoolVar(&asHex, "hex", false, "Write hex instead of raw bytes")
	cmd.Flags().BoolVar(&onlyID, "cid", false, "Print the block CID instead of the bytes")
	cmd.Flags().StringVar(&hash, "hash", string(cidutil.DefaultHashAlg), "Multihash for --cid (sha2-256, sha3-256)")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var (
		cf    codecFlags
		isHex bool
	)
	cmd := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode DAG-CBOR bytes to JSON text",
		Long: `Decode DAG-CBOR bytes to JSON text.

Links are written as their CID string; bytes as arrays of integers.
Decoding never re-creates the {"42": ...} wrapper or links from strings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readBinary(cmd, args, isHex)
			if err != nil {
				return err
			}
			text, err := a.converter(cmd.Flags(), &cf).Decode(in)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().BoolVar(&isHex, "hex", false, "Input is hex text")
	cmd.Flags().StringVar(&cf.indent, "indent", "", "Pretty-print with this indent (e.g. \"  \")")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	var isHex bool
	cmd := &cobra.Command{
		Use:   "inspect [file|-]",
		Short: "Print DAG-CBOR bytes in CBOR diagnostic notation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readBinary(cmd, args, isHex)
			if err != nil {
				return err
			}
			diag, err := dagcbor.Diagnose(in)
			if err != nil {
				return fmt.Errorf("inspect: %w", err)
			}
			a.logger.Debug("inspected", zap.Int("bytes", len(in)))
			_, err = fmt.Fprintln(cmd.OutOrStdout(), diag)
			return err
		},
	}
	cmd.Flags().BoolVar(&isHex, "hex", false, "Input is hex text")
	return cmd
}

func newCIDCmd() *cobra.Command {
	var (
		isHex bool
		hash  string
	)
	cmd := &cobra.Command{
		Use:   "cid [file|-]",
		Short: "Print the CIDv1 (dag-cbor) of an encoded block",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readBinary(cmd, args, isHex)
			if err != nil {
				return err
			}
			alg, err := cidutil.ParseHashAlg(hash)
			if err != nil {
				return err
			}
			id, err := storage.BlockID(in, alg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
	cmd.Flags().BoolVar(&isHex, "hex", false, "Input is hex text")
	cmd.Flags().StringVar(&hash, "hash", string(cidutil.DefaultHashAlg), "Multihash (sha2-256, sha3-256)")
	return cmd
}
