package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// readInput reads the file named by args[0], or stdin when it is absent or "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

// readBinary is readInput with optional hex decoding.
func readBinary(cmd *cobra.Command, args []string, isHex bool) ([]byte, error) {
	b, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	if !isHex {
		return b, nil
	}
	out, err := hex.DecodeString(strings.Join(strings.Fields(string(b)), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return out, nil
}

// writeBinary writes b raw, or as one line of hex.
func writeBinary(w io.Writer, b []byte, asHex bool) error {
	if asHex {
		_, err := fmt.Fprintln(w, hex.EncodeToString(b))
		return err
	}
	_, err := w.Write(b)
	return err
}
