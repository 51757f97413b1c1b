package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// readCloser adapts the command's input for promptui.
func readCloser(cmd *cobra.Command) io.ReadCloser {
	if rc, ok := cmd.InOrStdin().(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(cmd.InOrStdin())
}

// writeCloser adapts the command's output for promptui.
func writeCloser(cmd *cobra.Command) io.WriteCloser {
	if wc, ok := cmd.OutOrStdout().(io.WriteCloser); ok {
		return wc
	}
	return nopWriteCloser{cmd.OutOrStdout()}
}
