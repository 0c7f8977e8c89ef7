package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newDumpCommand() *cobra.Command {
	var (
		offset int64
		length int
	)

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Hex dump raw bytes of a file",
		Long: `Print a hex and ASCII dump of a byte range of a file.

This command exists to diagnose format errors: when reconcile, keys or inspect
report that a file is not a readable HDF5 file, dump its first bytes to check
the HDF5 signature (89 48 44 46 0d 0a 1a 0a) and the superblock that follows.`,
		Example: `  snirf-reconcile dump processed.snirf --length 64`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpFile(cmd.OutOrStdout(), args[0], offset, length)
		},
	}

	cmd.Flags().Int64Var(&offset, "offset", 0, "Offset in file to start dumping from")
	cmd.Flags().IntVar(&length, "length", 128, "Number of bytes to dump")
	return cmd
}

func dumpFile(w io.Writer, name string, offset int64, length int) (err error) {
	//nolint:gosec // G304: User-provided filename is intentional
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}
	size := info.Size()

	if offset < 0 || offset >= size {
		return fmt.Errorf("invalid offset: %d (file size: %d)", offset, size)
	}
	if length < 1 {
		return fmt.Errorf("invalid length: %d", length)
	}

	n := min(int64(length), size-offset)
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read error: %w (read %d of %d bytes)", err, read, n)
	}

	fmt.Fprintf(w, "Dumping %d bytes at offset 0x%x (%d) of %s (size: %d bytes):\n",
		read, offset, offset, name, size)
	hexDump(w, buf[:read], offset)
	return nil
}

// hexDump writes 16 bytes per line: address, hex bytes, then printable ASCII.
func hexDump(w io.Writer, data []byte, base int64) {
	for i := 0; i < len(data); i += 16 {
		chunk := data[i:min(i+16, len(data))]

		fmt.Fprintf(w, "%08x: ", base+int64(i))
		for j := 0; j < 16; j++ {
			if j < len(chunk) {
				fmt.Fprintf(w, "%02x ", chunk[j])
			} else {
				fmt.Fprint(w, "   ")
			}
			if j == 7 {
				fmt.Fprint(w, " ")
			}
		}
		fmt.Fprint(w, " |")

		for _, b := range chunk {
			if b >= 32 && b <= 126 {
				fmt.Fprintf(w, "%c", b)
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w, "|")
	}
}
