package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chatfs/internal/provider"
	"chatfs/internal/readstream"
)

func newReadCommand(appCtx *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "read <path> <offset> <count>",
		Short: "Read count bytes of path starting at offset and write them to stdout",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("cli: invalid offset: %w", err)
			}
			count, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("cli: invalid count: %w", err)
			}

			cfg := appCtx.Provider.Config()
			key, err := appCtx.Config.DecodedEncryptionKey()
			if err != nil {
				return err
			}
			chunkPlainSize := provider.ChunkDataSize(cfg.MaxAttachmentSize)

			stream := readstream.New(appCtx.Provider, appCtx.Provider.Adapter(), key, chunkPlainSize, readstream.DefaultParallelism, appCtx.Log)
			defer stream.Dispose()

			res, err := stream.Open(args[0])
			if err != nil {
				return err
			}
			if res.FileNotFound {
				return fmt.Errorf("cli: %s: not found", args[0])
			}
			defer stream.Close()

			barOut := io.Writer(os.Stderr)
			if !term.IsTerminal(int(os.Stderr.Fd())) {
				// Piped or redirected: a progress bar would just be
				// noise in the captured stream.
				barOut = io.Discard
			}
			bar := progressbar.NewOptions64(int64(count),
				progressbar.OptionSetDescription("reading "+args[0]),
				progressbar.OptionSetWriter(barOut),
				progressbar.OptionShowBytes(true),
			)

			buf := make([]byte, count)
			n, err := stream.Read(cmd.Context(), buf, 0, offset, count)
			if err != nil {
				return err
			}
			_ = bar.Add(n)

			_, err = os.Stdout.Write(buf[:n])
			return err
		},
	}
}
