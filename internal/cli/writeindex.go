package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"chatfs/internal/chunk"
	"chatfs/internal/index"
	"chatfs/internal/provider"
	"chatfs/internal/transport"
)

func newWriteIndexCommand(appCtx *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "write-index",
		Short: "Scan the configured local path, upload file content, and publish a new remote index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appCtx.Provider.Config()
			if cfg.LocalPath == "" {
				return fmt.Errorf("cli: localPath is not configured")
			}

			idx, err := index.BuildForDirectory(cfg.LocalPath)
			if err != nil {
				return err
			}

			key, err := appCtx.Config.DecodedEncryptionKey()
			if err != nil {
				return err
			}
			chunkPlainSize := provider.ChunkDataSize(cfg.MaxAttachmentSize)
			if chunkPlainSize <= 0 {
				return fmt.Errorf("cli: maxAttachmentSize %d too small for any chunk payload", cfg.MaxAttachmentSize)
			}

			for _, entry := range idx.Entries() {
				quoted := shellquote.Join(entry.RelativePath)
				fmt.Printf("uploading %s (%d bytes)\n", quoted, entry.Length)

				chunks, err := uploadFileContent(cmd.Context(), appCtx, cfg.LocalPath, entry, chunkPlainSize, key)
				if err != nil {
					return fmt.Errorf("cli: upload %s: %w", entry.RelativePath, err)
				}
				entry.Chunks = chunks
				idx.Put(entry)
			}

			if err := appCtx.Provider.WriteIndex(cmd.Context(), idx); err != nil {
				return err
			}
			fmt.Printf("published index: %d files\n", idx.Len())
			return nil
		},
	}
}

// uploadFileContent splits entry's file content into chunkPlainSize
// plaintext pieces, encodes each through the chunk codec, and uploads
// it as a standalone message attachment in the data channel, returning
// the resulting FileChunk list in order.
func uploadFileContent(ctx context.Context, appCtx *AppContext, localRoot string, entry *index.Entry, chunkPlainSize int, key []byte) ([]index.FileChunk, error) {
	f, err := os.Open(filepath.Join(localRoot, entry.RelativePath))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dataChannel := appCtx.Provider.DataChannel()
	adapter := appCtx.Provider.Adapter()

	var chunks []index.FileChunk
	buf := make([]byte, chunkPlainSize)
	for i := 0; ; i++ {
		n, readErr := f.Read(buf)
		if n > 0 {
			encoded, err := chunk.Encode(buf[:n], uint32(i), chunk.EncodeOptions{Compress: true, EncryptionKey: key})
			if err != nil {
				return nil, err
			}

			filename := fmt.Sprintf("%s.chunk%d", filepath.Base(entry.RelativePath), i)
			msg, err := adapter.SendFiles(ctx, dataChannel, "", []transport.Attachment{{Filename: filename, Data: encoded}})
			if err != nil {
				return nil, err
			}
			if len(msg.Attachments) == 0 {
				return nil, fmt.Errorf("cli: upload returned no attachment for chunk %d", i)
			}
			chunks = append(chunks, index.FileChunk{URL: msg.Attachments[0].URL, Size: uint32(len(encoded))})
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			return nil, readErr
		}
	}
	return chunks, nil
}
