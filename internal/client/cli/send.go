package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/secureclip/internal/client/session"
	"github.com/dmitrijs2005/secureclip/internal/relay"
)

// send [--file path] [--ttl duration] [--qr path]: encrypt a secret and
// park it on the relay.
func (a *App) sendCmd() *cobra.Command {
	var filePath string
	var qrPath string
	var noQR bool
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Encrypt a secret and get a one-time code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, meta, err := a.collectSecret(cmd, filePath)
			if err != nil {
				return err
			}

			res, err := session.Send(cmd.Context(), a.client, secret, meta, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Code: %s\n", res.Code)
			fmt.Fprintf(a.out, "Link: %s\n", res.Link)

			if !noQR {
				q, err := qrcode.New(res.Link, qrcode.Medium)
				if err == nil {
					fmt.Fprint(a.out, q.ToSmallString(false))
				}
			}
			if qrPath != "" {
				if err := qrcode.WriteFile(res.Link, qrcode.Medium, 256, qrPath); err != nil {
					return fmt.Errorf("write qr: %w", err)
				}
				fmt.Fprintf(a.out, "QR saved to %s\n", qrPath)
			}

			fmt.Fprintln(a.out, "The secret can be picked up exactly once before the code expires.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "send this file instead of prompting for text")
	cmd.Flags().DurationVarP(&ttl, "ttl", "t", 0, "requested lifetime, e.g. 60s (server clamps to its range)")
	cmd.Flags().StringVar(&qrPath, "qr", "", "also write the QR code as a PNG to this path")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "skip the terminal QR code")
	return cmd
}

func (a *App) collectSecret(cmd *cobra.Command, filePath string) ([]byte, relay.Metadata, error) {
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, relay.Metadata{}, fmt.Errorf("read %s: %w", filePath, err)
		}
		meta := relay.Metadata{
			Type: relay.TypeFile,
			Name: filepath.Base(filePath),
			Mime: mime.TypeByExtension(filepath.Ext(filePath)),
		}
		return data, meta, nil
	}

	secret, err := GetSecret(cmd.InOrStdin(), a.out)
	if err != nil {
		return nil, relay.Metadata{}, err
	}
	return trimSecretText(secret), relay.Metadata{Type: relay.TypeText}, nil
}
