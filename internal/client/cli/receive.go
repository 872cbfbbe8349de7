package cli

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/secureclip/internal/client/session"
	"github.com/dmitrijs2005/secureclip/internal/filex"
	"github.com/dmitrijs2005/secureclip/internal/relay"
)

// receive <code|link> [--out dir] [--yes]: fetch, decrypt and hand over a
// secret. Text goes to the clipboard, files are saved under their original
// name.
func (a *App) receiveCmd() *cobra.Command {
	var outDir string
	var yes bool
	var printSecret bool

	cmd := &cobra.Command{
		Use:   "receive <code|link>",
		Short: "Pick up a secret with its code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := session.New(a.client)

			if err := s.Acquire(args[0]); err != nil {
				return err
			}
			if err := s.Fetch(cmd.Context()); err != nil {
				return err
			}

			meta := s.Meta()
			switch meta.Type {
			case relay.TypeFile:
				fmt.Fprintf(a.out, "File %q is ready.\n", meta.Name)
			default:
				fmt.Fprintln(a.out, "A text secret is ready.")
			}

			// The secret is already consumed from the relay at this point;
			// the confirmation only gates the local side effect.
			if !yes {
				if err := WaitForEnter(cmd.InOrStdin(), a.out, "Press Enter to deliver it: "); err != nil {
					return err
				}
			}

			return s.Deliver(func(payload []byte, meta relay.Metadata) error {
				return a.deliver(payload, meta, outDir, printSecret)
			})
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for a received file (default current directory)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "deliver immediately without confirmation")
	cmd.Flags().BoolVar(&printSecret, "print", false, "print a text secret instead of copying it to the clipboard")
	return cmd
}

func (a *App) deliver(payload []byte, meta relay.Metadata, outDir string, printSecret bool) error {
	switch meta.Type {
	case relay.TypeFile:
		dir, err := filex.EnsureDir(outDir)
		if err != nil {
			return err
		}
		path, err := filex.SaveSecretFile(dir, meta.Name, payload)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved to %s\n", path)
		return nil
	default:
		if !printSecret {
			if err := clipboard.WriteAll(string(payload)); err == nil {
				fmt.Fprintln(a.out, "Copied to clipboard.")
				return nil
			}
			fmt.Fprintln(a.out, "Clipboard unavailable, printing instead:")
		}
		fmt.Fprintf(a.out, "%s\n", payload)
		return nil
	}
}
