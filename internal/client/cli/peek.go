package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/secureclip/internal/client/session"
	"github.com/dmitrijs2005/secureclip/internal/relay"
)

// peek <code|link>: check readiness without consuming the secret.
func (a *App) peekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peek <code|link>",
		Short: "Check whether a secret is waiting, without taking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := session.ParseCode(args[0])
			if err != nil {
				return err
			}

			resp, err := a.client.Peek(cmd.Context(), code)
			if err != nil {
				return err
			}

			switch resp.Meta.Type {
			case relay.TypeFile:
				fmt.Fprintf(a.out, "Ready: file %q", resp.Meta.Name)
				if resp.Meta.Mime != "" {
					fmt.Fprintf(a.out, " (%s)", resp.Meta.Mime)
				}
				fmt.Fprintln(a.out)
			default:
				fmt.Fprintln(a.out, "Ready: text secret")
			}
			return nil
		},
	}
}
