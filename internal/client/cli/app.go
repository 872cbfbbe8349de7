// Package cli implements the SecureClip command-line client: encrypt and
// drop off a secret, or pick one up with its 6-digit code.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/secureclip/internal/client/config"
	"github.com/dmitrijs2005/secureclip/internal/relay"
)

type App struct {
	config *config.Config
	client *relay.Client
	out    io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	return &App{config: c, out: os.Stdout}, nil
}

func (a *App) Run(ctx context.Context) error {
	return a.rootCmd().ExecuteContext(ctx)
}

func (a *App) rootCmd() *cobra.Command {
	var serverAddr string
	var configPath string

	root := &cobra.Command{
		Use:   "secureclip",
		Short: "Share a secret once via a 6-digit code",
		Long: "SecureClip encrypts a secret on your machine and parks it on a relay\n" +
			"for a couple of minutes. Whoever enters the right code first gets it;\n" +
			"then it is gone. The relay never sees plaintext or keys.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if serverAddr != "" {
				a.config.ServerEndpointAddr = serverAddr
			}
			a.client = relay.NewClient(a.config.ServerEndpointAddr, a.config.RequestTimeout).
				WithRetryPolicy(a.config.RetryAttempts, a.config.RetryDelay)
		},
	}

	root.PersistentFlags().StringVarP(&serverAddr, "server", "a", "", "relay base URL (overrides config)")
	// Consumed by config loading before the command runs; declared here so
	// cobra accepts it.
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file")

	root.AddCommand(a.sendCmd(), a.receiveCmd(), a.peekCmd())
	return root
}
