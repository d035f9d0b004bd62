package main

import (
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by the network commands.
type rootOptions struct {
	Server  string
	Timeout time.Duration
}

func (o *rootOptions) httpClient() *http.Client {
	return &http.Client{Timeout: o.Timeout}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "promoctl",
		Short:         "Operate the cart promo service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", "http://localhost:8080", "service base URL")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(newTransformCommand())
	cmd.AddCommand(newWebhookCommand(opts))
	cmd.AddCommand(newSaveCommand(opts))

	return cmd
}
