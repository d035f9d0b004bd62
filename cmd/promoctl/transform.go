package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"cartpromo/internal/cartfunc"
	"cartpromo/internal/carttransform"
)

type transformOptions struct {
	Gift      string
	File      string
	Attribute string
}

func newTransformCommand() *cobra.Command {
	opts := &transformOptions{}

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Run the cart transform locally on a host input document",
		Long: `Run the cart transform locally on a host input document.

The document is read from --file, or stdin when --file is empty or "-".

Example:
  promoctl transform --gift gid://shopify/ProductVariant/999 --file cart.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Gift, "gift", "", "gift merchandise id (required)")
	cmd.Flags().StringVar(&opts.File, "file", "", "input document path")
	cmd.Flags().StringVar(&opts.Attribute, "attribute", carttransform.DefaultWidgetAttribute, "widget attribute key")
	_ = cmd.MarkFlagRequired("gift")

	return cmd
}

func runTransform(cmd *cobra.Command, opts *transformOptions) error {
	engine, err := carttransform.New(carttransform.Config{
		GiftMerchandiseID: opts.Gift,
		WidgetAttribute:   opts.Attribute,
	})
	if err != nil {
		return err
	}

	raw, err := readInput(cmd.InOrStdin(), opts.File)
	if err != nil {
		return err
	}

	cart, err := cartfunc.NewCodec(opts.Attribute).DecodeInput(raw)
	if err != nil {
		return fmt.Errorf("decoding input: %w", err)
	}

	out, err := cartfunc.EncodeOutput(engine.Transform(cart))
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
