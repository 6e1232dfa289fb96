package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shandysiswandi/steamguard/internal/app"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "steamguard",
		Short:         "Mobile authenticator companion service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd(), codeCmd(), signCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Run: func(*cobra.Command, []string) {
			application := app.New()    // Initialize the application
			wait := application.Start() // Start the application and wait for the termination signal
			<-wait                      // Wait for the application to receive a termination signal
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			application.Stop(ctx) // Stop the application gracefully
		},
	}
}

type toolFlags struct {
	maFile     string
	apiBaseURL string
	timeout    time.Duration
	offline    bool
}

func (f *toolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.maFile, "mafile", "", "path to the account file")
	cmd.Flags().StringVar(&f.apiBaseURL, "api-base-url", "", "remote web API base url")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "time alignment request timeout")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "skip time alignment")
	_ = cmd.MarkFlagRequired("mafile")
}

func (f *toolFlags) tool() *app.Tool {
	return app.NewTool(app.ToolConfig{APIBaseURL: f.apiBaseURL, Timeout: f.timeout, Offline: f.offline})
}

func codeCmd() *cobra.Command {
	var flags toolFlags

	cmd := &cobra.Command{
		Use:   "code",
		Short: "Print the current login code for an account file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := flags.tool().Code(cmd.Context(), flags.maFile)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (valid for %s)\n", out.AccountName, out.Code, out.ValidFor)

			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func signCmd() *cobra.Command {
	var (
		flags toolFlags
		tag   string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print a confirmation signature for a tag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := flags.tool().Sign(cmd.Context(), flags.maFile, tag)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "time=%d tag=%s k=%s\n", out.Time, out.Tag, out.Signature)

			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&tag, "tag", "conf", "confirmation tag (conf, details, allow, cancel)")

	return cmd
}
