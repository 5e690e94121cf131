package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/trialgrid/preview"
)

func (a *app) newServeCommand() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an interactive preview of the figure.",
		Long: `Serve starts a local web server showing the figure and the ` +
			`phase summary. The trial file is re-read on every request, so ` +
			`the preview follows changes to the data.`,
		Args: cobra.NoArgs,
		RunE: a.serve,
	}

	addInputFlags(serveCmd)

	serveCmd.Flags().Int("port", 0, "port to listen on (default is any free port)")
	serveCmd.Flags().Bool("open", false, "open the preview in a browser")

	return serveCmd
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	p, err := a.pipeline(nil)
	if err != nil {
		return err
	}

	server := preview.NewServer(p).
		WithLogger(a.logger).
		WithPortNumber(a.cfg.Preview.Port).
		WithBrowser(a.cfg.Preview.Open)

	url, err := server.StartServer()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Preview at %s\n", url)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		5*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
