package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-plagio/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP plagiarism service",
	Long: `Run the HTTP service. POST two multipart files named file1 and file2 to
/detect_plagiarism to receive {"similarity_percentage", "is_plagiarized"}.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		det, cleanup, err := newDetector()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := det.ValidateDecoder(cmd.Context()); err != nil {
			return fmt.Errorf("decoder: %w", err)
		}

		s := appSettings
		addr := s.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		srv := server.New(det, server.Options{
			MaxUploadBytes: s.Server.MaxUploadBytes,
			RequestTimeout: s.Server.RequestTimeout.Std(),
			AllowedOrigin:  s.Server.AllowedOrigin,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
