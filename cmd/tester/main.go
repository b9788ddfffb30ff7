package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"upload-service/internal/logging"
	"upload-service/internal/tester"
	"upload-service/internal/upload"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	var apiURL string

	root := &cobra.Command{
		Use:           "tester",
		Short:         "Interactive tester for the upload service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url", getenvDefault("UPLOAD_API_URL", tester.DefaultBaseURL), "base URL of the upload service")

	root.AddCommand(newServeCmd(&apiURL), newHealthCmd(&apiURL), newUploadCmd(&apiURL))
	return root
}

func newServeCmd(apiURL *string) *cobra.Command {
	var addr, logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tester web page",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{Level: logLevel, Prefix: "tester"})
			if err != nil {
				return err
			}
			ui, err := tester.NewUI(*apiURL, &http.Client{}, logger)
			if err != nil {
				return err
			}
			return serveUI(cmd.Context(), addr, ui.Handler(), logger, *apiURL)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", getenvDefault("TESTER_ADDR", ":8501"), "listen address of the tester page")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

func serveUI(ctx context.Context, addr string, h http.Handler, logger *log.Logger, apiURL string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tester listening", "addr", addr, "api", apiURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func newHealthCmd(apiURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Call GET /health and print the response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := tester.NewClient(*apiURL).Health(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
}

func newUploadCmd(apiURL *string) *cobra.Command {
	var kindFlag, contentType string

	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a file to /upload/image or /upload/file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := upload.ParseKind(kindFlag)
			if err != nil {
				return err
			}
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			name := filepath.Base(path)
			if contentType == "" {
				contentType = mime.TypeByExtension(filepath.Ext(name))
			}

			out := cmd.OutOrStdout()
			if kind == upload.KindImage {
				if p, err := tester.Preview(data); err == nil {
					fmt.Fprintln(out, "preview:", p.Caption(name))
				} else {
					fmt.Fprintln(out, "preview:", tester.ErrNoPreview)
				}
			}

			resp, err := tester.NewClient(*apiURL).Upload(cmd.Context(), kind, name, contentType, bytes.NewReader(data))
			if err != nil {
				return err
			}
			return printResponse(out, resp)
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", string(upload.KindFile), "image or file")
	cmd.Flags().StringVar(&contentType, "content-type", "", "part content type (guessed from the extension when empty)")
	return cmd
}

// printResponse writes the status line and body; non-2xx becomes an error
// so scripts can rely on the exit code.
func printResponse(w io.Writer, resp *tester.Response) error {
	fmt.Fprintf(w, "HTTP %d\n%s\n", resp.StatusCode, tester.PrettyJSON(resp.Body))
	if !resp.OK() {
		if d := tester.Detail(resp.Body); d != "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, d)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return nil
}
