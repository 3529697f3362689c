package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveytab/internal/analysis"
	cfgpkg "github.com/KaramelBytes/surveytab/internal/config"
	"github.com/KaramelBytes/surveytab/internal/server"
)

var (
	srvAddr        string
	srvMaxUploadMB int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Start a stateless HTTP API. Every request uploads the survey file as the
multipart field "file":

  GET  /v1/health
  POST /v1/columns   (file, search)
  POST /v1/analyze   (file, columns..., chart, order, transpose, separator)
  POST /v1/export    (file, two columns) -> tabla_contingencia.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := cfg
		if g == nil {
			g = &cfgpkg.Global{}
		}
		scfg, err := serverConfig(g)
		if err != nil {
			return err
		}
		addr := g.ListenAddr
		if srvAddr != "" {
			addr = srvAddr
		}
		if addr == "" {
			addr = "127.0.0.1:8080"
		}
		if srvMaxUploadMB > 0 {
			scfg.MaxUploadMB = srvMaxUploadMB
		}

		if !debug {
			gin.SetMode(gin.ReleaseMode)
		}
		router := server.NewRouter(server.NewHandlers(scfg, logger))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Listening on http://%s (Ctrl+C to stop)\n", addr)
		return server.Run(ctx, addr, router, logger)
	},
}

// serverConfig maps the global configuration onto per-request defaults.
func serverConfig(g *cfgpkg.Global) (server.Config, error) {
	order, err := analysis.ParseFrequencyOrder(g.FrequencyOrder)
	if err != nil {
		return server.Config{}, err
	}
	opt := analysis.DefaultOptions()
	opt.Separator = g.SeparatorRune()
	opt.Locale = g.CollationLocale
	return server.Config{
		Version:     Version,
		MaxUploadMB: g.MaxUploadMB,
		SheetIndex:  g.DefaultSheetIndex,
		Order:       order,
		Transpose:   g.Transpose,
		Options:     opt,
	}, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config listen_addr)")
	serveCmd.Flags().IntVar(&srvMaxUploadMB, "max-upload-mb", 0, "reject uploads larger than this many MB (default from config)")
}
