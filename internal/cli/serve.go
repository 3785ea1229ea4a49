package cli

import (
	"fmt"

	"github.com/Abraxas-365/doccraft/logx"
	"github.com/Abraxas-365/doccraft/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the loader over HTTP",
	Long:  `Starts an HTTP server with POST /v1/documents, GET /healthz and GET /docs.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var (
	servePort       int
	serveAllowLocal bool
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (default from server.port)")
	serveCmd.Flags().BoolVar(&serveAllowLocal, "allow-local", false, "accept local file paths as sources")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	overrides := map[string]any{}
	if servePort > 0 {
		override(overrides, "server", "port", servePort)
	}

	a, err := buildApp(cmd, overrides)
	if err != nil {
		return err
	}

	srv := server.New(a.Loader,
		server.WithOutput(a.Output),
		server.WithLocalPaths(serveAllowLocal),
		server.WithLogger(logx.GetLogger().With("server")),
	)
	return srv.Listen(cmd.Context(), fmt.Sprintf(":%d", a.Config.Server.Port))
}
