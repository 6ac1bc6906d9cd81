package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/oaiiae/contactbook/cli/api"
	"github.com/oaiiae/contactbook/cli/datastore"
	clilog "github.com/oaiiae/contactbook/cli/logger"
	"github.com/oaiiae/contactbook/handlers"
	"github.com/oaiiae/contactbook/router"
)

// Set with -ldflags "-X main.version=... -X main.revision=... -X main.created=...".
var (
	title    = "Contact Book API"
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass `--port` or set the `SERVICE_PORT` env var.
type Options struct {
	api.ServerOptions
	api.RouterOptions
	clilog.Options
	datastore.StoreOptions
}

func main() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env file", "err", err)
	}

	cli := humacli.New(func(hooks humacli.Hooks, options *Options) {
		logger := clilog.New(&options.Options)

		srv := api.NewServer(&options.ServerOptions, nil, logger)
		hooks.OnStart(func() {
			store, err := datastore.Open(context.Background(), &options.StoreOptions, options.DatastoreMigrate, logger)
			if err != nil {
				logger.Error("failed to open datastore", "err", err)
				os.Exit(1)
			}
			defer store.Close()

			srv.Handler = api.NewRouter(&options.RouterOptions, &api.BuildInfo{
				Title:    title,
				Version:  version,
				Revision: revision,
				Created:  created,
			}, store, logger)

			logger.Info("server listening", "addr", srv.Addr)
			err = srv.ListenAndServe()
			if err != http.ErrServerClosed {
				logger.Error("failed to listen and serve", "err", err)
			} else {
				logger.Info("server closed")
			}
		})
		hooks.OnStop(func() { api.Shutdown(srv, &options.ServerOptions, logger) })
	})

	cli.Root().Use = "contactbook"
	cli.Root().Version = version

	cli.Root().AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create the contacts table of the datastore",
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			logger := clilog.New(&options.Options)
			store, err := datastore.Open(cmd.Context(), &options.StoreOptions, true, logger)
			if err != nil {
				logger.Error("failed to migrate datastore", "err", err)
				os.Exit(1)
			}
			store.Close()
		}),
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI specification",
		Run: humacli.WithOptions(func(cmd *cobra.Command, _ []string, options *Options) {
			var oapi *huma.OpenAPI
			noop := func(http.ResponseWriter, *http.Request) {}
			router.New(title, version, noop, noop,
				router.OptGroup(options.EndpointsPrefix,
					router.OptGroup("/contacts", router.OptAutoRegister(&handlers.Contacts{})),
				),
				func(api huma.API) { oapi = api.OpenAPI() },
			)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			err := enc.Encode(oapi)
			if err != nil {
				slog.Error("failed to encode OpenAPI specification", "err", err)
				os.Exit(1)
			}
		}),
	})

	cli.Run()
}
