package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/internal/server"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

var portFlag string

// storefront serve: start the HTTP server.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		deps, closeDeps, err := kernel.Boot(ctx)
		defer closeDeps()
		if err != nil {
			return err
		}

		port := portFlag
		if port == "" {
			port = config.AppPort()
		}
		return server.Start(ctx, ":"+port, kernel.New(deps).Handler())
	},
}

// storefront routes: print all registered routes.
var routeListCmd = &cobra.Command{
	Use:     "routes",
	Aliases: []string{"route:list"},
	Short:   "List all registered routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Routes do not depend on live infrastructure.
		k := kernel.New(kernel.Deps{
			Store:  repositories.NewMemoryStore(),
			Ledger: cache.NewMemoryLedger(0),
		})
		return printRoutes(cmd.OutOrStdout(), k.Routes())
	},
}

func printRoutes(out io.Writer, routes []router.Route) error {
	if len(routes) == 0 {
		fmt.Fprintln(out, "No routes registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}

func init() {
	serveCmd.Flags().StringVarP(&portFlag, "port", "p", "", "Port to listen on (default APP_PORT)")
}
