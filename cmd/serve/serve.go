// Package serve provides the "sheetkit serve" command that runs the HTTP API.
package serve

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klytics/sheetkit/internal/app"
	"github.com/klytics/sheetkit/internal/server"
	"github.com/klytics/sheetkit/internal/store"
)

// NewCommand creates the "serve" command.
func NewCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Long: `Starts the HTTP API used by web front ends: natural-language commands,
uploads, templates, the Excel glossary, the learning loop and, when the
history store is enabled, saved projects and conversations.

Stops cleanly on Ctrl+C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.FromCommand(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.Config.Server.Addr
			}
			proc, err := a.Processor()
			if err != nil {
				return err
			}

			var st *store.Store
			if a.Config.Store.Enabled {
				if st, err = a.Store(); err != nil {
					return err
				}
			} else {
				a.Log.Warn("history store disabled; project and conversation routes will answer 503")
			}

			srv := server.New(server.Config{
				Addr:      addr,
				Processor: proc,
				Store:     st,
				Learning:  a.Learning(),
				Memory:    a.Memory(),
				Logger:    a.Log,
			})
			a.Log.Info("serving", zap.String("addr", addr), zap.String("mode", a.Config.Engine.Mode))
			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config server.addr)")
	return cmd
}
