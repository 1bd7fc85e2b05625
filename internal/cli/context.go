// Package cli provides the command-line interface for the payout harvester.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/law-makers/payout-harvest/internal/app"
)

// ctxKey is used for storing the application in command contexts
type ctxKey string

const appKey ctxKey = "app"

// activeApp is the application created for the running command. Execute
// closes it after the command returns, whether or not it failed.
var activeApp *app.Application

// SetApp stores the Application in the command's context
func SetApp(cmd *cobra.Command, a *app.Application) {
	activeApp = a
	if cmd == nil {
		return
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey, a))
}

// GetApp retrieves the Application for cmd
func GetApp(cmd *cobra.Command) *app.Application {
	if cmd != nil && cmd.Context() != nil {
		if a, ok := cmd.Context().Value(appKey).(*app.Application); ok && a != nil {
			return a
		}
	}
	return activeApp
}
