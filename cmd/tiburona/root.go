package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/delfinacorr/hello-tiburona/internal/config"
	"github.com/delfinacorr/hello-tiburona/internal/greeter"
	"github.com/delfinacorr/hello-tiburona/internal/rpc"
)

// app carries global flag values and the resolved service.
type app struct {
	configPath string
	socket     string
	jsonOutput bool

	cfg config.Config
	svc greeter.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tiburona <command>",
		Short:         "CLI client for the tiburona greeting contract",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.socket != "" {
				cfg.Socket = a.socket
			}
			a.cfg = cfg
			if a.svc == nil {
				a.svc = rpc.NewClient(cfg.Socket)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config.toml (default $TIBURONA_CONFIG or ~/.local/state/tiburona/config.toml)")
	root.PersistentFlags().StringVar(&a.socket, "socket", "", "daemon socket path (overrides config)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "output as JSON")

	root.AddGroup(
		&cobra.Group{ID: "contract", Title: "Contract:"},
		&cobra.Group{ID: "admin", Title: "Administration:"},
		&cobra.Group{ID: "tools", Title: "Tools:"},
	)

	for _, c := range []*cobra.Command{
		a.helloCmd(), a.counterCmd(), a.userCounterCmd(), a.lastGreetingCmd(),
	} {
		c.GroupID = "contract"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		a.initCmd(), a.setLimitCmd(), a.resetCmd(), a.adminCmd(), a.transferAdminCmd(), a.restoreCmd(),
	} {
		c.GroupID = "admin"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		a.newIdentityCmd(), a.writeConfigCmd(), a.watchCmd(),
	} {
		c.GroupID = "tools"
		root.AddCommand(c)
	}
	return root
}

func (a *app) printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
