package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/delfinacorr/hello-tiburona/internal/config"
	"github.com/delfinacorr/hello-tiburona/internal/identity"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <admin>",
		Short: "Initialize the contract with an admin identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin := identity.Identity(args[0])
			if err := a.svc.Initialize(cmd.Context(), admin); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"admin": admin}, "initialized; admin is "+admin.String())
		},
	}
}

func (a *app) setLimitCmd() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "set-limit <limit>",
		Short: "Set the maximum greeting length (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", args[0], err)
			}
			if err := a.svc.SetLimit(cmd.Context(), identity.Identity(caller), uint32(n)); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"limit": n}, fmt.Sprintf("character limit set to %d", n))
		},
	}
	cmd.Flags().StringVar(&caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func (a *app) helloCmd() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "hello <name>",
		Short: "Greet the contract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := a.svc.Hello(cmd.Context(), identity.Identity(caller), args[0])
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"result": tok}, tok)
		},
	}
	cmd.Flags().StringVar(&caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func (a *app) counterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counter",
		Short: "Show the global greeting counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.svc.Counter(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"counter": n}, strconv.FormatUint(uint64(n), 10))
		},
	}
}

func (a *app) userCounterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "user-counter <identity>",
		Short: "Show how many times an identity has greeted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := identity.Identity(args[0])
			n, err := a.svc.UserCounter(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"identity": id, "counter": n}, strconv.FormatUint(uint64(n), 10))
		},
	}
}

func (a *app) lastGreetingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-greeting <identity>",
		Short: "Show the last greeting an identity submitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := identity.Identity(args[0])
			text, ok, err := a.svc.LastGreeting(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return a.emit(cmd, map[string]any{"identity": id, "found": false}, id.String()+" has not greeted yet")
			}
			return a.emit(cmd, map[string]any{"identity": id, "found": true, "greeting": text}, text)
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the global greeting counter (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.ResetCounter(cmd.Context(), identity.Identity(caller)); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"counter": 0}, "counter reset")
		},
	}
	cmd.Flags().StringVar(&caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func (a *app) adminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "admin",
		Short: "Show the current admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.svc.Admin(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"admin": id}, id.String())
		},
	}
}

func (a *app) transferAdminCmd() *cobra.Command {
	var caller string
	cmd := &cobra.Command{
		Use:   "transfer-admin <new-admin>",
		Short: "Hand the admin role to another identity (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next := identity.Identity(args[0])
			if err := a.svc.TransferAdmin(cmd.Context(), identity.Identity(caller), next); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"admin": next}, "admin is now "+next.String())
		},
	}
	cmd.Flags().StringVar(&caller, "as", "", "caller identity (required)")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [identity]",
		Short: "Bring archived state back, optionally with an identity's last greeting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var id identity.Identity
			if len(args) == 1 {
				id = identity.Identity(args[0])
			}
			restored, err := a.svc.Restore(cmd.Context(), id)
			if err != nil {
				return err
			}
			text := "nothing archived"
			if restored {
				text = "archived state restored"
			}
			return a.emit(cmd, map[string]any{"restored": restored}, text)
		},
	}
}

func (a *app) newIdentityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new-identity",
		Short: "Generate a random identity handle",
		Args:  cobra.NoArgs,
		// Works without a daemon.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := identity.Generate()
			if err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"identity": id}, id.String())
		},
	}
}

func (a *app) writeConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "write-config",
		Short: "Write the default configuration as TOML",
		Args:  cobra.NoArgs,
		// Works without a daemon or an existing config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"path": path}, "wrote "+path)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
