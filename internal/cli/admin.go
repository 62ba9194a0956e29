package cli

import (
	"context"

	"github.com/spf13/cobra"
)

func newAdminCommand(flags *globalFlags) *cobra.Command {
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Moderation and maintenance operations",
	}
	cmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")

	// adminEnv restores the session quietly; the server does not require one.
	adminEnv := func(fn func(ctx context.Context, rt *clientEnv, args []string) error) func(*cobra.Command, []string) error {
		return withClientEnv(flags, func(ctx context.Context, rt *clientEnv, args []string) error {
			rt.view.assumeYes = assumeYes
			rt.view.setShowMessages(false)
			if err := rt.ctrl.Start(ctx); err != nil {
				return err
			}
			return fn(ctx, rt, args)
		})
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "users",
			Short: "List users and the auto-clear period",
			Args:  cobra.NoArgs,
			RunE: adminEnv(func(ctx context.Context, rt *clientEnv, _ []string) error {
				if rt.ctrl.IsAdmin() {
					// already rendered on session entry
					return nil
				}
				return rt.ctrl.LoadAdminPanel(ctx)
			}),
		},
		&cobra.Command{
			Use:   "mutes",
			Short: "List muted users",
			Args:  cobra.NoArgs,
			RunE: adminEnv(func(ctx context.Context, rt *clientEnv, _ []string) error {
				names, err := rt.api.MuteList(ctx)
				if err != nil {
					return err
				}
				rt.view.printf("%s\n", headerStyle.Render("禁言列表"))
				if len(names) == 0 {
					rt.view.printf("  %s\n", dimStyle.Render("(无)"))
				}
				for _, name := range names {
					rt.view.printf("  @%s\n", name)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "mute <username>",
			Short: "Mute a user",
			Args:  cobra.ExactArgs(1),
			RunE: adminEnv(func(ctx context.Context, rt *clientEnv, args []string) error {
				return reported(rt.ctrl.Mute(ctx, args[0]))
			}),
		},
		&cobra.Command{
			Use:   "remove <username>",
			Short: "Remove a user account",
			Args:  cobra.ExactArgs(1),
			RunE: adminEnv(func(ctx context.Context, rt *clientEnv, args []string) error {
				return reported(cancelled(rt, rt.ctrl.Remove(ctx, args[0])))
			}),
		},
		&cobra.Command{
			Use:   "clear-time [minutes]",
			Short: "Show or set the auto-clear period",
			Args:  cobra.MaximumNArgs(1),
			RunE: adminEnv(func(ctx context.Context, rt *clientEnv, args []string) error {
				if len(args) == 0 {
					period, err := rt.api.GetClearTime(ctx)
					if err != nil {
						return err
					}
					rt.view.RenderClearTime(period)
					return nil
				}
				return reported(rt.ctrl.SetClearTime(ctx, args[0]))
			}),
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every message",
			Args:  cobra.NoArgs,
			RunE: adminEnv(func(ctx context.Context, rt *clientEnv, _ []string) error {
				return reported(cancelled(rt, rt.ctrl.ClearMessages(ctx)))
			}),
		},
	)

	return cmd
}
