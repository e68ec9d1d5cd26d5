package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/gems"
	"github.com/adamwoolhether/gems/client"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <gem>",
		Short: "Show the latest version summary of a gem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.gems.Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(g)
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search gems by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := a.gems.Search(cmd.Context(), args[0], page)
			if err != nil {
				return err
			}
			return a.print(gs)
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "result page, starting at 1")

	return cmd
}

func (a *app) versionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <gem>",
		Short: "List the released versions of a gem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vs, err := a.gems.Versions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(vs)
		},
	}
}

func (a *app) depsCmd() *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:   "deps <gem>...",
		Short: "Show runtime dependencies of every version of the given gems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reverse {
				if len(args) != 1 {
					return fmt.Errorf("--reverse takes exactly one gem, got %d", len(args))
				}
				names, err := a.gems.ReverseDependencies(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(names)
			}

			deps, err := a.gems.Dependencies(cmd.Context(), args...)
			if err != nil {
				return err
			}
			return a.print(deps)
		},
	}
	cmd.Flags().BoolVar(&reverse, "reverse", false, "list gems that depend on the given gem instead")

	return cmd
}

func (a *app) pushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push <file.gem>",
		Short: "Publish a built gem archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			archive, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading gem: %w", err)
			}

			msg, err := a.gems.Push(cmd.Context(), archive)
			if err != nil {
				return err
			}
			return a.print(msg)
		},
	}
}

func (a *app) yankCmd() *cobra.Command {
	var (
		opts gems.YankOptions
		undo bool
	)

	cmd := &cobra.Command{
		Use:   "yank <gem> <version>",
		Short: "Remove a version from the index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := a.gems.Yank
			if undo {
				op = a.gems.Unyank
			}

			msg, err := op(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return err
			}
			return a.print(msg)
		},
	}
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "only the build for this platform")
	cmd.Flags().BoolVar(&undo, "undo", false, "restore a yanked version")

	return cmd
}

func (a *app) ownerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage who may push a gem",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list <gem>",
			Short: "List owners",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				owners, err := a.gems.Owners(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.print(owners)
			},
		},
		&cobra.Command{
			Use:   "add <gem> <email>",
			Short: "Add an owner",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				msg, err := a.gems.AddOwner(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.print(msg)
			},
		},
		&cobra.Command{
			Use:   "remove <gem> <email>",
			Short: "Remove an owner",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				msg, err := a.gems.RemoveOwner(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.print(msg)
			},
		},
	)

	return cmd
}

func (a *app) webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage push notifications",
		Long:  `Use "*" as the gem name to target every gem the account owns.`,
	}

	write := func(use, short string, op func(ctx context.Context, name, url string) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <gem> <url>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				msg, err := op(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return a.print(msg)
			},
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered hooks",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				hooks, err := a.gems.WebHooks(cmd.Context())
				if err != nil {
					return err
				}
				return a.print(hooks)
			},
		},
		// a.gems is built in PersistentPreRunE, so resolve the method at run time.
		write("add", "Register a hook", func(ctx context.Context, name, url string) (string, error) {
			return a.gems.AddWebHook(ctx, name, url)
		}),
		write("remove", "Remove a hook", func(ctx context.Context, name, url string) (string, error) {
			return a.gems.RemoveWebHook(ctx, name, url)
		}),
		write("fire", "Send a test notification", func(ctx context.Context, name, url string) (string, error) {
			return a.gems.FireWebHook(ctx, name, url)
		}),
	)

	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	var (
		output   string
		progress bool
		verify   bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <gem> <version>",
		Short: "Download a gem archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []client.DownloadOption
			if progress {
				opts = append(opts, client.WithProgress(time.Second))
			}

			fetch := a.gems.Fetch
			if verify {
				fetch = a.gems.FetchVerified
			}

			path, err := fetch(cmd.Context(), args[0], args[1], output, opts...)
			if err != nil {
				return err
			}
			return a.print(path)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", ".", "directory or file to write the archive to")
	cmd.Flags().BoolVar(&progress, "progress", false, "log download progress")
	cmd.Flags().BoolVar(&verify, "verify", true, "check the archive against the registry's SHA-256")

	return cmd
}
