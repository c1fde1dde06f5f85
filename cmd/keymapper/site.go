package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aimarl0/keymap-extension/internal/editor"
)

func newSiteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Manage the sites remapping is active on",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <host-or-url>...",
		Short: "Add sites (subdomains are included)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				for _, raw := range args {
					if _, err := s.AddSite(cmd.Context(), raw); err != nil {
						return err
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <host>...",
		Short: "Remove sites",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				for _, site := range args {
					removed, err := s.RemoveSite(cmd.Context(), site)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("site %s is not configured", site)
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				for _, site := range s.Config().Sites {
					fmt.Fprintln(a.out, site)
				}
				return nil
			})
		},
	})
	return cmd
}
