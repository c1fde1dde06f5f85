package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aimarl0/keymap-extension/internal/editor"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
)

var errNoBackupDB = errors.New("backup history needs the sqlite backup store (drop --memory)")

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage backup snapshots",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "snapshot",
		Short: "Write a backup snapshot of the current config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				return s.Backup(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backup snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStores(false)
			if err != nil {
				return err
			}
			defer st.Close()
			if st.sqlite == nil {
				return errNoBackupDB
			}

			snaps, err := st.sqlite.List(cmd.Context(), keymap.BackupKey)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTAKEN\tSIZE\tSESSION")
			for _, s := range snaps {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", s.ID, s.TakenAt.Local().Format(time.DateTime), s.Size, s.SessionID)
			}
			return tw.Flush()
		},
	})

	var restoreID int64
	restore := &cobra.Command{
		Use:   "restore",
		Short: "Restore the newest snapshot, or the one given by --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStores(false)
			if err != nil {
				return err
			}
			defer st.Close()

			if restoreID == 0 {
				return a.withSessionOn(cmd.Context(), st, func(s *editor.Session) error {
					return s.RestoreFromBackup(cmd.Context())
				})
			}
			if st.sqlite == nil {
				return errNoBackupDB
			}
			data, err := st.sqlite.Get(cmd.Context(), restoreID)
			if err != nil {
				return keymap.Wrap(keymap.KindRestore, err, "read snapshot "+strconv.FormatInt(restoreID, 10))
			}
			return a.withSessionOn(cmd.Context(), st, func(s *editor.Session) error {
				return s.Import(cmd.Context(), data, editor.FormatJSON)
			})
		},
	}
	restore.Flags().Int64Var(&restoreID, "id", 0, "Snapshot id (see 'backup list')")
	cmd.AddCommand(restore)

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 1 {
				return fmt.Errorf("--keep must be at least 1")
			}
			st, err := a.openStores(false)
			if err != nil {
				return err
			}
			defer st.Close()
			if st.sqlite == nil {
				return errNoBackupDB
			}
			n, err := st.sqlite.Prune(cmd.Context(), keymap.BackupKey, keep)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "removed %d snapshot(s)\n", n)
			return nil
		},
	}
	prune.Flags().IntVar(&keep, "keep", 10, "Number of snapshots to keep")
	cmd.AddCommand(prune)
	return cmd
}
