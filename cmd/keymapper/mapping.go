package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Aimarl0/keymap-extension/internal/editor"
	"github.com/Aimarl0/keymap-extension/internal/input/key"
)

func newMapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Manage single-key mappings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <source> <target>",
		Short: "Replace the source chord with the target chord",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := key.ParseChord(args[0])
			if err != nil {
				return err
			}
			target, err := key.ParseChord(args[1])
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				_, err := s.AddMapping(cmd.Context(), source, target)
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <identity>...",
		Short: "Remove mappings by source identity (see 'map list')",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				for _, id := range args {
					removed, err := s.RemoveMapping(cmd.Context(), id)
					if err != nil {
						return err
					}
					if !removed {
						return fmt.Errorf("no mapping for %s", id)
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				c := s.Config()
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				for _, id := range c.Identities() {
					m, _ := c.Lookup(id)
					fmt.Fprintf(tw, "%s\t→\t%s\n", id, m.Describe(s.Platform()))
				}
				return tw.Flush()
			})
		},
	})
	return cmd
}

func newSeqCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seq",
		Short: "Manage sequence mappings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <source> <step[@delay-ms]>...",
		Short: "Replace the source chord with a timed sequence of chords",
		Long: `Replace the source chord with a sequence of chords. Each step waits
its delay in milliseconds before the next step starts; the default is 50.

Example:
  keymapper seq add Alt+s g i@0 Enter@200`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := key.ParseChord(args[0])
			if err != nil {
				return err
			}
			steps := make([]key.Record, 0, len(args)-1)
			for _, arg := range args[1:] {
				step, err := parseStep(arg)
				if err != nil {
					return err
				}
				steps = append(steps, step)
			}
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				for _, step := range steps {
					if err := s.AddSequenceStep(step); err != nil {
						return err
					}
				}
				_, err := s.AddSequenceMapping(cmd.Context(), source)
				return err
			})
		},
	})
	return cmd
}

// parseStep parses "chord" or "chord@delay".
func parseStep(arg string) (key.Record, error) {
	if i := strings.LastIndex(arg, "@"); i > 0 {
		if ms, err := strconv.Atoi(arg[i+1:]); err == nil {
			rec, err := key.ParseChord(arg[:i])
			if err != nil {
				return key.Record{}, err
			}
			return rec.WithDelay(ms), nil
		}
	}
	return key.ParseChord(arg)
}

func newIdentifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <chord>...",
		Short: "Print the identity a chord is stored under",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.settings.Platform()
			for _, arg := range args {
				rec, err := key.ParseChord(arg)
				if err != nil {
					return err
				}
				id := key.Identify(p, rec)
				if key.IsReserved(id) {
					fmt.Fprintf(a.out, "%s\t(reserved by the browser)\n", id)
					continue
				}
				fmt.Fprintln(a.out, id)
			}
			return nil
		},
	}
}
