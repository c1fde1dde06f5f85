package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Aimarl0/keymap-extension/internal/host/terminal"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
	"github.com/Aimarl0/keymap-extension/internal/logging"
	"github.com/Aimarl0/keymap-extension/internal/remap"
)

func newTryCmd(a *app) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "try",
		Short: "Try the mappings interactively in the terminal",
		Long: `Try opens a terminal page for the given host with the remapping runtime
attached. Typed keys go to a text field; mapped chords are suppressed and
replayed, and every event is shown in a log. Click outside the field to
blur it. Changes saved by another
keymapper process are picked up live. Press Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("try needs an interactive terminal")
			}
			site, err := keymap.NormalizeSite(host)
			if err != nil {
				return err
			}

			st, err := a.openStores(true)
			if err != nil {
				return err
			}
			defer st.Close()

			screen, err := tcell.NewScreen()
			if err != nil {
				return err
			}
			if err := screen.Init(); err != nil {
				return err
			}
			defer screen.Fini()
			screen.EnableMouse()

			// The screen owns the terminal; logs would corrupt it.
			logger := logging.Discard()
			p := a.settings.Platform()
			doc := terminal.New(screen, site, p)
			rt := remap.New(doc, st.sync,
				remap.WithPlatform(p),
				remap.WithEventGap(a.settings.Runtime.EventGap.Duration),
				remap.WithDefaultStepDelay(a.settings.Runtime.DefaultStepDelay.Duration),
				remap.WithLogger(logger),
				remap.WithStoreOptions(remap.WithRetryInterval(a.settings.Runtime.RetryInterval.Duration)),
			)

			doc.Follow(rt)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// A failed load keeps remapping disabled and retries in the
			// background.
			_ = rt.Start(ctx)
			defer func() {
				rt.Close()
				rt.Wait()
			}()
			return doc.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Hostname (or URL) of the page to emulate")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}
