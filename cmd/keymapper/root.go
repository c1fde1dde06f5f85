package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Aimarl0/keymap-extension/internal/config"
)

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "keymapper",
		Short: "Edit per-site keyboard remappings",
		Long: `keymapper maintains the key remapping config shared with the browser
extension: the sites remapping is active on, and the chord or sequence
each source chord is replaced with.

Chords are written as modifier names joined with '+', e.g. "Ctrl+Shift+k",
"Alt+ArrowLeft", "F2". Sequence steps may carry a delay in milliseconds
after '@', e.g. "g@100".

Examples:
  keymapper site add example.com
  keymapper map add Ctrl+k ArrowUp
  keymapper seq add Alt+s g i@0
  keymapper export --format yaml
  keymapper try --host example.com`,
		Version:           version + " (" + commit + ")",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&a.settingsPath, "settings", config.DefaultPath(), "Path to the settings file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.memory, "memory", false, "Use throwaway in-memory stores")

	root.AddCommand(
		newSiteCmd(a),
		newMapCmd(a),
		newSeqCmd(a),
		newIdentifyCmd(a),
		newValidateCmd(a),
		newSaveCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newBackupCmd(a),
		newTryCmd(a),
	)
	return root
}
