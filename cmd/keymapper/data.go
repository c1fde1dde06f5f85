package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aimarl0/keymap-extension/internal/editor"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
)

func newValidateCmd(a *app) *cobra.Command {
	var printSchema bool
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a config file, or the stored config",
		Long: `Validate checks a config against the schema. With a file argument the
file is checked (YAML for .yaml/.yml, JSON otherwise). Without one the
stored config is checked as stored, before any load-time repair.
--schema prints the JSON schema instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if printSchema {
				_, err := io.WriteString(a.out, keymap.SchemaSource())
				return err
			}
			var (
				c   *keymap.Config
				err error
			)
			if len(args) == 1 {
				c, err = readConfigFile(args[0], "")
			} else {
				c, err = a.readStored(cmd)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", keymap.KindOf(err), err)
			}
			fmt.Fprintf(a.out, "valid: %d site(s), %d mapping(s)\n", len(c.Sites), len(c.Mappings))
			return nil
		},
	}
	cmd.Flags().BoolVar(&printSchema, "schema", false, "Print the config JSON schema and exit")
	return cmd
}

func (a *app) readStored(cmd *cobra.Command) (*keymap.Config, error) {
	st, err := a.openStores(false)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	raw, ok, err := st.sync.Get(cmd.Context(), keymap.StorageKey)
	if err != nil {
		return nil, keymap.Wrap(keymap.KindStorage, err, "read stored config")
	}
	if !ok {
		return keymap.New(), nil
	}
	return keymap.Parse(raw)
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Load, repair and save the stored config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				return s.Save(cmd.Context())
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the config as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := editor.ParseFormat(format)
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				data, err := s.Export(f)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = a.out.Write(data)
					return err
				}
				return os.WriteFile(output, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "Output format (json/yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the config with the contents of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fileFormat(args[0], format)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return a.withSession(cmd.Context(), func(s *editor.Session) error {
				return s.Import(cmd.Context(), data, f)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (json/yaml, default from extension)")
	return cmd
}

// fileFormat returns the explicit format, or guesses it from the file
// extension.
func fileFormat(path, explicit string) (editor.Format, error) {
	if explicit != "" {
		return editor.ParseFormat(explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return editor.FormatYAML, nil
	default:
		return editor.FormatJSON, nil
	}
}

func readConfigFile(path, explicit string) (*keymap.Config, error) {
	f, err := fileFormat(path, explicit)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if f == editor.FormatYAML {
		return keymap.DecodeYAML(data)
	}
	return keymap.Parse(data)
}
