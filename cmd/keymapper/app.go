package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aimarl0/keymap-extension/internal/config"
	"github.com/Aimarl0/keymap-extension/internal/config/notify"
	"github.com/Aimarl0/keymap-extension/internal/editor"
	"github.com/Aimarl0/keymap-extension/internal/logging"
	"github.com/Aimarl0/keymap-extension/internal/storage"
	"github.com/Aimarl0/keymap-extension/internal/storage/jsonfile"
	"github.com/Aimarl0/keymap-extension/internal/storage/sqlite"
)

// app is the state shared by every command of one invocation.
type app struct {
	settingsPath string
	logLevel     string
	memory       bool

	out    io.Writer
	errOut io.Writer

	settings *config.Settings
	logger   *slog.Logger
	messages *editor.Messages
}

// stores are the opened sync and backup stores.
type stores struct {
	sync   storage.SyncStore
	backup storage.BackupStore
	// sqlite is nil when the stores live in memory.
	sqlite  *sqlite.BackupStore
	closers []io.Closer
}

func (s *stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i].Close())
	}
	return errors.Join(errs...)
}

// setup loads the settings and builds the logger. It runs before every
// command.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	s, err := config.Load(a.settingsPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		s.Log.Level = a.logLevel
		if err := s.Validate(); err != nil {
			return err
		}
	}
	a.settings = s

	lc := s.Logging()
	lc.Output = a.errOut
	a.logger = logging.New(lc)
	logging.SetDefault(a.logger)
	a.messages = editor.NewMessages(editor.DefaultMaxMessages)
	return nil
}

func (a *app) openStores(watch bool) (*stores, error) {
	if a.memory {
		return &stores{
			sync:   storage.NewMemory(notify.NamespaceSync),
			backup: storage.NewMemory(notify.NamespaceLocal),
		}, nil
	}

	st := &stores{}
	js, err := jsonfile.Open(a.settings.Storage.SyncPath, watch,
		jsonfile.WithLogger(logging.WithComponent(a.logger, "store")))
	if err != nil {
		return nil, err
	}
	st.sync = js
	st.closers = append(st.closers, js)

	db, err := sqlite.Open(a.settings.Storage.BackupPath)
	if err != nil {
		st.Close()
		return nil, err
	}
	st.backup = db
	st.sqlite = db
	st.closers = append(st.closers, db)
	return st, nil
}

// withSession opens an editor session, runs fn and saves whatever fn
// left unsaved. Status messages are printed afterwards.
func (a *app) withSession(ctx context.Context, fn func(s *editor.Session) error) error {
	st, err := a.openStores(false)
	if err != nil {
		return err
	}
	defer st.Close()
	return a.withSessionOn(ctx, st, fn)
}

func (a *app) withSessionOn(ctx context.Context, st *stores, fn func(s *editor.Session) error) error {
	defer a.flushMessages()

	s, err := editor.Open(ctx, st.sync, st.backup,
		editor.WithAutosaveDelay(a.settings.Editor.AutosaveDelay.Duration),
		editor.WithBackupInterval(a.settings.Editor.BackupInterval.Duration),
		editor.WithPlatform(a.settings.Platform()),
		editor.WithLogger(a.logger),
		editor.WithReporter(a.messages),
	)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := fn(s); err != nil {
		return err
	}
	if s.Modified() {
		return s.Save(ctx)
	}
	return nil
}

func (a *app) flushMessages() {
	for _, m := range a.messages.Drain() {
		fmt.Fprintln(a.errOut, m.String())
	}
}
