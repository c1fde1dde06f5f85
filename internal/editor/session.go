package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"

	"github.com/Aimarl0/keymap-extension/internal/input/key"
	"github.com/Aimarl0/keymap-extension/internal/input/keymap"
	"github.com/Aimarl0/keymap-extension/internal/input/macro"
	"github.com/Aimarl0/keymap-extension/internal/logging"
	"github.com/Aimarl0/keymap-extension/internal/storage"
)

const (
	// DefaultAutosaveDelay is the quiet period after the last edit
	// before the config is saved.
	DefaultAutosaveDelay = 3 * time.Second

	// DefaultBackupInterval is the period between backup snapshots.
	DefaultBackupInterval = 60 * time.Second
)

// Format selects an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses an export format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
	}
}

// Session is an editing session over the stored config.
type Session struct {
	id        string
	sync      storage.SyncStore
	backup    storage.BackupStore
	key       string
	backupKey string
	platform  key.Platform
	logger    *slog.Logger
	reporter  Reporter

	autosaveDelay  time.Duration
	backupInterval time.Duration

	lock  Lock
	steps *macro.Recorder

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	cfg      *keymap.Config
	modified bool
	timer    *time.Timer
	closed   bool
}

// Option configures a Session.
type Option func(*Session)

// WithAutosaveDelay sets the autosave debounce delay. A non-positive
// delay disables autosave.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Session) { s.autosaveDelay = d }
}

// WithBackupInterval sets the backup snapshot period. A non-positive
// interval disables periodic backups.
func WithBackupInterval(d time.Duration) Option {
	return func(s *Session) { s.backupInterval = d }
}

// WithPlatform sets the platform used to name modifiers.
func WithPlatform(p key.Platform) Option {
	return func(s *Session) { s.platform = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithReporter sets where user-facing messages go.
func WithReporter(r Reporter) Option {
	return func(s *Session) { s.reporter = r }
}

// WithKeys sets the sync store key and the backup store key.
func WithKeys(syncKey, backupKey string) Option {
	return func(s *Session) {
		s.key = syncKey
		s.backupKey = backupKey
	}
}

// Open loads the config and starts the backup ticker. Load problems do
// not fail Open: a damaged config is repaired, and an unreadable one is
// recovered from backup or reset to empty. The error is non-nil only
// when ctx ends before the load completes.
func Open(ctx context.Context, syncStore storage.SyncStore, backup storage.BackupStore, opts ...Option) (*Session, error) {
	s := &Session{
		id:             uuid.NewString(),
		sync:           syncStore,
		backup:         backup,
		key:            keymap.StorageKey,
		backupKey:      keymap.BackupKey,
		platform:       key.DetectPlatform(),
		autosaveDelay:  DefaultAutosaveDelay,
		backupInterval: DefaultBackupInterval,
		steps:          macro.NewRecorder(),
		cfg:            keymap.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reporter == nil {
		s.reporter = discardReporter{}
	}
	s.logger = logging.WithComponent(s.logger, "editor").With("session", s.id)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if err := s.load(ctx); err != nil {
		s.Close()
		return nil, err
	}

	if s.backupInterval > 0 {
		s.wg.Add(1)
		go s.backupLoop()
	}
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Platform returns the platform used to name modifiers.
func (s *Session) Platform() key.Platform {
	return s.platform
}

// Config returns a copy of the working config.
func (s *Session) Config() *keymap.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// Modified reports whether the working config has unsaved changes.
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified
}

func (s *Session) load(ctx context.Context) error {
	raw, ok, err := s.sync.Get(ctx, s.key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return s.recover(ctx, keymap.Wrap(keymap.KindStorage, err, "load config"))
	}
	if !ok {
		s.logger.Info("no stored config, starting empty")
		return nil
	}

	cfg, report, err := keymap.Load(raw)
	if err != nil {
		return s.recover(ctx, err)
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if report.Changed() {
		s.reportRepair("stored config", report)
		s.mu.Lock()
		s.markModifiedLocked()
		s.mu.Unlock()
	}
	return nil
}

// repaired returns a copy of c with its site list normalized and
// deduplicated, reporting anything that changed. Every config adopted
// from outside the session goes through it.
func (s *Session) repaired(origin string, c *keymap.Config) *keymap.Config {
	c = c.Clone()
	if report := keymap.Repair(c); report.Changed() {
		s.reportRepair(origin, report)
	}
	return c
}

func (s *Session) reportRepair(origin string, report keymap.RepairReport) {
	s.logger.Warn("repaired "+origin,
		"duplicate_sites", report.DuplicateSites,
		"invalid_sites", report.InvalidSites,
		"rewritten_sites", report.RewrittenSites,
		"dropped_mappings", report.DroppedMappings,
		"reset_fields", report.ResetFields,
	)
	s.report(LevelWarning, describeRepair(report))
}

// recover replaces an unloadable config with the newest valid backup
// or, failing that, an empty config, and persists the result.
func (s *Session) recover(ctx context.Context, cause error) error {
	s.logger.Warn("config load failed, recovering", "error", cause)

	cfg, err := s.readBackup(ctx)
	restored := err == nil
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Warn("backup unusable", "error", err)
		cfg = keymap.New()
	}

	s.mu.Lock()
	s.cfg = cfg
	s.modified = true
	s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		s.logger.Error("persist recovered config", "error", err)
		s.report(LevelError, "Recovered configuration could not be saved: "+err.Error())
		s.mu.Lock()
		s.markModifiedLocked()
		s.mu.Unlock()
		return nil
	}

	if restored {
		s.report(LevelSuccess, "Configuration restored from backup")
	} else {
		s.report(LevelWarning, "Configuration could not be loaded and was reset to default")
	}
	return nil
}

func (s *Session) readBackup(ctx context.Context) (*keymap.Config, error) {
	raw, ok, err := s.backup.Load(ctx, s.backupKey)
	if err != nil {
		return nil, keymap.Wrap(keymap.KindRestore, err, "read backup")
	}
	if !ok {
		return nil, keymap.Errorf(keymap.KindRestore, "no backup available")
	}
	cfg, err := keymap.Parse(raw)
	if err != nil {
		return nil, keymap.Wrap(keymap.KindRestore, err, "backup is invalid")
	}
	return s.repaired("backup", cfg), nil
}

// edit applies fn to a copy of the working config under the edit lock
// and adopts the copy if fn succeeds.
func (s *Session) edit(ctx context.Context, fn func(c *keymap.Config) error) error {
	return s.lock.Do(ctx, func() error { return s.editLocked(fn) })
}

func (s *Session) editLocked(fn func(c *keymap.Config) error) error {
	if n := s.lock.Waiting(); n > 0 {
		s.logger.Debug("edits queued behind this one", "waiting", n)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errSessionClosed
	}
	work := s.cfg.Clone()
	s.mu.Unlock()

	if err := fn(work); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg = work
	s.markModifiedLocked()
	s.mu.Unlock()
	return nil
}

var errSessionClosed = errors.New("editor: session closed")

// markModifiedLocked sets the modified flag and re-arms autosave.
// s.mu must be held.
func (s *Session) markModifiedLocked() {
	s.modified = true
	if s.closed || s.autosaveDelay <= 0 {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.autosaveDelay, s.autosave)
}

// AddSite normalizes raw and appends it to the site list. It returns
// the normalized hostname.
func (s *Session) AddSite(ctx context.Context, raw string) (string, error) {
	site, err := keymap.NormalizeSite(raw)
	if err != nil {
		return "", s.fail(err)
	}
	err = s.edit(ctx, func(c *keymap.Config) error {
		if c.HasSite(site) {
			return keymap.Errorf(keymap.KindDuplicateSite, "site %s is already configured", site)
		}
		c.AddSite(site)
		return nil
	})
	if err != nil {
		return "", s.fail(err)
	}
	s.report(LevelSuccess, "Added site "+site)
	return site, nil
}

// RemoveSite removes site by exact match. It returns false if the site
// was not configured.
func (s *Session) RemoveSite(ctx context.Context, site string) (bool, error) {
	err := s.edit(ctx, func(c *keymap.Config) error {
		if !c.RemoveSite(site) {
			return errNotFound
		}
		return nil
	})
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.fail(err)
	}
	s.report(LevelSuccess, "Removed site "+site)
	return true, nil
}

var errNotFound = errors.New("not found")

// Capture checks that rec can be used as either side of a mapping and
// returns its identity. Bare modifier presses and browser-reserved
// chords are refused with a warning.
func (s *Session) Capture(rec key.Record) (string, error) {
	id, err := s.checkCapture(rec)
	if err != nil {
		s.report(LevelWarning, err.Error())
		return "", err
	}
	return id, nil
}

func (s *Session) checkCapture(rec key.Record) (string, error) {
	if rec.IsZero() {
		return "", keymap.Errorf(keymap.KindInvalidKeyInfo, "key record has no key name")
	}
	if key.IsModifierKey(rec.Key) {
		return "", keymap.Errorf(keymap.KindInvalidKeyInfo, "%s alone cannot be mapped", rec.Key)
	}
	id := key.Identify(s.platform, rec)
	if key.IsReserved(id) {
		return "", keymap.Errorf(keymap.KindInvalidKeyInfo, "%s is reserved by the browser and cannot be captured", id)
	}
	return id, nil
}

// AddMapping maps source to a single target. An existing mapping for
// the same source is replaced with a warning. It returns the source
// identity.
func (s *Session) AddMapping(ctx context.Context, source, target key.Record) (string, error) {
	if source.IsZero() || target.IsZero() {
		return "", s.fail(keymap.Errorf(keymap.KindInvalidKeyInfo, "capture both the source and the target key"))
	}
	id, err := s.checkCapture(source)
	if err != nil {
		return "", s.fail(err)
	}
	if _, err := s.checkCapture(target); err != nil {
		return "", s.fail(err)
	}
	return id, s.commitMapping(ctx, id, keymap.Single(target.WithoutDelay()))
}

// AddSequenceStep appends a step to the pending sequence. A step without
// a delay gets the default step delay.
func (s *Session) AddSequenceStep(step key.Record) error {
	if _, err := s.checkCapture(step); err != nil {
		return s.fail(err)
	}
	if step.Delay == nil {
		step = step.WithDelay(int(key.DefaultStepDelay / time.Millisecond))
	} else if *step.Delay < 0 {
		return s.fail(keymap.Errorf(keymap.KindInvalidKeyInfo, "step delay %dms is negative", *step.Delay))
	}
	s.steps.Record(step)
	return nil
}

// RemoveSequenceStep removes the pending step at index i.
func (s *Session) RemoveSequenceStep(i int) error {
	if err := s.steps.Remove(i); err != nil {
		return s.fail(keymap.Wrap(keymap.KindInvalidMapping, err, "remove step"))
	}
	return nil
}

// ClearSequence discards the pending steps.
func (s *Session) ClearSequence() {
	s.steps.Clear()
}

// SequenceSteps returns a copy of the pending steps.
func (s *Session) SequenceSteps() []key.Record {
	return s.steps.Steps()
}

// AddSequenceMapping maps source to the pending steps and clears them.
// It returns the source identity.
func (s *Session) AddSequenceMapping(ctx context.Context, source key.Record) (string, error) {
	if source.IsZero() {
		return "", s.fail(keymap.Errorf(keymap.KindInvalidKeyInfo, "capture the source key"))
	}
	id, err := s.checkCapture(source)
	if err != nil {
		return "", s.fail(err)
	}
	steps := s.steps.Steps()
	if len(steps) == 0 {
		return "", s.fail(keymap.Errorf(keymap.KindInvalidMapping, "add at least one sequence step"))
	}
	if err := s.commitMapping(ctx, id, keymap.Sequence(steps...)); err != nil {
		return "", err
	}
	s.steps.Clear()
	return id, nil
}

func (s *Session) commitMapping(ctx context.Context, id string, m keymap.Mapping) error {
	if err := keymap.ValidateMapping(id, m); err != nil {
		return s.fail(err)
	}
	var replaced bool
	err := s.edit(ctx, func(c *keymap.Config) error {
		replaced = c.SetMapping(id, m)
		return nil
	})
	if err != nil {
		return s.fail(err)
	}
	if replaced {
		s.logger.Info("mapping replaced", "identity", id)
		s.report(LevelWarning, keymap.Errorf(keymap.KindDuplicateMapping,
			"mapping for %s already existed and was replaced", id).Error())
	}
	s.report(LevelSuccess, fmt.Sprintf("Mapped %s → %s", id, m.Describe(s.platform)))
	return nil
}

// RemoveMapping deletes the mapping for identity. It returns false if
// there was none.
func (s *Session) RemoveMapping(ctx context.Context, identity string) (bool, error) {
	err := s.edit(ctx, func(c *keymap.Config) error {
		if !c.RemoveMapping(identity) {
			return errNotFound
		}
		return nil
	})
	if errors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, s.fail(err)
	}
	s.report(LevelSuccess, "Removed mapping "+identity)
	return true, nil
}

// Replace validates c and adopts it as the working config. Site entries
// are normalized and deduplicated on the way in.
func (s *Session) Replace(ctx context.Context, c *keymap.Config) error {
	if err := keymap.Validate(c); err != nil {
		return s.fail(err)
	}
	c = s.repaired("imported config", c)
	err := s.edit(ctx, func(work *keymap.Config) error {
		*work = *c
		return nil
	})
	if err != nil {
		return s.fail(err)
	}
	return nil
}

// Import decodes data in the given format and adopts it.
func (s *Session) Import(ctx context.Context, data []byte, format Format) error {
	var (
		c   *keymap.Config
		err error
	)
	switch format {
	case FormatYAML:
		c, err = keymap.DecodeYAML(data)
	default:
		c, err = keymap.Parse(data)
	}
	if err != nil {
		return s.fail(err)
	}
	if err := s.Replace(ctx, c); err != nil {
		return err
	}
	s.report(LevelSuccess, "Configuration imported")
	return nil
}

// Export encodes the working config.
func (s *Session) Export(format Format) ([]byte, error) {
	c := s.Config()
	if format == FormatYAML {
		return keymap.EncodeYAML(c)
	}
	data, err := c.Encode()
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(data), nil
}

// Save validates and persists the working config now, then writes a
// backup snapshot the way an autosave does. A failed snapshot is logged
// only.
func (s *Session) Save(ctx context.Context) error {
	err := s.lock.Do(ctx, func() error { return s.save(ctx) })
	if err != nil {
		return s.fail(err)
	}
	s.report(LevelSuccess, "Configuration saved")
	s.snapshot(ctx)
	return nil
}

// save persists the working config and clears the modified flag. The
// edit lock must be held, or the session must not be shared yet.
func (s *Session) save(ctx context.Context) error {
	cfg := s.Config()
	if err := keymap.Validate(cfg); err != nil {
		return err
	}
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	if err := s.sync.Set(ctx, s.key, data); err != nil {
		return keymap.Wrap(keymap.KindStorage, err, "save config")
	}

	s.mu.Lock()
	s.modified = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.logger.Debug("config saved", "bytes", len(data))
	return nil
}

func (s *Session) autosave() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	if err := s.lock.Lock(s.ctx); err != nil {
		return
	}
	if s.Modified() {
		if err := s.save(s.ctx); err != nil {
			s.logger.Warn("autosave failed", "error", err)
			s.report(LevelError, "Autosave failed: "+err.Error())
		} else {
			s.report(LevelSuccess, "Changes saved")
		}
	}
	s.lock.Unlock()

	s.snapshot(s.ctx)
}

// Backup writes a snapshot of the working config to the backup store.
func (s *Session) Backup(ctx context.Context) error {
	data, err := s.Config().Encode()
	if err != nil {
		return keymap.Wrap(keymap.KindBackup, err, "encode snapshot")
	}
	if err := s.backup.Save(ctx, s.backupKey, data); err != nil {
		return keymap.Wrap(keymap.KindBackup, err, "write snapshot")
	}
	s.logger.Debug("backup written", "bytes", len(data))
	return nil
}

// snapshot is Backup with errors logged only.
func (s *Session) snapshot(ctx context.Context) {
	if err := s.Backup(ctx); err != nil {
		s.logger.Warn("backup failed", "error", err)
	}
}

func (s *Session) backupLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.backupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.snapshot(s.ctx)
		}
	}
}

// RestoreFromBackup adopts the newest valid backup and saves it.
func (s *Session) RestoreFromBackup(ctx context.Context) error {
	cfg, err := s.readBackup(ctx)
	if err != nil {
		return s.fail(err)
	}
	if err := s.lock.Lock(ctx); err != nil {
		return err
	}
	defer s.lock.Unlock()

	s.mu.Lock()
	s.cfg = cfg
	s.modified = true
	s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		s.mu.Lock()
		s.markModifiedLocked()
		s.mu.Unlock()
		return s.fail(err)
	}
	s.report(LevelSuccess, "Configuration restored from backup")
	return nil
}

// Close stops autosave and the backup ticker. Unsaved changes are not
// written; callers check Modified and Save first if they want them.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *Session) report(level Level, text string) {
	s.reporter.Report(level, text)
}

// fail reports err to the user and returns it.
func (s *Session) fail(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.report(LevelError, err.Error())
	return err
}

func describeRepair(r keymap.RepairReport) string {
	var parts []string
	if n := len(r.DuplicateSites); n > 0 {
		parts = append(parts, fmt.Sprintf("%d duplicate site(s) removed", n))
	}
	if n := len(r.InvalidSites); n > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid site(s) removed", n))
	}
	if n := len(r.RewrittenSites); n > 0 {
		parts = append(parts, fmt.Sprintf("%d site(s) normalized", n))
	}
	if n := len(r.DroppedMappings); n > 0 {
		parts = append(parts, fmt.Sprintf("%d invalid mapping(s) removed", n))
	}
	if n := len(r.ResetFields); n > 0 {
		parts = append(parts, "reset "+strings.Join(r.ResetFields, ", "))
	}
	return "Configuration repaired: " + strings.Join(parts, "; ")
}
