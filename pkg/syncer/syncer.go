// Package syncer runs one synchronization of a local tree to a destination.
//
// A run is a fixed sequence of stages. The first failing stage aborts the
// run; once the destination lock has been taken it is released on every exit
// path, and the local working area is always removed.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/internal/walker"
	"github.com/yuya-takeyama/atm-sync/pkg/exclude"
	"github.com/yuya-takeyama/atm-sync/pkg/executor"
	"github.com/yuya-takeyama/atm-sync/pkg/lock"
	"github.com/yuya-takeyama/atm-sync/pkg/logger"
	"github.com/yuya-takeyama/atm-sync/pkg/manifest"
	"github.com/yuya-takeyama/atm-sync/pkg/planner"
	"github.com/yuya-takeyama/atm-sync/pkg/session"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
)

// DefaultFolder is the destination subfolder holding the lock and manifest.
const DefaultFolder = "__atm__"

type Config struct {
	// Src is the local directory to sync.
	Src string
	// Dest is the remote directory, as understood by the transport.
	Dest   string
	Folder string

	Exclusions     []string
	ExcludeOptions exclude.Options

	// Force proceeds even when the destination lock is held.
	Force bool
	// DryRun plans and logs uploads without writing to the destination.
	DryRun bool

	Concurrency int
	// WorkDir is the root of the per-run local working areas.
	WorkDir string
	// Interval is how long a working area is kept before it counts as stale.
	Interval time.Duration
}

type Syncer struct {
	cfg       Config
	transport transport.Transport
	fs        afero.Fs
	logger    logger.Logger
	now       func() time.Time

	planHook func(*planner.Plan) error

	lock         *lock.Lock
	manifestPath string
}

type Option func(*Syncer)

// WithFs sets the local filesystem. It must be the one the transport reads uploads from.
func WithFs(fsys afero.Fs) Option {
	return func(s *Syncer) {
		s.fs = fsys
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Syncer) {
		s.logger = log
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		s.now = now
	}
}

// WithPlanHook registers fn to receive the upload plan before any upload
// starts. An error from fn aborts the run.
func WithPlanHook(fn func(*planner.Plan) error) Option {
	return func(s *Syncer) {
		s.planHook = fn
	}
}

func New(cfg Config, t transport.Transport, opts ...Option) (*Syncer, error) {
	if cfg.Src == "" {
		return nil, errors.New("source directory is required")
	}
	if cfg.WorkDir == "" {
		return nil, errors.New("working directory is required")
	}
	if cfg.Folder == "" {
		cfg.Folder = DefaultFolder
	}
	if cfg.Interval <= 0 {
		cfg.Interval = session.DefaultInterval
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	s := &Syncer{
		cfg:       cfg,
		transport: t,
		fs:        afero.NewOsFs(),
		logger:    &logger.NullLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.lock = lock.New(t, LockPath(cfg.Dest, cfg.Folder))
	s.manifestPath = ManifestPath(cfg.Dest, cfg.Folder)
	return s, nil
}

// LockPath returns the remote path of the lock artifact.
func LockPath(dest, folder string) string {
	return transport.Join(dest, folder, lock.FileName)
}

// ManifestPath returns the remote path of the manifest artifact.
func ManifestPath(dest, folder string) string {
	return transport.Join(dest, folder, manifest.FileName)
}

// Session is the state threaded through the stages of one run.
type Session struct {
	Area     *session.Area
	LockHeld bool

	StaleRemoved int
	Manifest     manifest.Manifest
	Entries      []walker.Entry
	Excluded     exclude.Set
	Plan         *planner.Plan
	Results      []executor.Result
}

type Result struct {
	Plan          *planner.Plan
	Uploaded      []planner.Item
	Failed        []executor.Result
	BytesUploaded int64
	Unchanged     int
	Excluded      int
	StaleRemoved  int
	DryRun        bool
	Duration      time.Duration
}

type stage struct {
	name string
	run  func(ctx context.Context, sess *Session) error
}

func (s *Syncer) stages() []stage {
	return []stage{
		{StageCleanup, s.cleanupStale},
		{StageLockCheck, s.checkLock},
		{StageAcquire, s.acquireLock},
		{StageFetch, s.fetchManifest},
		{StageScan, s.scan},
		{StageExclude, s.resolveExclusions},
		{StageDiff, s.diff},
		{StageUpload, s.upload},
		{StagePersist, s.persistManifest},
		{StageRelease, s.releaseLock},
		{StageRemove, s.removeArea},
	}
}

// Run performs one sync. On failure the returned error is a *StageError,
// possibly joined with a failure to release the lock, and the result is
// non-nil only if the run got as far as planning.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	start := s.now()
	sess := &Session{}

	for _, st := range s.stages() {
		s.logger.Stage(st.name)
		if err := st.run(ctx, sess); err != nil {
			err = s.abort(ctx, sess, &StageError{Stage: st.name, Err: err})
			if sess.Plan == nil {
				return nil, err
			}
			return s.result(sess, s.now().Sub(start)), err
		}
	}

	return s.result(sess, s.now().Sub(start)), nil
}

// abort releases what the failed run still holds. A release failure is
// joined behind the primary error.
func (s *Syncer) abort(ctx context.Context, sess *Session, primary error) error {
	cleanupCtx := context.WithoutCancel(ctx)
	err := primary

	if sess.LockHeld {
		sess.LockHeld = false
		if rerr := s.lock.Release(cleanupCtx); rerr != nil {
			s.logger.Error("release lock", s.lock.RemotePath(), rerr)
			err = errors.Join(primary, &StageError{Stage: StageRelease, Err: rerr})
		}
	}

	if sess.Area != nil {
		if rerr := sess.Area.Remove(); rerr != nil {
			s.logger.Warn("could not remove working area", "path", sess.Area.Dir(), "error", rerr)
		}
		sess.Area = nil
	}

	return err
}

func (s *Syncer) cleanupStale(ctx context.Context, sess *Session) error {
	sess.StaleRemoved = session.CleanupStale(s.fs, s.cfg.WorkDir, s.cfg.Interval, s.now(), s.logger)
	return nil
}

func (s *Syncer) checkLock(ctx context.Context, sess *Session) error {
	state, err := s.lock.Check(ctx)
	if err != nil {
		return err
	}
	if state == lock.Locked {
		if !s.cfg.Force {
			return ErrDestinationLocked
		}
		s.logger.Warn("destination is locked, continuing because of --force", "lock", s.lock.RemotePath())
	}
	return nil
}

func (s *Syncer) acquireLock(ctx context.Context, sess *Session) error {
	if s.cfg.DryRun {
		return nil
	}

	area, err := session.New(s.fs, s.cfg.WorkDir, s.now())
	if err != nil {
		return err
	}
	sess.Area = area
	s.logger.Debug("working area created", "session", area.ID(), "path", area.Dir())

	staged, err := area.Stage(lock.FileName, lock.Placeholder())
	if err != nil {
		return err
	}

	if err := s.lock.Acquire(ctx, staged); err != nil {
		return err
	}
	sess.LockHeld = true
	return nil
}

func (s *Syncer) fetchManifest(ctx context.Context, sess *Session) error {
	m, err := manifest.Fetch(ctx, s.transport, s.manifestPath)
	if err != nil {
		return err
	}
	sess.Manifest = m
	s.logger.Debug("manifest fetched", "entries", len(m))
	return nil
}

func (s *Syncer) scan(ctx context.Context, sess *Session) error {
	w, err := walker.NewWalker(s.fs, s.cfg.Src, s.logger)
	if err != nil {
		return err
	}
	entries, err := w.Scan()
	if err != nil {
		return err
	}
	sess.Entries = entries
	s.logger.Debug("local files scanned", "files", len(entries))
	return nil
}

func (s *Syncer) resolveExclusions(ctx context.Context, sess *Session) error {
	excluded, err := exclude.Resolve(s.fs, s.cfg.Src, s.cfg.Exclusions, s.cfg.ExcludeOptions)
	if err != nil {
		return err
	}
	sess.Excluded = excluded
	return nil
}

func (s *Syncer) diff(ctx context.Context, sess *Session) error {
	sess.Plan = planner.Diff(sess.Entries, sess.Manifest, sess.Excluded, planner.Options{
		RemoteBase: s.cfg.Dest,
		Logger:     s.logger,
	})
	if s.planHook != nil {
		return s.planHook(sess.Plan)
	}
	return nil
}

func (s *Syncer) upload(ctx context.Context, sess *Session) error {
	if len(sess.Plan.Items) == 0 {
		s.logger.Info("destination is up to date")
		return nil
	}

	exec := executor.NewExecutor(s.transport, s.logger,
		executor.WithConcurrency(s.cfg.Concurrency),
		executor.WithDryRun(s.cfg.DryRun),
	)
	results, err := exec.Execute(ctx, sess.Plan.Items)
	sess.Results = results
	return err
}

func (s *Syncer) persistManifest(ctx context.Context, sess *Session) error {
	if s.cfg.DryRun || len(sess.Plan.Items) == 0 {
		return nil
	}
	return manifest.Persist(ctx, s.transport, s.manifestPath, sess.Plan.Manifest)
}

func (s *Syncer) releaseLock(ctx context.Context, sess *Session) error {
	if !sess.LockHeld {
		return nil
	}
	sess.LockHeld = false
	return s.lock.Release(ctx)
}

func (s *Syncer) removeArea(ctx context.Context, sess *Session) error {
	if sess.Area == nil {
		return nil
	}
	area := sess.Area
	sess.Area = nil
	if err := area.Remove(); err != nil {
		return fmt.Errorf("%s: %w", area.Dir(), err)
	}
	return nil
}

func (s *Syncer) result(sess *Session, elapsed time.Duration) *Result {
	res := &Result{
		Plan:         sess.Plan,
		Uploaded:     []planner.Item{},
		Unchanged:    sess.Plan.Unchanged,
		Excluded:     sess.Plan.Excluded,
		StaleRemoved: sess.StaleRemoved,
		DryRun:       s.cfg.DryRun,
		Duration:     elapsed,
	}
	for _, r := range sess.Results {
		if r.Error != nil {
			res.Failed = append(res.Failed, r)
			continue
		}
		res.Uploaded = append(res.Uploaded, r.Item)
		res.BytesUploaded += r.Item.Size
	}
	return res
}
