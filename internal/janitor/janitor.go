// Package janitor prunes expired lobbies and the reconnect tokens left pointing at them.
package janitor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jason-s-yu/cambia-janitor/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Store is the database collaborator a sweep runs against.
// Deleting a record that no longer exists must not be an error.
type Store interface {
	ListLobbies(ctx context.Context) ([]models.Lobby, error)
	ListReconnects(ctx context.Context) ([]models.Reconnect, error)
	LobbyExists(ctx context.Context, id string) (bool, error)
	DeleteLobby(ctx context.Context, id string) error
	DeleteReconnect(ctx context.Context, id string) error
}

// Config tunes a Janitor. The zero value gives the reference behavior:
// 24h timeout, sequential lookups, abort on the first failure.
type Config struct {
	// LobbyTimeout is the inactivity after which a lobby is removed.
	LobbyTimeout time.Duration

	// ContinueOnError logs and collects per-record failures instead of aborting the run.
	ContinueOnError bool

	// LookupConcurrency bounds parallel lobby lookups during reconnect cleanup (<= 1 is sequential).
	LookupConcurrency int

	// Now overrides the clock, mostly for tests.
	Now func() time.Time
}

// Report summarizes one sweep.
type Report struct {
	RunID             uuid.UUID `json:"run_id"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	LobbiesScanned    int       `json:"lobbies_scanned"`
	LobbiesDeleted    []string  `json:"lobbies_deleted"`
	ReconnectsScanned int       `json:"reconnects_scanned"`
	ReconnectsDeleted []string  `json:"reconnects_deleted"`
	Failures          int       `json:"failures"`
}

// Janitor runs cleanup sweeps. It holds no state between runs, so one instance
// can be reused for every scheduler tick.
type Janitor struct {
	store  Store
	logger *logrus.Logger
	cfg    Config
}

// New constructs a Janitor. A nil logger falls back to the logrus standard logger.
func New(store Store, logger *logrus.Logger, cfg Config) *Janitor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.LobbyTimeout <= 0 {
		cfg.LobbyTimeout = models.DefaultLobbyTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Janitor{store: store, logger: logger, cfg: cfg}
}

// Run performs one sweep: first expired lobbies are deleted, then reconnect
// records whose lobby no longer exists. Because the second step starts after the
// first finishes, tokens of lobbies expired in this run are removed in this run too.
func (j *Janitor) Run(ctx context.Context) (Report, error) {
	now := j.cfg.Now()
	report := Report{
		RunID:             uuid.New(),
		StartedAt:         now,
		LobbiesDeleted:    []string{},
		ReconnectsDeleted: []string{},
	}
	log := j.logger.WithField("run_id", report.RunID.String())

	var errs *multierror.Error
	if err := j.expireLobbies(ctx, log, now, &report); err != nil {
		if !j.cfg.ContinueOnError {
			return j.finish(log, report, err)
		}
		errs = multierror.Append(errs, err)
	}
	if err := j.cleanupReconnects(ctx, log, &report); err != nil {
		if !j.cfg.ContinueOnError {
			return j.finish(log, report, err)
		}
		errs = multierror.Append(errs, err)
	}
	return j.finish(log, report, errs.ErrorOrNil())
}

func (j *Janitor) finish(log *logrus.Entry, report Report, err error) (Report, error) {
	report.FinishedAt = j.cfg.Now()
	fields := logrus.Fields{
		"lobbies_scanned":    report.LobbiesScanned,
		"lobbies_deleted":    len(report.LobbiesDeleted),
		"reconnects_scanned": report.ReconnectsScanned,
		"reconnects_deleted": len(report.ReconnectsDeleted),
		"duration":           report.FinishedAt.Sub(report.StartedAt),
	}
	if err != nil {
		log.WithFields(fields).WithError(err).Error("Lobby cleanup failed")
		return report, err
	}
	log.WithFields(fields).Info("Lobby cleanup finished")
	return report, nil
}

// expireLobbies deletes every lobby inactive for longer than the timeout.
func (j *Janitor) expireLobbies(ctx context.Context, log *logrus.Entry, now time.Time, report *Report) error {
	lobbies, err := j.store.ListLobbies(ctx)
	if err != nil {
		report.Failures++
		return fmt.Errorf("list lobbies: %w", err)
	}
	report.LobbiesScanned = len(lobbies)

	var errs *multierror.Error
	for _, l := range lobbies {
		if err := ctx.Err(); err != nil {
			report.Failures++
			return appendErr(errs, err)
		}
		if !l.Expired(now, j.cfg.LobbyTimeout) {
			continue
		}
		if err := j.store.DeleteLobby(ctx, l.ID); err != nil {
			err = fmt.Errorf("delete lobby %s: %w", l.ID, err)
			report.Failures++
			if !j.cfg.ContinueOnError {
				return err
			}
			log.WithFields(logrus.Fields{"kind": "lobby", "id": l.ID}).WithError(err).Error("Failed to delete lobby")
			errs = multierror.Append(errs, err)
			continue
		}
		report.LobbiesDeleted = append(report.LobbiesDeleted, l.ID)
		log.WithFields(logrus.Fields{
			"kind":          "lobby",
			"id":            l.ID,
			"last_activity": l.LastActivity.UTC().Format(time.RFC3339),
		}).Info("Deleted expired lobby")
	}
	return errs.ErrorOrNil()
}

// cleanupReconnects deletes every reconnect record whose referenced lobby is gone.
// Records without a lobby reference are left alone.
func (j *Janitor) cleanupReconnects(ctx context.Context, log *logrus.Entry, report *Report) error {
	all, err := j.store.ListReconnects(ctx)
	if err != nil {
		report.Failures++
		return fmt.Errorf("list reconnect records: %w", err)
	}
	report.ReconnectsScanned = len(all)

	refs := make([]models.Reconnect, 0, len(all))
	for _, rc := range all {
		if rc.HasLobby() {
			refs = append(refs, rc)
		}
	}

	lookup := j.lookup
	if j.cfg.LookupConcurrency > 1 && len(refs) > 1 {
		results, err := j.lookupAll(ctx, refs)
		if err != nil {
			report.Failures++
			return err
		}
		lookup = func(_ context.Context, i int, _ models.Reconnect) (bool, error) {
			return results[i].exists, results[i].err
		}
	}

	var errs *multierror.Error
	for i, rc := range refs {
		if err := ctx.Err(); err != nil {
			report.Failures++
			return appendErr(errs, err)
		}
		exists, err := lookup(ctx, i, rc)
		if err != nil {
			report.Failures++
			if !j.cfg.ContinueOnError {
				return err
			}
			log.WithFields(logrus.Fields{"kind": "reconnect", "id": rc.ID, "lobby_id": rc.LobbyID}).WithError(err).Error("Failed to look up lobby")
			errs = multierror.Append(errs, err)
			continue
		}
		if exists {
			continue
		}
		if err := j.store.DeleteReconnect(ctx, rc.ID); err != nil {
			err = fmt.Errorf("delete reconnect record %s: %w", rc.ID, err)
			report.Failures++
			if !j.cfg.ContinueOnError {
				return err
			}
			log.WithFields(logrus.Fields{"kind": "reconnect", "id": rc.ID}).WithError(err).Error("Failed to delete reconnect record")
			errs = multierror.Append(errs, err)
			continue
		}
		report.ReconnectsDeleted = append(report.ReconnectsDeleted, rc.ID)
		log.WithFields(logrus.Fields{
			"kind":     "reconnect",
			"id":       rc.ID,
			"lobby_id": rc.LobbyID,
		}).Info("Deleted orphaned reconnect record")
	}
	return errs.ErrorOrNil()
}

type lookupResult struct {
	exists bool
	err    error
}

func (j *Janitor) lookup(ctx context.Context, _ int, rc models.Reconnect) (bool, error) {
	exists, err := j.store.LobbyExists(ctx, rc.LobbyID)
	if err != nil {
		return false, fmt.Errorf("look up lobby %s for reconnect record %s: %w", rc.LobbyID, rc.ID, err)
	}
	return exists, nil
}

// lookupAll resolves every reference with at most LookupConcurrency lookups in flight.
// Unless ContinueOnError is set the first failure cancels the rest and is returned.
func (j *Janitor) lookupAll(ctx context.Context, refs []models.Reconnect) ([]lookupResult, error) {
	results := make([]lookupResult, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.cfg.LookupConcurrency)
	for i, rc := range refs {
		i, rc := i, rc
		g.Go(func() error {
			exists, err := j.lookup(gctx, i, rc)
			if err != nil && !j.cfg.ContinueOnError {
				return err
			}
			results[i] = lookupResult{exists: exists, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func appendErr(errs *multierror.Error, err error) error {
	if errs == nil {
		return err
	}
	return multierror.Append(errs, err)
}
