package services

import (
	"context"
	"time"

	"github.com/medrail/casebook/internal/config"
	"github.com/medrail/casebook/internal/domain/model"
	"github.com/medrail/casebook/internal/ports"
	"github.com/medrail/casebook/pkg/logger"
)

// Reconciler detects when a session's cached master data is behind the
// server and drives the resynchronization flow: mismatch report, popup
// acknowledgement, and forced logout when the user does not act in time.
//
// Policy: version checks fail open. Any backend error during a check is
// logged and reported as "not outdated" so a hiccup never blocks users,
// at the cost of serving stale data one cycle longer.
type Reconciler struct {
	versions ports.CacheVersionRepository
	sessions ports.SessionStore
	cfg      config.Reconciler
	logger   logger.Logger

	now func() time.Time
}

func NewReconciler(
	versions ports.CacheVersionRepository,
	sessions ports.SessionStore,
	cfg config.Reconciler,
	log logger.Logger,
) *Reconciler {
	return &Reconciler{
		versions: versions,
		sessions: sessions,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// Check compares the server's version counters for the session's country
// (plus GLOBAL) against the versions the session has seen.
//
// A row with no stored value, or a stored value strictly below the server
// value, is outdated. On no mismatch the stored versions are overwritten
// with the server values. A session that checked less than the configured
// interval ago, or that already has a mismatch awaiting acknowledgement,
// skips the database entirely.
func (r *Reconciler) Check(ctx context.Context, sessionID, country string) (model.MismatchReport, error) {
	if country == "" {
		return model.MismatchReport{}, model.ErrNoCountry
	}

	pending, err := r.sessions.PendingMismatch(ctx, sessionID)
	if err != nil {
		return r.failOpen(sessionID, "reading pending mismatch", err), nil
	}

	if pending != nil {
		return model.MismatchReport{Outdated: true, Signature: pending.Signature}, nil
	}

	now := r.now().UTC()

	lastCheck, checked, err := r.sessions.LastCheck(ctx, sessionID)
	if err != nil {
		return r.failOpen(sessionID, "reading last check", err), nil
	}

	if checked && now.Sub(lastCheck) < r.cfg.CheckInterval {
		return model.MismatchReport{}, nil
	}

	if err := r.sessions.SetLastCheck(ctx, sessionID, now); err != nil {
		r.logger.Warn().Str("session_id", sessionID).Err(err).Msg("failed to record version check time")
	}

	server, err := r.versions.ListForCountry(ctx, country)
	if err != nil {
		return r.failOpen(sessionID, "listing server versions", err), nil
	}

	stored, err := r.sessions.StoredVersions(ctx, sessionID)
	if err != nil {
		return r.failOpen(sessionID, "reading stored versions", err), nil
	}

	// A session with no recorded versions at all is doing its first check;
	// adopt the server values silently instead of reporting everything
	// outdated right after login.
	if len(stored) == 0 {
		r.adoptServerVersions(ctx, sessionID, stored, server)

		return model.MismatchReport{}, nil
	}

	var (
		changed       []model.CacheVersion
		outdatedTypes []string
	)

	for _, version := range server {
		storedNumber, ok := stored.Get(version.Country, version.VersionType)
		if !ok || storedNumber < version.VersionNumber {
			changed = append(changed, version)
			outdatedTypes = append(outdatedTypes, model.TypeTag(version.Country, version.VersionType))
		}
	}

	if len(changed) == 0 {
		r.adoptServerVersions(ctx, sessionID, stored, server)

		return model.MismatchReport{}, nil
	}

	signature := model.Signature(changed)

	acknowledged, err := r.sessions.AcknowledgedSignature(ctx, sessionID)
	if err != nil {
		return r.failOpen(sessionID, "reading acknowledged signature", err), nil
	}

	if acknowledged == signature {
		return model.MismatchReport{}, nil
	}

	if err := r.sessions.SetPendingMismatch(ctx, ports.PendingMismatch{
		SessionID:  sessionID,
		Signature:  signature,
		ReportedAt: now,
	}); err != nil {
		return r.failOpen(sessionID, "recording pending mismatch", err), nil
	}

	r.logger.Info().
		Str("session_id", sessionID).
		Str("country", country).
		Strs("outdated_types", outdatedTypes).
		Str("signature", signature).
		Msg("cache version mismatch detected")

	return model.MismatchReport{
		Outdated:      true,
		OutdatedTypes: outdatedTypes,
		Changed:       changed,
		Signature:     signature,
	}, nil
}

// Acknowledge records the popup dismissal so the identical mismatch is not
// re-shown within the session, and stops the auto-logout countdown.
func (r *Reconciler) Acknowledge(ctx context.Context, sessionID, signature string) error {
	if err := r.sessions.SetAcknowledgedSignature(ctx, sessionID, signature); err != nil {
		return err
	}

	return r.sessions.ClearPendingMismatch(ctx, sessionID)
}

// ForceLogout wipes all reconciliation state for the session. This is the
// only resolution path for a mismatch: the client reloads everything.
func (r *Reconciler) ForceLogout(ctx context.Context, sessionID string) error {
	if err := r.sessions.Clear(ctx, sessionID); err != nil {
		return err
	}

	r.logger.Info().Str("session_id", sessionID).Msg("session force-logged-out")

	return nil
}

// RunSweeper force-logs-out sessions whose pending mismatch has gone
// unacknowledged past the timeout. Blocks until ctx is done.
func (r *Reconciler) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over the pending mismatches.
func (r *Reconciler) Sweep(ctx context.Context) {
	pending, err := r.sessions.ListPendingMismatches(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to list pending mismatches")

		return
	}

	now := r.now().UTC()

	for _, entry := range pending {
		if now.Sub(entry.ReportedAt) < r.cfg.AutoLogoutTimeout {
			continue
		}

		if err := r.ForceLogout(ctx, entry.SessionID); err != nil {
			r.logger.Warn().Str("session_id", entry.SessionID).Err(err).Msg("failed to force-logout timed-out session")

			continue
		}

		r.logger.Info().
			Str("session_id", entry.SessionID).
			Str("signature", entry.Signature).
			Msg("unacknowledged mismatch timed out")
	}
}

// adoptServerVersions overwrites the stored versions with the server's
// current values.
func (r *Reconciler) adoptServerVersions(
	ctx context.Context,
	sessionID string,
	stored model.StoredVersions,
	server []model.CacheVersion,
) {
	for _, version := range server {
		stored.Put(version.Country, version.VersionType, version.VersionNumber)
	}

	if err := r.sessions.SaveStoredVersions(ctx, sessionID, stored); err != nil {
		r.logger.Warn().Str("session_id", sessionID).Err(err).Msg("failed to save stored versions")
	}
}

// failOpen logs the failure and reports "not outdated".
func (r *Reconciler) failOpen(sessionID, operation string, err error) model.MismatchReport {
	r.logger.Warn().
		Str("session_id", sessionID).
		Str("operation", operation).
		Err(err).
		Msg("version check failed, treating as up to date")

	return model.MismatchReport{}
}
