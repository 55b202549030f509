package workers

import (
	"time"

	"github.com/rs/zerolog/log"

	"clipdeck/internal/engine/sharelinks"
	"clipdeck/internal/platform/database"
	"clipdeck/internal/platform/repositories"
)

// Sessions older than this are dropped by the nightly sweep. The 30 day
// aggregate window stays fully covered.
const sessionRetention = 180 * 24 * time.Hour

type Runner struct {
	shareRepo *sharelinks.Repository
	groupRepo *repositories.ClientGroupRepository
	dbPool    *database.TenantDBPool
}

func NewRunner(shareRepo *sharelinks.Repository, groupRepo *repositories.ClientGroupRepository, dbPool *database.TenantDBPool) *Runner {
	return &Runner{
		shareRepo: shareRepo,
		groupRepo: groupRepo,
		dbPool:    dbPool,
	}
}

// PurgeExpiredShareLinks reaps share links past their expiry. Resolution
// already refuses them, so this is purely hygiene.
func (r *Runner) PurgeExpiredShareLinks() error {
	n, err := r.shareRepo.DeleteExpired(time.Now().Unix())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("Purged expired share links")
	}
	return nil
}

// SweepOldSessions walks every active client group and trims view sessions
// beyond the retention horizon from its tenant database.
func (r *Runner) SweepOldSessions() error {
	groups, err := r.groupRepo.List()
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-sessionRetention).Unix()
	for _, group := range groups {
		if group.Status != "active" {
			continue
		}

		db, err := r.dbPool.Get(group.ID, group.DBFilePath)
		if err != nil {
			log.Warn().Err(err).Str("client_group", group.ID).Msg("Failed to open tenant database for sweep")
			continue
		}

		res, err := db.Exec(`DELETE FROM view_sessions WHERE created_at < ?`, cutoff)
		if err != nil {
			log.Warn().Err(err).Str("client_group", group.ID).Msg("Session sweep failed")
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Info().Int64("deleted", n).Str("client_group", group.ID).Msg("Swept old view sessions")
		}
	}
	return nil
}
