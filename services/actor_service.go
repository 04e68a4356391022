package services

import (
	"sync"
	"time"

	"app-review-api/models"

	"gorm.io/gorm"
)

// ActorDirectory answers capability questions about actors. The supervisor
// roster can change between votes; tallies must always use the current one.
type ActorDirectory interface {
	IsSupervisor(actorID int) (bool, error)
	IsAdmin(actorID int) (bool, error)
	ListEligibleSupervisors() ([]int, error)
}

type rosterCacheEntry struct {
	ids       []int
	fetchedAt time.Time
}

// UserActorDirectory is the database-backed ActorDirectory. The eligible
// roster is cached for a short TTL; capability checks always hit the
// database so revocations take effect immediately.
type UserActorDirectory struct {
	db *gorm.DB

	rosterMu    sync.RWMutex
	rosterCache *rosterCacheEntry
	rosterTTL   time.Duration
}

func NewUserActorDirectory(db *gorm.DB) *UserActorDirectory {
	return &UserActorDirectory{
		db:        db,
		rosterTTL: 30 * time.Second,
	}
}

func (d *UserActorDirectory) IsSupervisor(actorID int) (bool, error) {
	var count int64
	err := d.db.Model(&models.User{}).
		Where("user_id = ? AND is_supervisor = ? AND is_active = ? AND delete_at IS NULL", actorID, true, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *UserActorDirectory) IsAdmin(actorID int) (bool, error) {
	var count int64
	err := d.db.Model(&models.User{}).
		Where("user_id = ? AND is_superuser = ? AND is_active = ? AND delete_at IS NULL", actorID, true, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *UserActorDirectory) ListEligibleSupervisors() ([]int, error) {
	d.rosterMu.RLock()
	cached := d.rosterCache
	d.rosterMu.RUnlock()

	if cached != nil && time.Since(cached.fetchedAt) < d.rosterTTL {
		return append([]int(nil), cached.ids...), nil
	}

	var ids []int
	err := d.db.Model(&models.User{}).
		Where("is_supervisor = ? AND is_active = ? AND delete_at IS NULL", true, true).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}

	d.rosterMu.Lock()
	d.rosterCache = &rosterCacheEntry{ids: ids, fetchedAt: time.Now()}
	d.rosterMu.Unlock()

	return append([]int(nil), ids...), nil
}

// InvalidateRoster drops the cached roster. Called after promoting or
// revoking a supervisor so summaries never use a stale roster.
func (d *UserActorDirectory) InvalidateRoster() {
	d.rosterMu.Lock()
	d.rosterCache = nil
	d.rosterMu.Unlock()
}
