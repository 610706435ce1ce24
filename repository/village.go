package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"villageOrderTracking/internal/localstore"
	"villageOrderTracking/internal/logging"
)

// VillageState holds the single "active village" value used to prefill new
// orders. It follows the same persistence pattern as the order list: local
// store always, remote mirror best-effort. Empty string means unset.
type VillageState struct {
	mu    sync.RWMutex
	value string

	local  *localstore.Store
	mirror Mirror
	writer *mirrorWriter
	log    *logrus.Logger
}

// NewVillageState creates the state. mirror may be nil.
func NewVillageState(local *localstore.Store, mirror Mirror, log *logrus.Logger) *VillageState {
	v := &VillageState{
		local:  local,
		mirror: mirror,
		log:    log,
	}
	if mirror != nil {
		v.writer = newMirrorWriter(log)
	}
	return v
}

// Load initializes the value from the local store and, when a mirror is
// configured, refreshes from it in the background. A non-empty remote value
// silently wins over whatever the local store held.
func (v *VillageState) Load(ctx context.Context) error {
	value, err := v.local.GetValue(ctx, localstore.KeyActiveVillage)
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.value = value
	v.mu.Unlock()

	if v.mirror != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), mirrorTaskTimeout)
			defer cancel()
			if err := v.refreshFromMirror(ctx); err != nil {
				logging.Error(v.log, "village", "Load", err, nil)
			}
		}()
	}
	return nil
}

func (v *VillageState) refreshFromMirror(ctx context.Context) error {
	remote, err := v.mirror.FetchActiveVillage(ctx)
	if err != nil {
		return err
	}
	if remote == "" {
		return nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = remote
	return v.local.SetValue(ctx, localstore.KeyActiveVillage, remote)
}

// Get returns the current in-memory value.
func (v *VillageState) Get() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

// Set stores the new value locally and schedules the best-effort mirror write.
func (v *VillageState) Set(ctx context.Context, village string) error {
	village = strings.TrimSpace(village)
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = village
	if err := v.local.SetValue(ctx, localstore.KeyActiveVillage, village); err != nil {
		return err
	}
	if v.writer != nil {
		v.writer.enqueue("SetActiveVillage", func(ctx context.Context) error {
			return v.mirror.SetActiveVillage(ctx, village)
		})
	}
	return nil
}

// Clear resets the value to unset and removes the local key. The mirror
// document is cleared best-effort.
func (v *VillageState) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = ""
	if err := v.local.DeleteValue(ctx, localstore.KeyActiveVillage); err != nil {
		return err
	}
	if v.writer != nil {
		v.writer.enqueue("ClearActiveVillage", func(ctx context.Context) error {
			return v.mirror.SetActiveVillage(ctx, "")
		})
	}
	return nil
}

// Close stops the mirror write worker after draining outstanding tasks.
func (v *VillageState) Close() {
	if v.writer != nil {
		v.writer.close()
	}
}
