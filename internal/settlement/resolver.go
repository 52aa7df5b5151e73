package settlement

import (
	"fmt"
	"log"
	"sort"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// Resolver maps a platform's raw reference key to an internal driver id.
// Built once per run from the active driver set; lookups are pure after that.
type Resolver struct {
	// byPlatformKey maps platform -> normalized integration key -> driver ids
	// (ascending). More than one id means the key is ambiguous.
	byPlatformKey map[string]map[string][]int64
	// byPlate maps normalized plate -> driver ids; used as a fallback for
	// ViaVerde and MyPrio rows keyed by vehicle plate.
	byPlate map[string][]int64

	diagnostics []models.Diagnostic
}

// NewResolver indexes the given drivers for resolution. Inactive drivers are
// skipped entirely: their keys must not capture imported rows.
func NewResolver(drivers []models.Driver) *Resolver {
	r := &Resolver{
		byPlatformKey: make(map[string]map[string][]int64),
		byPlate:       make(map[string][]int64),
	}
	for _, platform := range constants.AllPlatforms {
		r.byPlatformKey[platform] = make(map[string][]int64)
	}

	for _, d := range drivers {
		if !d.Active {
			continue
		}
		for _, platform := range constants.AllPlatforms {
			key := utils.NormalizeKey(d.IntegrationKey(platform))
			if key == "" {
				continue
			}
			r.byPlatformKey[platform][key] = append(r.byPlatformKey[platform][key], d.ID)
		}
		if d.Plate.Valid {
			plate := utils.NormalizePlate(d.Plate.String)
			if plate != "" {
				r.byPlate[plate] = append(r.byPlate[plate], d.ID)
			}
		}
	}

	for platform, keys := range r.byPlatformKey {
		for key, ids := range keys {
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			if len(ids) > 1 {
				r.warnAmbiguous(platform, key, ids)
			}
		}
	}
	for plate, ids := range r.byPlate {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if len(ids) > 1 {
			r.warnAmbiguous("plate", plate, ids)
		}
	}
	return r
}

func (r *Resolver) warnAmbiguous(platform, key string, ids []int64) {
	msg := fmt.Sprintf("reference key %q on %s matches drivers %v; using driver %d", key, platform, ids, ids[0])
	log.Printf("Resolver: %s", msg)
	r.diagnostics = append(r.diagnostics, models.Diagnostic{Kind: constants.DIAG_AMBIGUOUS_KEY, Message: msg})
}

// Resolve maps (platform, referenceKey) to a driver id. Returns false when no
// active driver matches. On ambiguity the lowest driver id wins; the warning
// was already recorded at index time.
func (r *Resolver) Resolve(platform, referenceKey string) (int64, bool) {
	keys, ok := r.byPlatformKey[platform]
	if !ok {
		return 0, false
	}
	if ids := keys[utils.NormalizeKey(referenceKey)]; len(ids) > 0 {
		return ids[0], true
	}
	// ViaVerde transponders and MyPrio cards are often registered by plate.
	if platform == constants.PLATFORM_VIAVERDE || platform == constants.PLATFORM_MYPRIO {
		if ids := r.byPlate[utils.NormalizePlate(referenceKey)]; len(ids) > 0 {
			return ids[0], true
		}
	}
	return 0, false
}

// Diagnostics returns the ambiguity warnings collected while indexing.
func (r *Resolver) Diagnostics() []models.Diagnostic {
	return r.diagnostics
}
