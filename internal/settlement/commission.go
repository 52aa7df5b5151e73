package settlement

import (
	"fmt"
	"log"
	"sort"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
	"github.com/jovjrx/frota360-demo-sub005/internal/utils"
)

// ComputeBonuses walks every driver's upline referral chain and accumulates
// the eligible multi-level bonuses for the week. It needs every driver's
// weekly base at once, so it only runs after the per-driver settlement
// barrier.
//
// For each driver with a positive base the walk climbs referredBy pointers
// from level 1 while level <= MaxLevels and an upline exists. A zero rate
// skips the level but the walk still advances. The bonus is credited only
// when the indicator's own weekly base meets the eligibility threshold; a
// below-threshold driver still feeds their uplines' bonuses but receives
// none themselves.
//
// The referral data is trusted to be acyclic but not blindly: a repeated id
// within one walk aborts that walk and reports an anomaly.
func ComputeBonuses(drivers map[int64]models.Driver, bases map[int64]float64, cfg models.CommissionConfig) ([]models.AffiliateBonus, []models.Diagnostic) {
	accum := make(map[int64]*models.AffiliateBonus)
	var diagnostics []models.Diagnostic

	// Deterministic iteration keeps re-runs byte-identical.
	downlineIDs := make([]int64, 0, len(bases))
	for id := range bases {
		downlineIDs = append(downlineIDs, id)
	}
	sort.Slice(downlineIDs, func(i, j int) bool { return downlineIDs[i] < downlineIDs[j] })

	for _, downlineID := range downlineIDs {
		downlineBase := bases[downlineID]
		if downlineBase <= 0 {
			continue
		}
		downline, ok := drivers[downlineID]
		if !ok {
			continue
		}

		visited := map[int64]bool{downlineID: true}
		current := downline

		for level := 1; level <= cfg.MaxLevels; level++ {
			if !current.ReferredBy.Valid {
				break
			}
			uplineID := current.ReferredBy.Int64
			if visited[uplineID] {
				msg := fmt.Sprintf("referral cycle detected walking up from driver %d: driver %d repeats", downlineID, uplineID)
				log.Printf("ComputeBonuses: %s", msg)
				diagnostics = append(diagnostics, models.Diagnostic{Kind: constants.DIAG_REFERRAL_CYCLE, Message: msg})
				break
			}
			visited[uplineID] = true

			upline, ok := drivers[uplineID]
			if !ok {
				// Upline deactivated or missing; the chain ends here.
				break
			}

			rate := cfg.Levels[level]
			if rate > 0 && bases[uplineID] >= cfg.MinWeeklyRevenue {
				bonus := accum[uplineID]
				if bonus == nil {
					bonus = &models.AffiliateBonus{IndicatorID: uplineID}
					accum[uplineID] = bonus
				}
				amount := utils.RoundMoney(downlineBase * rate)
				bonus.Total = utils.RoundMoney(bonus.Total + amount)
				bonus.Details = append(bonus.Details, models.BonusDetail{
					Level:            level,
					ReferredDriverID: downlineID,
					Amount:           amount,
					Base:             downlineBase,
				})
			}

			current = upline
		}
	}

	bonuses := make([]models.AffiliateBonus, 0, len(accum))
	for _, bonus := range accum {
		bonuses = append(bonuses, *bonus)
	}
	sort.Slice(bonuses, func(i, j int) bool { return bonuses[i].IndicatorID < bonuses[j].IndicatorID })
	return bonuses, diagnostics
}
