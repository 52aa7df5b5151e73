package settlement

import (
	"database/sql"
	"math"
	"testing"

	"github.com/jovjrx/frota360-demo-sub005/internal/constants"
	"github.com/jovjrx/frota360-demo-sub005/internal/models"
)

func driverWithUpline(id int64, uplineID int64) models.Driver {
	d := models.Driver{ID: id, Active: true, Type: constants.DRIVER_TYPE_AFFILIATE}
	if uplineID > 0 {
		d.ReferredBy = sql.NullInt64{Int64: uplineID, Valid: true}
	}
	return d
}

func testCommissionConfig() models.CommissionConfig {
	return models.CommissionConfig{
		MinWeeklyRevenue: 550,
		Base:             constants.COMMISSION_BASE_REPASSE,
		MaxLevels:        2,
		Levels:           map[int]float64{1: 0.02, 2: 0.01},
	}
}

func bonusFor(bonuses []models.AffiliateBonus, indicatorID int64) (models.AffiliateBonus, bool) {
	for _, b := range bonuses {
		if b.IndicatorID == indicatorID {
			return b, true
		}
	}
	return models.AffiliateBonus{}, false
}

func TestComputeBonusesTwoLevelChain(t *testing.T) {
	// C refers B refers A. All three meet the threshold.
	drivers := map[int64]models.Driver{
		1: driverWithUpline(1, 2), // A, referred by B
		2: driverWithUpline(2, 3), // B, referred by C
		3: driverWithUpline(3, 0), // C, top of chain
	}
	bases := map[int64]float64{1: 1000, 2: 800, 3: 600}

	bonuses, diags := ComputeBonuses(drivers, bases, testCommissionConfig())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	b, ok := bonusFor(bonuses, 2)
	if !ok {
		t.Fatal("driver B received no bonus")
	}
	if math.Abs(b.Total-20.00) > 0.01 {
		t.Errorf("B total = %.2f, want 20.00", b.Total)
	}

	c, ok := bonusFor(bonuses, 3)
	if !ok {
		t.Fatal("driver C received no bonus")
	}
	// 800*0.02 from B at level 1 plus 1000*0.01 from A at level 2.
	if math.Abs(c.Total-26.00) > 0.01 {
		t.Errorf("C total = %.2f, want 26.00", c.Total)
	}
	if len(c.Details) != 2 {
		t.Fatalf("C details = %d entries, want 2", len(c.Details))
	}

	if _, ok := bonusFor(bonuses, 1); ok {
		t.Error("driver A has no downline and should receive no bonus")
	}
}

func TestComputeBonusesEligibilityThreshold(t *testing.T) {
	drivers := map[int64]models.Driver{
		1: driverWithUpline(1, 2),
		2: driverWithUpline(2, 0),
	}
	// 549.99 misses the 550 threshold by a cent.
	bases := map[int64]float64{1: 1000, 2: 549.99}

	bonuses, _ := ComputeBonuses(drivers, bases, testCommissionConfig())
	if _, ok := bonusFor(bonuses, 2); ok {
		t.Error("indicator below the threshold must receive zero bonus")
	}
}

func TestComputeBonusesBelowThresholdDownlineStillFeedsUpline(t *testing.T) {
	// B is below the threshold so B earns nothing, but B's own base still
	// produces a bonus for C.
	drivers := map[int64]models.Driver{
		1: driverWithUpline(1, 2), // A -> B
		2: driverWithUpline(2, 3), // B -> C
		3: driverWithUpline(3, 0),
	}
	bases := map[int64]float64{1: 1000, 2: 100, 3: 900}

	bonuses, _ := ComputeBonuses(drivers, bases, testCommissionConfig())
	if _, ok := bonusFor(bonuses, 2); ok {
		t.Error("B is below the threshold and must receive nothing")
	}
	c, ok := bonusFor(bonuses, 3)
	if !ok {
		t.Fatal("C received no bonus")
	}
	// 100*0.02 from B at level 1 plus 1000*0.01 from A at level 2.
	if math.Abs(c.Total-12.00) > 0.01 {
		t.Errorf("C total = %.2f, want 12.00", c.Total)
	}
}

func TestComputeBonusesZeroRateSkipsLevelButWalkContinues(t *testing.T) {
	cfg := testCommissionConfig()
	cfg.Levels = map[int]float64{1: 0, 2: 0.01}

	drivers := map[int64]models.Driver{
		1: driverWithUpline(1, 2),
		2: driverWithUpline(2, 3),
		3: driverWithUpline(3, 0),
	}
	bases := map[int64]float64{1: 1000, 2: 800, 3: 600}

	bonuses, _ := ComputeBonuses(drivers, bases, cfg)
	if _, ok := bonusFor(bonuses, 2); ok {
		t.Error("level 1 rate is zero, B must receive nothing")
	}
	c, ok := bonusFor(bonuses, 3)
	if !ok {
		t.Fatal("C received no bonus")
	}
	if math.Abs(c.Total-10.00) > 0.01 {
		t.Errorf("C total = %.2f, want 10.00 (level 2 only)", c.Total)
	}
}

func TestComputeBonusesCycleDetection(t *testing.T) {
	// 1 -> 2 -> 1 is a referral cycle. The walk must terminate and report it.
	drivers := map[int64]models.Driver{
		1: driverWithUpline(1, 2),
		2: driverWithUpline(2, 1),
	}
	bases := map[int64]float64{1: 1000, 2: 800}
	cfg := testCommissionConfig()
	cfg.MaxLevels = 5
	cfg.Levels = map[int]float64{1: 0.02, 2: 0.01, 3: 0.01, 4: 0.01, 5: 0.01}

	bonuses, diags := ComputeBonuses(drivers, bases, cfg)

	cycleReported := false
	for _, d := range diags {
		if d.Kind == constants.DIAG_REFERRAL_CYCLE {
			cycleReported = true
		}
	}
	if !cycleReported {
		t.Error("referral cycle was not reported")
	}
	// Level 1 credit is still valid in both directions before the repeat.
	for _, id := range []int64{1, 2} {
		if b, ok := bonusFor(bonuses, id); ok {
			for _, detail := range b.Details {
				if detail.Level != 1 {
					t.Errorf("driver %d credited at level %d inside a cycle", id, detail.Level)
				}
			}
		}
	}
}

func TestComputeBonusesDeterministic(t *testing.T) {
	drivers := map[int64]models.Driver{
		1: driverWithUpline(1, 3),
		2: driverWithUpline(2, 3),
		3: driverWithUpline(3, 0),
	}
	bases := map[int64]float64{1: 700, 2: 900, 3: 1200}
	cfg := testCommissionConfig()

	first, _ := ComputeBonuses(drivers, bases, cfg)
	for i := 0; i < 10; i++ {
		again, _ := ComputeBonuses(drivers, bases, cfg)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d bonuses, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].IndicatorID != first[j].IndicatorID || again[j].Total != first[j].Total {
				t.Fatalf("run %d: bonus %d differs: %+v vs %+v", i, j, again[j], first[j])
			}
		}
	}
}
