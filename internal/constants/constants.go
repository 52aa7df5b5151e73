package constants

// Income/expense platforms whose weekly exports feed the settlement engine.
const (
	PLATFORM_UBER     = "uber"
	PLATFORM_BOLT     = "bolt"
	PLATFORM_VIAVERDE = "viaverde"
	PLATFORM_MYPRIO   = "myprio"
)

// EarningPlatforms contribute to gross earnings; the rest are expense sources
// (ViaVerde = tolls, MyPrio = fuel).
var EarningPlatforms = []string{PLATFORM_UBER, PLATFORM_BOLT}

// AllPlatforms in the stable order reports are rendered in.
var AllPlatforms = []string{PLATFORM_UBER, PLATFORM_BOLT, PLATFORM_VIAVERDE, PLATFORM_MYPRIO}

// Driver contract types.
const (
	DRIVER_TYPE_AFFILIATE = "affiliate" // drives own car
	DRIVER_TYPE_RENTER    = "renter"    // rents a fleet car, pays weekly rent
)

// Admin fee computation modes.
const (
	ADMIN_FEE_MODE_PERCENT = "percentage"
	ADMIN_FEE_MODE_FIXED   = "fixed"
)

// Admin fee bases. The base is configured per driver type and cannot be
// overridden per driver (only mode/value can).
const (
	ADMIN_FEE_BASE_GROSS                = "gross"
	ADMIN_FEE_BASE_GROSS_MINUS_TAX      = "gross_minus_tax"
	ADMIN_FEE_BASE_GROSS_MINUS_EXPENSES = "gross_minus_expenses"
	ADMIN_FEE_BASE_NET                  = "gross_minus_tax_minus_expenses"
)

// Commission bases: which intermediate quantity level bonuses are computed on.
const (
	COMMISSION_BASE_REPASSE    = "repasse"
	COMMISSION_BASE_NET_OF_TAX = "net_of_tax"
)

// Payment status of a settled driver-week record.
const (
	PAYMENT_STATUS_PENDING = "pending"
	PAYMENT_STATUS_PAID    = "paid"
)

// Partial failure policy for batch persistence. The initial write path aborts
// the whole week on the first error; reprocessing collects per-driver errors
// and keeps going.
const (
	FAILURE_MODE_ABORT   = "abort"
	FAILURE_MODE_COLLECT = "collect_errors"
)

// Settings document keys (settings table, one JSONB document per key).
const (
	SETTINGS_KEY_COMMISSION = "commission_config"
	SETTINGS_KEY_ADMIN_FEE  = "admin_fee_config"
	SETTINGS_KEY_FINANCIAL  = "financial_config"
)

// Documented fallbacks used when a settings document is missing or malformed.
// The run is never failed over configuration; the fallback is logged instead.
const (
	DEFAULT_TAX_RATE_PCT      = 6.0
	DEFAULT_ADMIN_FEE_PCT     = 7.0
	DEFAULT_COMMISSION_LEVELS = 2
	DEFAULT_MIN_WEEKLY_BASE   = 550.0
)

// Diagnostic kinds attached to an aggregation pass.
const (
	DIAG_UNMAPPED_ROW      = "unmapped_row"
	DIAG_AMBIGUOUS_KEY     = "ambiguous_key"
	DIAG_REFERRAL_CYCLE    = "referral_cycle"
	DIAG_CONFIG_FALLBACK   = "config_fallback"
	DIAG_DUPLICATE_ROLLUP  = "duplicate_rollup"
	DIAG_MISSING_AGGREGATE = "missing_aggregate"
)
