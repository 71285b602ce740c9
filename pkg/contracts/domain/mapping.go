package domain

// MappingEntry assigns a chart-of-accounts category to one distinct
// flattened account name. Entries are generated fresh from the distinct
// accounts of a processing run and may be overridden by caller-supplied
// entries before calculation. A mapping is consulted by reference
// during calculation and never mutates transaction rows.
type MappingEntry struct {
	// AccountNameFlat is the unique key, preserving original casing.
	AccountNameFlat string `json:"account_name_flat" csv:"AccountNameFlat"`
	AccountNameRaw  string `json:"account_name_raw,omitempty" csv:"AccountNameRaw"`
	// MainCategory is empty when no rule matched and no override exists.
	MainCategory   Category `json:"main_category,omitempty" csv:"MainCategory"`
	Sub1           string   `json:"sub1,omitempty" csv:"Sub1"`
	Sub2           string   `json:"sub2,omitempty" csv:"Sub2"`
	ClientSpecific string   `json:"client_specific,omitempty" csv:"ClientSpecific"`
	Notes          string   `json:"notes,omitempty" csv:"Notes"`
	// Entity scopes the entry to one business unit; empty means global.
	Entity string `json:"entity,omitempty" csv:"Entity"`
	// TransactionCount records how many rows reference the account.
	TransactionCount int `json:"transaction_count,omitempty" csv:"TransactionCount"`
}

// Adjustment is a discretionary Adjusted-EBITDA normalization entry.
// Reserved extension point: runs carry zero adjustments by default.
type Adjustment struct {
	RowID     int64    `json:"row_id"`
	Category  Category `json:"category,omitempty"`
	Amount    float64  `json:"amount"`
	AddBack   bool     `json:"add_back"`
	Reasoning string   `json:"reasoning,omitempty"`
}
