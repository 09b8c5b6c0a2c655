package contracts

// UnitSettingsRow is one dated per-SKU economic settings snapshot.
// Values is keyed by setting name (sebes_rub, perc_mp, acquiring_perc,
// tax_total_perc, buyout_percent, buyout_percent_special, delivery_rub,
// storage_rub, packaging_rub, expenses, ...). The snapshot effective on
// a given day is the latest one at or before that day, else the
// earliest known one.
type UnitSettingsRow struct {
	NmID   int64              `json:"nm_id"`
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

// PlanSettings are per-SKU saved plan values keyed by setting name.
// A saved plan value beats any snapshot or calibration value for the
// same key.
type PlanSettings map[string]float64

// CommissionRate is the marketplace commission tariff for one subject.
type CommissionRate struct {
	SubjectID           int64   `json:"subject_id"`
	SubjectName         string  `json:"subject_name"`
	KgvpMarketplace     float64 `json:"kgvp_marketplace"`
	KgvpSupplier        float64 `json:"kgvp_supplier"`
	KgvpSupplierExpress float64 `json:"kgvp_supplier_express"`
	PaidStorageKgvp     float64 `json:"paid_storage_kgvp"`
}

// Rate returns the commission percentage for a tariff field name.
// Both snake_case and the provider's camelCase spellings are accepted;
// unknown names fall back to the marketplace scheme.
func (c CommissionRate) Rate(field string) float64 {
	switch field {
	case "kgvp_supplier", "kgvpSupplier":
		return c.KgvpSupplier
	case "kgvp_supplier_express", "kgvpSupplierExpress":
		return c.KgvpSupplierExpress
	case "paid_storage_kgvp", "paidStorageKgvp":
		return c.PaidStorageKgvp
	default:
		return c.KgvpMarketplace
	}
}
