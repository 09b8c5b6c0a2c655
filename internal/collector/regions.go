package collector

import "strings"

// Region buckets for the localization split. Keys match the checklist
// column suffixes.
const (
	RegionCentral       = "central"
	RegionNorthwest     = "northwest"
	RegionSouthCaucasus = "south_caucasus"
	RegionVolga         = "volga"
	RegionFarEast       = "fareast"
	RegionUral          = "ural"
	RegionAll           = "all"
)

// regionMarkers map lowercase substrings of the provider's federal
// district names onto region buckets. Names arrive in several
// spellings; substring match is the stable part.
var regionMarkers = []struct {
	marker string
	region string
}{
	{"централ", RegionCentral},
	{"северо-запад", RegionNorthwest},
	{"северо-кавказ", RegionSouthCaucasus},
	{"южн", RegionSouthCaucasus},
	{"приволж", RegionVolga},
	{"дальневост", RegionFarEast},
	{"урал", RegionUral},
}

// RegionOf buckets a federal district or warehouse region name.
// Unrecognized names land in the central cluster, matching how the
// marketplace routes unattributed orders.
func RegionOf(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return RegionCentral
	}
	for _, m := range regionMarkers {
		if strings.Contains(lower, m.marker) {
			return m.region
		}
	}
	return RegionCentral
}

// warehouseMarkers map known warehouse name fragments onto the region
// the warehouse sits in. Orders shipped from a warehouse inside the
// buyer's region count as localized.
var warehouseMarkers = []struct {
	marker string
	region string
}{
	{"коледино", RegionCentral},
	{"подольск", RegionCentral},
	{"электросталь", RegionCentral},
	{"тула", RegionCentral},
	{"рязан", RegionCentral},
	{"белые столбы", RegionCentral},
	{"санкт-петербург", RegionNorthwest},
	{"спб", RegionNorthwest},
	{"шушары", RegionNorthwest},
	{"уткина заводь", RegionNorthwest},
	{"краснодар", RegionSouthCaucasus},
	{"невинномысск", RegionSouthCaucasus},
	{"волгоград", RegionSouthCaucasus},
	{"казан", RegionVolga},
	{"самара", RegionVolga},
	{"тольятти", RegionVolga},
	{"хабаровск", RegionFarEast},
	{"владивосток", RegionFarEast},
	{"екатеринбург", RegionUral},
	{"челябинск", RegionUral},
}

// WarehouseRegion buckets a warehouse name onto its region. Unknown
// warehouses default to central, where the bulk of the network sits.
func WarehouseRegion(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, m := range warehouseMarkers {
		if strings.Contains(lower, m.marker) {
			return m.region
		}
	}
	return RegionCentral
}
