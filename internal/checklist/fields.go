package checklist

// Fields is the complete checklist row schema in output order. The
// column set matches the reference sheet export one to one; builders
// start from a template row so every field is always present.
var Fields = []string{
	"date",
	"nm_id",
	"date__nm_id",
	"imt_id",
	"open_card_count_jam",
	"add_to_cart_count_jam",
	"orders_count_jam",
	"views",
	"clicks",
	"adv_sum",
	"external_costs",
	"external_sources",
	"atbs",
	"orders",
	"shks",
	"sum_price",
	"views_auto",
	"clicks_auto",
	"adv_sum_auto",
	"ctr_auto",
	"cpc_auto",
	"cpm_auto",
	"views_search",
	"clicks_search",
	"adv_sum_search",
	"ctr_search",
	"cpc_search",
	"cpm_search",
	"avg_position",
	"clicks_keywords",
	"cpc_keywords",
	"ctr_keywords",
	"cpm_keywords",
	"adv_sum_keywords",
	"adv_percent",
	"organic_percent",
	"open_card_count",
	"open_card_dynamic",
	"orders_sum_rub",
	"orders_count",
	"add_to_cart_count",
	"add_to_cart_conversion",
	"cart_to_order_conversion",
	"click_to_order_conversion",
	"buyout_percent",
	"orders_dyn",
	"wrn_count",
	"expected_buyouts_dyn",
	"spp",
	"buyouts_sum_rub",
	"buyouts_count",
	"avg_price",
	"avg_price_with_spp",
	"valuation_count",
	"stocks",
	"stocks_sizes",
	"in_way_to_client",
	"in_way_from_client",
	"stocks_enough_for",
	"returns_plan",
	"order_price",
	"card_price",
	"localization",
	"orders_count_local",
	"unit_expenses",
	"marg_without_adv",
	"marg_with_adv",
	"profit_without_adv",
	"profit_with_adv",
	"card_rating",
	"promo_sum",
	"promo_count",
	"expected_buyouts_sum_rub",
	"ctr_auto_subject",
	"ctr_search_subject",
	"ctr_auto_subject_diff",
	"ctr_search_subject_diff",
	"ctr_keywords_search_subject_diff",
	"stocks_rub",
	"all_stocks_rub",
	"returns_plan_rub",
	"dummy",
	"buyout_percent_day",
	"buyout_percent_month",
	"hranenie_rub",
	"priemka_rub",
	"acquiring_rub",
	"tax_total_rub",
	"delivery_mp_with_buyout_rub",
	"additional_costs",
	"sebes_rub",
	"markirovka_rub",
	"perc_mp_rub",
	"actions",
	"views_keywords",
	"views_rs_cat",
	"clicks_rs_cat",
	"adv_sum_rs_cat",
	"ctr_rs_cat",
	"cpc_rs_cat",
	"cpm_rs_cat",
	"promo_total_cost",
	"orders_count_returned_fact",
	"orders_buyouts_count_fact",
	"orders_count_canceled_fact",
	"orders_buyouts_sum_rub_fact",
	"orders_sum_rub_returned_fact",
	"orders_sum_rub_canceled_fact",
	"stocks_enough_for_with_buyout_perc",
	"frequency",
	"stocks_total",
	"jam_clicks",
	"orders_count_completed",
	"orders_count_canceled",
	"orders_count_returned",
	"orders_buyouts_count",
	"orders_sum_rub_completed",
	"orders_sum_rub_canceled",
	"orders_sum_rub_returned",
	"orders_buyouts_sum_rub",
	"expected_buyouts_count",
	"orders_count_total_central",
	"orders_count_total_northwest",
	"orders_count_total_south_caucasus",
	"orders_count_total_volga",
	"orders_count_total_fareast",
	"orders_count_total_ural",
	"orders_count_local_central",
	"orders_count_local_northwest",
	"orders_count_local_south_caucasus",
	"orders_count_local_volga",
	"orders_count_local_fareast",
	"orders_count_local_ural",
	"localization_percent_central",
	"localization_percent_northwest",
	"localization_percent_south_caucasus",
	"localization_percent_volga",
	"localization_percent_fareast",
	"localization_percent_ural",
	"views_keywords_search",
	"clicks_keywords_search",
	"adv_sum_keywords_search",
	"cpc_keywords_search",
	"ctr_keywords_search",
	"cpm_keywords_search",
	"views_rs_cat_search",
	"clicks_rs_cat_search",
	"adv_sum_rs_cat_search",
	"cpc_rs_cat_search",
	"ctr_rs_cat_search",
	"cpm_rs_cat_search",
	"ctr_keywords_search_campaign_subject_diff",
	"log_text",
}

// regionKeys are the order-localization clusters tracked per day.
var regionKeys = []string{
	"central",
	"northwest",
	"south_caucasus",
	"volga",
	"fareast",
	"ural",
}

var textFields = map[string]bool{
	"date":        true,
	"date__nm_id": true,
	"actions":     true,
	"log_text":    true,
}

// DefaultValue returns the zero value for a checklist field: the empty
// string for the four text fields, numeric zero for everything else.
func DefaultValue(field string) any {
	if textFields[field] {
		return ""
	}
	return 0
}

// NewRow returns a fresh template row with every field set to its
// default.
func NewRow() map[string]any {
	row := make(map[string]any, len(Fields))
	for _, field := range Fields {
		row[field] = DefaultValue(field)
	}
	return row
}
