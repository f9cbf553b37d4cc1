package pipeline

import "lobrecon/feature"

// Field codes the sequential and cross-sectional workers agree on. The
// concrete feature formulas this system trains on are out of scope here
// (domain/lob.FeatureSink is the seam a separate component plugs into); what
// this package writes is the small set of book facts and run-bar samples
// needed to exercise the feature store's write path end to end, plus the
// link indices L1/L2 rows need to find their L0 parent.
const (
	FieldMidPrice     = "mid_price"
	FieldSpread       = "spread"
	FieldBidDepth     = "bid_depth"
	FieldAskDepth     = "ask_depth"
	FieldImbalanceRaw = "imbalance_raw"
	FieldImbalance    = "imbalance"
	FieldBarVolumeRaw = "bar_volume_raw"
	FieldBarSign      = "bar_sign"

	LinkL1 = "link_l1"
	LinkL2 = "link_l2"
)

// crossSectionalSources maps a CrossSectional field to the raw TimeSeries
// field the cross-sectional worker reads across every asset before
// transforming it, since Schema itself only records a field's own kind and
// normalization, not where its input comes from.
var crossSectionalSources = map[string]string{
	FieldImbalance: FieldImbalanceRaw,
	FieldBarSign:   FieldBarVolumeRaw,
}

// L0Schema is the per-second book-fact layout every sequential worker
// writes into directly. Only imbalance gets a cross-sectional counterpart;
// mid_price/spread/depth stay raw per-instrument facts.
func L0Schema() *feature.Schema {
	return feature.NewSchema([]feature.FieldDecl{
		{Code: FieldMidPrice, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "mid of best bid/ask"},
		{Code: FieldSpread, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "best ask minus best bid"},
		{Code: FieldBidDepth, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "summed net size, top five bid levels"},
		{Code: FieldAskDepth, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "summed net size, top five ask levels"},
		{Code: FieldImbalanceRaw, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "bid depth minus ask depth over their sum"},
		{Code: FieldImbalance, Kind: feature.KindCrossSectional, Normalization: feature.NormRank, Desc: "imbalance_raw, ranked across instruments at this time index"},
		{Code: LinkL1, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "this row's matching L1 time index"},
		{Code: LinkL2, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "this row's matching L2 time index"},
	})
}

// BarSchema is the run-bar layout L1 and L2 stores share: one signed
// volume column per sampled bar, cross-sectionally normalized into
// bar_sign the same way imbalance is at L0.
func BarSchema() *feature.Schema {
	return feature.NewSchema([]feature.FieldDecl{
		{Code: FieldBarVolumeRaw, Kind: feature.KindTimeSeries, Normalization: feature.NormNone, Desc: "signed volume of the run bar landing in this bucket"},
		{Code: FieldBarSign, Kind: feature.KindCrossSectional, Normalization: feature.NormInverseNormalCDF, Desc: "bar_volume_raw, inverse-normal-CDF transformed across instruments"},
	})
}
