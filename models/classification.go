package models

// Classification is the terminal outcome of evaluating one candidate in one
// scan cycle. The set is closed; reports key their counters on the string
// label so the on-disk format stays stable even if ordering changes.
type Classification int

const (
	Passed Classification = iota
	Ignorable
	Error
	MinLiquidity
	McapRange
	Top5HoldersAboveTh
	LowHolderCount
	Min24hVolume
	NoBuyOutlier
)

var classificationLabels = map[Classification]string{
	Passed:             "PASSED",
	Ignorable:          "IGNORABLE",
	Error:              "ERROR",
	MinLiquidity:       "MIN_LIQUIDITY",
	McapRange:          "MCAP_RANGE",
	Top5HoldersAboveTh: "TOP_5_HOLDERS_ABOVE_TH",
	LowHolderCount:     "LOW_HOLDER_COUNT",
	Min24hVolume:       "MIN_24H_VOLUME",
	NoBuyOutlier:       "NO_BUY_OUTLIER",
}

func (c Classification) String() string {
	if label, ok := classificationLabels[c]; ok {
		return label
	}
	return "UNKNOWN"
}

// Classifications lists every terminal outcome in evaluation order.
func Classifications() []Classification {
	return []Classification{
		Passed,
		Ignorable,
		Error,
		MinLiquidity,
		McapRange,
		Top5HoldersAboveTh,
		LowHolderCount,
		Min24hVolume,
		NoBuyOutlier,
	}
}
