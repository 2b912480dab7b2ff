package timeresolve

// fixedZoneOffsets is the closed table of non-IANA US zone abbreviations
// accepted under the as_entered parity profile (§4.C step 6), mapped to
// their canonical UTC offset in seconds.
var fixedZoneOffsets = map[string]int{
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}
