package classify

import (
	"regexp"
	"strings"
)

// Vendor is one entry of the ordered attribution table. A scan is attributed
// to the first vendor whose account code appears as a substring of the raw
// barcode payload, so entries with longer or more specific codes must come
// before shorter ones that could shadow them.
type Vendor struct {
	Account string
	Name    string
}

// DefaultVendors is the built-in attribution table, used when no table is
// configured.
var DefaultVendors = []Vendor{
	{Account: "9785933", Name: "WTD"},
	{Account: "978441", Name: "Summit Trading"},
	{Account: "561204", Name: "Pacific Coast Supply"},
	{Account: "48722", Name: "Riverside Goods"},
	{Account: "3157", Name: "Lakeland Distribution"},
}

// VendorUnknown is the attribution result for payloads matching no account code.
const VendorUnknown = "Unknown"

// Unknown-reason categories, used for reporting only.
const (
	CategoryUPS         = "UPS"
	CategoryFedExUnmapd = "FedEx unmapped"
	CategoryOther       = "Other"
)

// 2D label structural markers. "[)>" opens the ISO 15434 envelope, "FDEG" is
// the FedEx Ground 2D format identifier, and GS/RS/EOT are the envelope's
// control characters.
var twoDMarkers = []string{"[)>", "FDEG", "\x1d", "\x1e", "\x04"}

// upsMaxiCodeMarker is the message header of a UPS MaxiCode payload.
const upsMaxiCodeMarker = "[)>\x1e01\x1d96"

// fedexNumericRe matches the numeric FedEx tracking number shapes
// (12 to 22 digits).
var fedexNumericRe = regexp.MustCompile(`^[0-9]{12,22}$`)

// fedexPrefixes are the short alphanumeric prefixes of non-numeric FedEx
// tracking forms (door tags and freight).
var fedexPrefixes = []string{"DT", "FT", "FX"}

// Result is the outcome of classifying one raw scan.
type Result struct {
	Vendor        string
	VendorAccount string
	IsMiscan      bool
}

// Classify maps a raw barcode payload and tracking number hint to a vendor
// attribution and a miscan flag. It never fails: unrecognized input degrades
// to Unknown / non-miscan.
func Classify(rawPayload, trackingNumber string, table []Vendor) Result {
	name, account := Attribute(rawPayload, table)
	return Result{
		Vendor:        name,
		VendorAccount: account,
		IsMiscan:      IsMiscan(rawPayload, trackingNumber),
	}
}

// Attribute returns the vendor name and account code for the first table
// entry whose account code occurs as a substring of the raw payload.
// Table order wins over position in the payload.
func Attribute(rawPayload string, table []Vendor) (name, account string) {
	if len(table) == 0 {
		table = DefaultVendors
	}
	for _, v := range table {
		if v.Account != "" && strings.Contains(rawPayload, v.Account) {
			return v.Name, v.Account
		}
	}
	return VendorUnknown, ""
}

// IsMiscan reports whether a scan captured a human-readable 1D tracking
// number where a 2D structured label was expected. Both conditions must
// hold: the tracking number is FedEx-shaped AND the payload carries no 2D
// structural marker.
func IsMiscan(rawPayload, trackingNumber string) bool {
	if !looksLikeFedExTracking(trackingNumber) {
		return false
	}
	return !hasTwoDMarker(rawPayload)
}

// UnknownCategory buckets an unattributed payload for reporting. It is not
// stored on the scan.
func UnknownCategory(rawPayload, trackingNumber string) string {
	if strings.Contains(rawPayload, upsMaxiCodeMarker) || strings.HasPrefix(trackingNumber, "1Z") {
		return CategoryUPS
	}
	if strings.Contains(rawPayload, "FDEG") {
		return CategoryFedExUnmapd
	}
	return CategoryOther
}

func looksLikeFedExTracking(trackingNumber string) bool {
	if fedexNumericRe.MatchString(trackingNumber) {
		return true
	}
	for _, p := range fedexPrefixes {
		rest, ok := strings.CutPrefix(trackingNumber, p)
		if ok && len(rest) >= 10 && allDigits(rest) {
			return true
		}
	}
	return false
}

func hasTwoDMarker(rawPayload string) bool {
	for _, m := range twoDMarkers {
		if strings.Contains(rawPayload, m) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
