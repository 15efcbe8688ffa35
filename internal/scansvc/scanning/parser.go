package scanning

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxQuantity is the largest quantity a SKU line can hold (INTEGER column).
const MaxQuantity = math.MaxInt32

// ScanEntry is one validated scan: a SKU code and how many pieces were scanned.
type ScanEntry struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

// A scan token is P<sku>Q<qty> or Q<qty>P<sku>. The groups are deliberately loose so a bad
// quantity or an empty code is reported as such instead of as an unrecognized token.
var scanTokenRe = regexp.MustCompile(`^(?i)(?:P([^PQ\r\n]*)Q([^PQ\r\n]*)|Q([^PQ\r\n]*)P([^PQ\r\n]*))$`)

// ParseScan turns one scanned token into a ScanEntry.
func ParseScan(raw string) (ScanEntry, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ScanEntry{}, Validation("scan input is required")
	}

	m := scanTokenRe.FindStringSubmatch(token)
	if m == nil {
		return ScanEntry{}, Validation("unrecognized scan %q: expected P<sku>Q<qty> or Q<qty>P<sku>", token)
	}

	code, qty := m[1], m[2]
	if strings.HasPrefix(strings.ToUpper(token), "Q") {
		code, qty = m[4], m[3]
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return ScanEntry{}, Validation("sku code after 'P' is required")
	}
	// text columns reject NUL and invalid UTF-8
	if !utf8.ValidString(code) || strings.ContainsFunc(code, unicode.IsControl) {
		return ScanEntry{}, Validation("sku code %q contains unreadable characters", code)
	}

	quantity, err := parseQuantity(qty)
	if err != nil {
		return ScanEntry{}, err
	}

	return ScanEntry{Code: code, Quantity: quantity}, nil
}

// ParseFields accepts the older two-field request where the code and the quantity are scanned
// separately ("P100", "Q5"). Both fields go through ParseScan.
func ParseFields(skuCode, quantity string) (ScanEntry, error) {
	skuCode = strings.TrimSpace(skuCode)
	quantity = strings.TrimSpace(quantity)
	if skuCode == "" {
		return ScanEntry{}, Validation("sku code is required")
	}
	if quantity == "" {
		return ScanEntry{}, Validation("quantity is required")
	}
	return ParseScan(skuCode + quantity)
}

func parseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, Validation("quantity after 'Q' is required")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, Validation("quantity %q must be a whole number", s)
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > MaxQuantity {
		return 0, Validation("quantity %s exceeds the maximum of %d", s, MaxQuantity)
	}
	if n <= 0 {
		return 0, Validation("quantity must be greater than zero")
	}
	return int(n), nil
}
