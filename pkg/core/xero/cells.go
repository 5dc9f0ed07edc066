package xero

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// excelEpochOffset is the number of days between the Excel 1900 epoch and the
// Unix epoch (serial 25569 == 1970-01-01).
const excelEpochOffset = 25569

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

var cellCleaner = strings.NewReplacer("(", "", ")", "", ",", "", "$", "")

// toNumber parses a spreadsheet cell into a float. Handles parentheses
// negatives, currency symbols and thousands separators; blank, "-" and
// unparsable cells degrade to 0.
func toNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0
	}
	neg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	cleaned := cellCleaner.Replace(s)
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

// excelSerialToDate converts an Excel 1900-system serial number to a UTC date.
func excelSerialToDate(serial float64) time.Time {
	utcDays := int64(serial) - excelEpochOffset
	return time.Unix(utcDays*86400, 0).UTC()
}

var monthNumbers = map[string]int{
	"jan": 1, "january": 1,
	"feb": 2, "february": 2,
	"mar": 3, "march": 3,
	"apr": 4, "april": 4,
	"may": 5,
	"jun": 6, "june": 6,
	"jul": 7, "july": 7,
	"aug": 8, "august": 8,
	"sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10,
	"nov": 11, "november": 11,
	"dec": 12, "december": 12,
}

var (
	monthNamePattern = regexp.MustCompile(`^([A-Za-z]{3,9})\s+(\d{4})$`)
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	glSlashPattern   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
)

func monthKeyLabel(year, month int) (MonthKey, string) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	label := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
	return key, label
}

// normalizeMonthLabel turns a month column header into a stable key and a
// human label. Tries Excel serial, "Mon YYYY" (including "Sept"), then
// "M/D/YYYY"; an unrecognized header becomes its own key and label so a single
// bad cell never aborts the parse. Returns ok=false only for blank cells.
func normalizeMonthLabel(raw string) (key MonthKey, label string, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", false
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		d := excelSerialToDate(serial)
		key, label := monthKeyLabel(d.Year(), int(d.Month()))
		return key, label, true
	}

	if m := monthNamePattern.FindStringSubmatch(s); m != nil {
		name := strings.ToLower(m[1])
		year, _ := strconv.Atoi(m[2])
		mn, found := monthNumbers[name]
		if !found && len(name) >= 3 {
			mn, found = monthNumbers[name[:3]]
		}
		if found {
			key, label := monthKeyLabel(year, mn)
			return key, label, true
		}
	}

	if m := slashDatePattern.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		if year < 100 {
			year += 2000
		}
		if month >= 1 && month <= 12 {
			key, label := monthKeyLabel(year, month)
			return key, label, true
		}
	}

	// fallback: raw string is both key and label (stable, never throws)
	return s, s, true
}

// toISODate parses a GL date cell into YYYY-MM-DD. Accepts ISO dates,
// DD/MM/YYYY and Excel serials; anything else yields "".
func toISODate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if isoDatePattern.MatchString(s) {
		return s
	}
	if m := glSlashPattern.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelSerialToDate(serial).Format("2006-01-02")
	}
	return ""
}
