package grid

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/soderasen-au/go-common/util"
)

// ParseSerialDateTime converts a spreadsheet serial number (days since 1899-12-30) to time.
func ParseSerialDateTime(serialNumber float64) time.Time {
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return epoch.Add(time.Duration(serialNumber * float64(24*time.Hour)))
}

// GetDateFormat translates a `YYYY-MM-DD hh:mm:ss` style pattern to a Go layout.
func GetDateFormat(dateFmt string) string {
	goFmt := dateFmt
	goFmt = strings.ReplaceAll(goFmt, "YYYY", "2006")
	goFmt = strings.ReplaceAll(goFmt, "YY", "06")
	goFmt = strings.ReplaceAll(goFmt, "MMMM", "January")
	goFmt = strings.ReplaceAll(goFmt, "MMM", "Jan")
	goFmt = strings.ReplaceAll(goFmt, "MM", "01")
	goFmt = strings.ReplaceAll(goFmt, "M", "1")
	goFmt = strings.ReplaceAll(goFmt, "WWWW", "Monday")
	goFmt = strings.ReplaceAll(goFmt, "WWW", "Mon")
	goFmt = strings.ReplaceAll(goFmt, "W", "Mon")
	goFmt = strings.ReplaceAll(goFmt, "DD", "02")
	goFmt = strings.ReplaceAll(goFmt, "D", "2")

	if strings.Contains(goFmt, "tt") {
		goFmt = strings.ReplaceAll(goFmt, "hh", "03")
		goFmt = strings.ReplaceAll(goFmt, "tt", "PM")
	} else {
		goFmt = strings.ReplaceAll(goFmt, "hh", "15")
	}
	goFmt = strings.ReplaceAll(goFmt, "mm", "04")
	goFmt = strings.ReplaceAll(goFmt, "ss", "05")
	goFmt = strings.ReplaceAll(goFmt, "f", "0")

	return goFmt
}

func FormatDate(num float64, dateFmt string) string {
	return ParseSerialDateTime(num).Format(GetDateFormat(dateFmt))
}

// FormatNum renders num with a `#<thousand-sep>##0<decimal-sep>00` pattern, e.g. `#,##0.00`.
func FormatNum(num float64, fmtStr string) (string, *util.Result) {
	if fmtStr == "" || fmtStr[0] != '#' {
		return "", util.MsgError("fmtStr", "not leading with '#'")
	}
	intPos := strings.Index(fmtStr, "##0")
	if intPos < 0 {
		return "", util.MsgError("fmtStr", "no integer descriptor")
	}
	thousandSep := fmtStr[1:intPos]
	decPart := fmtStr[intPos+3:]
	precision := 0
	if len(decPart) > 0 {
		precision = len(decPart) - 1
	}

	sign := ""
	if num < 0 {
		sign = "-"
		num = -num
	}
	// integer patterns drop the fraction
	if precision == 0 {
		num = math.Trunc(num)
	}
	numString := strconv.FormatFloat(num, 'f', precision, 64)
	parts := strings.SplitN(numString, ".", 2)

	intPart := parts[0]
	groups := make([]string, 0, len(intPart)/3+1)
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)
	ret := sign + strings.Join(groups, thousandSep)

	if precision > 0 && len(parts) == 2 {
		ret += decPart[0:1] + parts[1]
	}
	return ret, nil
}
