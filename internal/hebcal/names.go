package hebcal

import "regexp"

var (
	romanSuffix = regexp.MustCompile(`(?i)^(.*?) +[IVX]+$`)
	roshHashana = regexp.MustCompile(`(?i)^(rosh hashana) +\d{4}$`)
)

// cleanName drops a trailing roman numeral ("Sukkot II" -> "Sukkot") and the
// Hebrew year after Rosh Hashana ("Rosh Hashana 5784" -> "Rosh Hashana").
func cleanName(name string) string {
	if m := romanSuffix.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	if m := roshHashana.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}
