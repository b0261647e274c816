package filter

import "strings"

// Sanitize turns a raw backend body into reply text: escaped \n and \t
// sequences become real newlines and tabs, then every double quote is dropped.
func Sanitize(body string) string {
	body = strings.ReplaceAll(body, `\n`, "\n")
	body = strings.ReplaceAll(body, `\t`, "\t")
	return strings.ReplaceAll(body, `"`, "")
}
