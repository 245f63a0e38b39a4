// Package format holds Telegram text formatting helpers.
package format

import "regexp"

var mdV1Specials = regexp.MustCompile("([_*`\\[])")

// EscapeV1 escapes the Markdown (v1) control characters in user-provided
// text so an odd underscore or asterisk cannot break the message entity
// parsing on send.
func EscapeV1(text string) string {
	return mdV1Specials.ReplaceAllString(text, `\$1`)
}
