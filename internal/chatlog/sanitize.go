package chatlog

import "strings"

// lineReplacer strips the invisible marks chat exports sprinkle into lines
// and flattens the special spaces used around times (e.g. "9:05\u202fPM").
var lineReplacer = strings.NewReplacer(
	"\uFEFF", "", "\u200E", "",
	"\u200F", "", "\u202A", "",
	"\u202B", "", "\u202C", "",
	"\u202D", "", "\u202E", "",
	"\u2066", "", "\u2067", "",
	"\u2068", "", "\u2069", "",
	"\u00A0", " ", "\u202F", " ",
	"\u2009", " ",
)

func sanitizeLine(line string) string {
	return lineReplacer.Replace(line)
}
