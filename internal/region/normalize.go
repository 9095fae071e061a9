package region

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// separators are replaced by a space before matching. Full-width forms are
// listed explicitly because NFC does not fold them.
const separators = `,.·・/\|()[]{}<>-_:;~'"` +
	"，．／＼｜（）［］｛｝＜＞－＿：；～＇＂" +
	"「」『』【】〈〉《》‘’“”"

var toSpace = runes.Map(func(r rune) rune {
	if strings.ContainsRune(separators, r) {
		return ' '
	}
	return r
})

// Normalize NFC-folds s, replaces separator punctuation with spaces and
// collapses runs of whitespace into one space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFC, toSpace)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = norm.NFC.String(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// administrative suffixes stripped from city and district tokens.
var citySuffixes = []string{"시", "군", "구"}

// town suffixes, stripped only when the remainder is a known place.
var townSuffixes = []string{"읍", "면"}

// metro suffixes stripped from bare metropolitan names, longest first.
var metroSuffixes = []string{"특별자치시", "특별시", "광역시", "시"}

// stripCitySuffix removes one trailing 시/군/구 when at least one rune
// remains. 도 is never stripped so names like 진도 survive.
func stripCitySuffix(token string) string {
	return stripSuffix(token, citySuffixes)
}

func stripSuffix(token string, suffixes []string) string {
	for _, sfx := range suffixes {
		if rest, ok := strings.CutSuffix(token, sfx); ok && rest != "" {
			return rest
		}
	}
	return token
}

// adminSuffixes are remainders that carry no place name of their own, as in
// 경기도 split into the alias 경기 and 도.
var adminSuffixes = map[string]bool{
	"시": true, "도": true, "군": true, "구": true,
	"특별시": true, "광역시": true, "특별자치시": true, "특별자치도": true,
}

func isAdminSuffix(s string) bool {
	return adminSuffixes[s]
}
