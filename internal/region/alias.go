package region

import (
	"strings"

	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
)

// AliasResolver maps province spellings to canonical provinces.
type AliasResolver struct {
	tables   *gazetteer.Gazetteer
	byLength []gazetteer.Alias
}

// NewAliasResolver builds a resolver over the gazetteer's alias table.
func NewAliasResolver(g *gazetteer.Gazetteer) *AliasResolver {
	return &AliasResolver{tables: g, byLength: g.AliasesByLength()}
}

// Resolve returns the province token names exactly. The nationwide sentinel
// resolves too; callers decide whether to keep it.
func (r *AliasResolver) Resolve(token string) (domain.Province, bool) {
	return r.tables.Alias(token)
}

// LongestPrefix returns the longest alias that s starts with, so 서울특별시
// wins over 서울 and 전국단위 over 전국.
func (r *AliasResolver) LongestPrefix(s string) (string, domain.Province, bool) {
	for _, a := range r.byLength {
		if strings.HasPrefix(s, a.Text) {
			return a.Text, a.Province, true
		}
	}
	return "", "", false
}
