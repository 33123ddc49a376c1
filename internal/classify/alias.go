package classify

import (
	"regexp"
	"strings"

	"github.com/ppiankov/itinera/internal/rules"
)

// shortAlias is the length at or below which an alias must match case-sensitively.
// "ADX" should not fire on "adx" inside unrelated words or prose.
const shortAlias = 3

type aliasMatcher struct {
	vendor  rules.Vendor
	order   int
	rank    int
	pattern *regexp.Regexp
}

func compileAliases(r *rules.Rules) []aliasMatcher {
	var out []aliasMatcher
	for i, v := range r.Vendors {
		for _, alias := range v.Aliases {
			out = append(out, aliasMatcher{
				vendor:  v,
				order:   i,
				rank:    r.Rank(v.Key),
				pattern: aliasPattern(alias),
			})
		}
	}
	return out
}

// aliasPattern matches an alias as a whole word with flexible inner whitespace
func aliasPattern(alias string) *regexp.Regexp {
	words := strings.Fields(alias)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	expr := `\b` + strings.Join(words, `\s+`) + `\b`
	if len(alias) > shortAlias {
		expr = `(?i)` + expr
	}
	return regexp.MustCompile(expr)
}

// match returns the strongest vendor named anywhere in texts.
// Precedence rank decides between several vendors, then declaration order.
func match(matchers []aliasMatcher, texts []string) (rules.Vendor, bool) {
	best := -1
	for i, m := range matchers {
		if best >= 0 && !stronger(m, matchers[best]) {
			continue
		}
		for _, t := range texts {
			if m.pattern.MatchString(t) {
				best = i
				break
			}
		}
	}
	if best < 0 {
		return rules.Vendor{}, false
	}
	return matchers[best].vendor, true
}

func stronger(a, b aliasMatcher) bool {
	if a.rank != b.rank {
		return a.rank < b.rank
	}
	return a.order < b.order
}
