package tags

import (
	"sort"
	"strings"
)

// Config drives the provider-tag to display-tag conversion.
type Config struct {
	// Ignore lists raw provider tags dropped before any conversion.
	Ignore []string
	// StripSuffix is a franchise qualifier removed from each raw tag,
	// e.g. "_(genshin_impact)".
	StripSuffix string
	// Renames maps converted display tokens to canonical short names.
	Renames map[string]string
	// PriorityToken is the display token that always sorts first.
	PriorityToken string
	// PriorityAlias is a localized alias inserted right after the priority
	// token when it is present.
	PriorityAlias string
	// Marker prefixes every token in the output, e.g. "#".
	Marker string
	// Separator joins the marked tokens, e.g. " ".
	Separator string
}

// Normalizer converts raw provider tag strings into a deterministic,
// ordered, de-duplicated display tag string.
type Normalizer struct {
	cfg    Config
	ignore map[string]struct{}
}

// New builds a Normalizer from config.
func New(cfg Config) *Normalizer {
	ignore := make(map[string]struct{}, len(cfg.Ignore))
	for _, tag := range cfg.Ignore {
		ignore[tag] = struct{}{}
	}
	return &Normalizer{cfg: cfg, ignore: ignore}
}

// Normalize turns a whitespace-separated provider tag string into the display
// form. The same input always yields the same output: the token order is a
// stable sort on (rank, token), never container iteration order. An input
// with no surviving tags yields the empty string, which is a valid state.
func (n *Normalizer) Normalize(raw string) string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, tag := range strings.Fields(raw) {
		if _, skip := n.ignore[tag]; skip {
			continue
		}
		token := n.displayToken(tag)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	if n.cfg.PriorityAlias != "" {
		if _, ok := seen[n.cfg.PriorityToken]; ok {
			if _, dup := seen[n.cfg.PriorityAlias]; !dup {
				tokens = append(tokens, n.cfg.PriorityAlias)
			}
		}
	}

	sort.Slice(tokens, func(i, j int) bool {
		ri, rj := n.rank(tokens[i]), n.rank(tokens[j])
		if ri != rj {
			return ri < rj
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) == 0 {
		return ""
	}

	marked := make([]string, len(tokens))
	for i, token := range tokens {
		marked[i] = n.cfg.Marker + token
	}
	return strings.Join(marked, n.cfg.Separator)
}

func (n *Normalizer) displayToken(tag string) string {
	tag = strings.TrimSuffix(tag, n.cfg.StripSuffix)

	var b strings.Builder
	for _, word := range strings.Split(tag, "_") {
		if word == "" {
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(word[1:])
	}
	token := b.String()

	if renamed, ok := n.cfg.Renames[token]; ok {
		return renamed
	}
	return token
}

func (n *Normalizer) rank(token string) int {
	switch token {
	case n.cfg.PriorityToken:
		return 0
	case n.cfg.PriorityAlias:
		return 1
	default:
		return 2
	}
}
