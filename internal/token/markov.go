package token

import "math/rand/v2"

// successor is one weighted continuation of an N-token prefix.
type successor struct {
	token  string
	weight int
}

// MarkovModel maps an N-token prefix to a weighted successor set, built
// from a fully materialized dictionary.
type MarkovModel struct {
	order       int
	transitions map[string][]successor
	starts      []string // prefixes seen at least once, for restart/empty lookups
}

// BuildMarkov constructs an order-N markov model from the dictionary's
// token sequence, counting each observed (prefix -> next token)
// transition as one unit of weight.
func BuildMarkov(d *Dictionary, order int) (*MarkovModel, error) {
	if order < 1 {
		order = 1
	}
	if d.Len() <= order {
		return nil, ErrEmptyDictionary
	}
	m := &MarkovModel{order: order, transitions: make(map[string][]successor)}
	for i := 0; i+order < d.Len(); i++ {
		prefix := prefixKey(d.tokens[i : i+order])
		next := d.tokens[i+order]
		if _, seen := m.transitions[prefix]; !seen {
			m.starts = append(m.starts, prefix)
		}
		m.bump(prefix, next)
	}
	return m, nil
}

func prefixKey(toks []string) string {
	key := ""
	for i, t := range toks {
		if i > 0 {
			key += "\x00"
		}
		key += t
	}
	return key
}

func (m *MarkovModel) bump(prefix, next string) {
	row := m.transitions[prefix]
	for i := range row {
		if row[i].token == next {
			row[i].weight++
			m.transitions[prefix] = row
			return
		}
	}
	m.transitions[prefix] = append(row, successor{token: next, weight: 1})
}

// sample picks a successor by cumulative-weight draw; ties broken by
// weight then insertion order, which falls out naturally since
// successor entries are appended in first-seen order and the cumulative
// walk stops at the first entry whose running total reaches the draw.
func (m *MarkovModel) sample(prefix string, rng *rand.Rand) (string, bool) {
	row, ok := m.transitions[prefix]
	if !ok || len(row) == 0 {
		return "", false
	}
	total := 0
	for _, s := range row {
		total += s.weight
	}
	draw := rng.IntN(total)
	cum := 0
	for _, s := range row {
		cum += s.weight
		if draw < cum {
			return s.token, true
		}
	}
	return row[len(row)-1].token, true
}

// MarkovSource samples successor tokens given the previous `order`
// tokens (the model's prefix length).
type MarkovSource struct {
	model  *MarkovModel
	window []string
	rng    *rand.Rand
	seed   int64
	hasSeed bool

	enc   Encoding
	scope NewlineScope
	style NewlineStyle
}

// NewMarkov builds a markov-sampling source starting from the model's
// first observed prefix, or, when a seed is set, from the observed
// prefix at index seed mod the number of distinct prefixes.
func NewMarkov(m *MarkovModel, enc Encoding, scope NewlineScope, style NewlineStyle, seed int64, hasSeed bool) *MarkovSource {
	ms := &MarkovSource{
		model:   m,
		enc:     enc,
		scope:   scope,
		style:   style,
		seed:    seed,
		hasSeed: hasSeed,
		rng:     newRand(seed, hasSeed),
	}
	ms.resetWindow()
	return ms
}

func (m *MarkovSource) resetWindow() {
	if len(m.model.starts) == 0 {
		m.window = nil
		return
	}
	idx := 0
	if m.hasSeed {
		idx = int(uint64(m.seed) % uint64(len(m.model.starts)))
	}
	first := m.model.starts[idx]
	m.window = splitPrefix(first)
}

func splitPrefix(key string) []string {
	var out []string
	cur := ""
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(key[i])
	}
	out = append(out, cur)
	return out
}

func (m *MarkovSource) next() string {
	prefix := prefixKey(m.window)
	tok, ok := m.model.sample(prefix, m.rng)
	if !ok {
		// Fallen off the trained graph: restart from a known prefix.
		m.resetWindow()
		prefix = prefixKey(m.window)
		tok, ok = m.model.sample(prefix, m.rng)
		if !ok {
			return ""
		}
	}
	m.window = append(m.window[1:], tok)
	return tok
}

func (m *MarkovSource) NextChunk(max int, maxTokens int) ([]byte, int, error) {
	if max <= 0 {
		return nil, 0, nil
	}
	out := make([]byte, 0, max)
	tokens := 0
	for maxTokens <= 0 || tokens < maxTokens {
		raw := m.next()
		if raw == "" {
			break
		}
		tok := applyNewline(encode(raw, m.enc), m.scope, m.style)
		if len(out)+len(tok) > max {
			if tokens == 0 {
				// The first sampled token alone is longer than the
				// chunk budget; emit a truncated prefix so forward
				// progress is always made, matching word/dict sources
				// rather than signaling end-of-stream.
				n := max
				if n > len(tok) {
					n = len(tok)
				}
				out = append(out, tok[:n]...)
			}
			break
		}
		out = append(out, tok...)
		tokens++
	}
	return out, tokens, nil
}

func (m *MarkovSource) Restart() {
	m.rng = newRand(m.seed, m.hasSeed)
	m.resetWindow()
}
