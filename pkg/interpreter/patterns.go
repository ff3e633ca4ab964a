package interpreter

import (
	"regexp"
	"strings"
	"sync"
)

// RegexpMatcher is the default PatternMatcher. It translates Vim's "magic"
// pattern syntax into RE2 and caches compiled expressions.
type RegexpMatcher struct {
	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// Splitter is implemented by pattern matchers that also back split().
type Splitter interface {
	Split(pattern, text string) ([]string, error)
}

func NewRegexpMatcher() *RegexpMatcher {
	return &RegexpMatcher{cache: make(map[string]*regexp.Regexp)}
}

func (m *RegexpMatcher) Matches(pattern, text string, ignoreCase bool) (bool, error) {
	re, err := m.compile(pattern, ignoreCase)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}

// Split cuts text at every match of pattern, as split() does before dropping
// empty edge items.
func (m *RegexpMatcher) Split(pattern, text string) ([]string, error) {
	re, err := m.compile(pattern, false)
	if err != nil {
		return nil, err
	}
	return re.Split(text, -1), nil
}

func (m *RegexpMatcher) compile(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	key := pattern
	if ignoreCase {
		key = "\x00i" + pattern
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if re, ok := m.cache[key]; ok {
		return re, nil
	}
	translated, forced, forcedCase := translateVimPattern(pattern)
	if forced {
		ignoreCase = forcedCase
	}
	if ignoreCase {
		translated = "(?i)" + translated
	}
	re, err := regexp.Compile(translated)
	if err != nil {
		return nil, newScriptError("E486", "Pattern not found: %s", pattern)
	}
	m.cache[key] = re
	return re, nil
}

// translateVimPattern rewrites a Vim pattern into RE2 syntax. forced is set
// when the pattern carries \c or \C, with ignoreCase reporting which.
func translateVimPattern(pattern string) (out string, forced bool, ignoreCase bool) {
	var b strings.Builder
	veryMagic := false
	inClass := false
	for idx := 0; idx < len(pattern); idx++ {
		c := pattern[idx]
		if inClass {
			if c == ']' {
				inClass = false
			}
			if c == '\\' && idx+1 < len(pattern) {
				b.WriteByte(c)
				idx++
				b.WriteByte(pattern[idx])
				continue
			}
			b.WriteByte(c)
			continue
		}
		if c == '\\' && idx+1 < len(pattern) {
			idx++
			next := pattern[idx]
			switch next {
			case 'c':
				forced, ignoreCase = true, true
			case 'C':
				forced, ignoreCase = true, false
			case 'v':
				veryMagic = true
			case 'm', 'M', 'V':
				veryMagic = false
			case '<', '>':
				b.WriteString(`\b`)
			case '%':
				if idx+1 < len(pattern) && pattern[idx+1] == '(' {
					idx++
					b.WriteString("(?:")
				} else {
					b.WriteString("%")
				}
			case '{':
				if veryMagic {
					b.WriteString(`\{`)
					continue
				}
				idx = writeBraceQuantifier(&b, pattern, idx)
			case '(', ')', '|', '+', '?', '=', '}':
				if veryMagic {
					b.WriteByte('\\')
					b.WriteByte(next)
					continue
				}
				switch next {
				case '(':
					b.WriteString("(")
				case ')':
					b.WriteString(")")
				case '|':
					b.WriteString("|")
				case '=', '?':
					b.WriteString("?")
				case '+':
					b.WriteString("+")
				case '}':
					b.WriteString(`\}`)
				}
			case 'a':
				b.WriteString("[A-Za-z]")
			case 'A':
				b.WriteString("[^A-Za-z]")
			case 'l':
				b.WriteString("[a-z]")
			case 'L':
				b.WriteString("[^a-z]")
			case 'u':
				b.WriteString("[A-Z]")
			case 'U':
				b.WriteString("[^A-Z]")
			case 'h':
				b.WriteString("[A-Za-z_]")
			case 'x':
				b.WriteString("[0-9A-Fa-f]")
			case 'o':
				b.WriteString("[0-7]")
			case 'e':
				b.WriteString(`\x1b`)
			case 't':
				b.WriteString(`\t`)
			case 'n':
				b.WriteString(`\n`)
			case 'r':
				b.WriteString(`\r`)
			case 's', 'S', 'd', 'D', 'w', 'W':
				b.WriteByte('\\')
				b.WriteByte(next)
			case '/':
				b.WriteByte('/')
			default:
				b.WriteString(regexp.QuoteMeta(string(next)))
			}
			continue
		}
		switch c {
		case '[':
			inClass = true
			b.WriteByte(c)
		case '{':
			if veryMagic {
				idx = writeBraceQuantifier(&b, pattern, idx)
			} else {
				b.WriteString(`\{`)
			}
		case '(', ')', '|', '+', '?', '}':
			if veryMagic {
				b.WriteByte(c)
			} else {
				b.WriteByte('\\')
				b.WriteByte(c)
			}
		case '=':
			if veryMagic {
				b.WriteByte('?')
			} else {
				b.WriteByte(c)
			}
		case '<', '>':
			if veryMagic {
				b.WriteString(`\b`)
			} else {
				b.WriteByte(c)
			}
		case '~':
			b.WriteString(`~`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), forced, ignoreCase
}

// writeBraceQuantifier translates the multi starting at pattern[open] ('{')
// and returns the index of its closing brace. Vim allows "{}" for "*", "{,m}"
// for "{0,m}" and a leading '-' for the non-greedy form.
func writeBraceQuantifier(b *strings.Builder, pattern string, open int) int {
	end := open + 1
	for end < len(pattern) && pattern[end] != '}' {
		end++
	}
	if end >= len(pattern) {
		b.WriteString(`\{`)
		return open
	}
	body := strings.TrimSuffix(pattern[open+1:end], `\`)
	lazy := strings.HasPrefix(body, "-")
	body = strings.TrimPrefix(body, "-")
	switch {
	case body == "" || body == ",":
		b.WriteString("*")
	case strings.HasPrefix(body, ","):
		b.WriteString("{0" + body + "}")
	default:
		b.WriteString("{" + body + "}")
	}
	if lazy {
		b.WriteString("?")
	}
	return end
}
