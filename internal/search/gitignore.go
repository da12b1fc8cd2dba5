package search

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// GitignoreMatcher holds the compiled rules of one ignore scope. Paths passed
// to it are slash separated and relative to the directory the rules came from.
type GitignoreMatcher struct {
	rules []ignoreRule
}

type ignoreRule struct {
	regex    *regexp.Regexp
	negation bool
	dirOnly  bool
	hasSlash bool
}

// NewGitignoreMatcher creates an empty matcher.
func NewGitignoreMatcher() *GitignoreMatcher {
	return &GitignoreMatcher{}
}

// Len reports the number of compiled rules.
func (gm *GitignoreMatcher) Len() int {
	if gm == nil {
		return 0
	}
	return len(gm.rules)
}

// AddPatterns parses ignore-file content, one pattern per line.
func (gm *GitignoreMatcher) AddPatterns(content string) {
	for _, line := range strings.Split(content, "\n") {
		gm.addPattern(strings.TrimSuffix(line, "\r"))
	}
}

func (gm *GitignoreMatcher) addPattern(line string) {
	line = trimTrailingSpaces(line)
	if line == "" {
		return
	}
	if strings.HasPrefix(line, "#") {
		return
	}

	negation := false
	if strings.HasPrefix(line, "!") {
		negation = true
		line = line[1:]
	}

	dirOnly := false
	if strings.HasSuffix(line, "/") && !strings.HasSuffix(line, `\/`) {
		dirOnly = true
		line = strings.TrimRight(line, "/")
	}

	anchored := false
	if strings.HasPrefix(line, "/") {
		anchored = true
		line = strings.TrimLeft(line, "/")
	}
	if line == "" {
		return
	}

	hasSlash := anchored || strings.Contains(line, "/")
	regex, err := regexp.Compile("^" + globToRegex(line) + "$")
	if err != nil {
		return
	}

	gm.rules = append(gm.rules, ignoreRule{
		regex:    regex,
		negation: negation,
		dirOnly:  dirOnly,
		hasSlash: hasSlash,
	})
}

// Match reports whether relPath is ignored by this matcher alone, including
// the case where one of its parent directories is ignored.
func (gm *GitignoreMatcher) Match(relPath string, isDir bool) bool {
	relPath = strings.Trim(relPath, "/")
	if relPath == "" {
		return false
	}
	segments := strings.Split(relPath, "/")
	for i := 1; i < len(segments); i++ {
		if _, ignored := gm.matchEntry(strings.Join(segments[:i], "/"), true); ignored {
			return true
		}
	}
	_, ignored := gm.matchEntry(relPath, isDir)
	return ignored
}

// matchEntry evaluates the rules against a single entry without looking at
// its parents. matched is false when no rule applies; otherwise the last
// matching rule decides ignored.
func (gm *GitignoreMatcher) matchEntry(relPath string, isDir bool) (matched, ignored bool) {
	if gm == nil {
		return false, false
	}
	base := path.Base(relPath)
	for i := len(gm.rules) - 1; i >= 0; i-- {
		rule := gm.rules[i]
		if rule.dirOnly && !isDir {
			continue
		}
		target := base
		if rule.hasSlash {
			target = relPath
		}
		if rule.regex.MatchString(target) {
			return true, !rule.negation
		}
	}
	return false, false
}

// trimTrailingSpaces drops trailing spaces that are not escaped with a backslash.
func trimTrailingSpaces(line string) string {
	i := len(line) - 1
	for i >= 0 && line[i] == ' ' {
		backslashes := 0
		for j := i - 1; j >= 0 && line[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			break
		}
		i--
	}
	return line[:i+1]
}

// globToRegex translates gitignore glob syntax. "*" and "?" never cross a
// slash, "**/" spans any number of directories, a trailing "/**" matches
// everything below, and "[!...]" is a negated class.
func globToRegex(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				atStart := i == 0 || pattern[i-1] == '/'
				switch {
				case atStart && i+2 < len(pattern) && pattern[i+2] == '/':
					b.WriteString("(?:.*/)?")
					i += 2
					continue
				case atStart && i+2 == len(pattern):
					b.WriteString(".*")
					i++
					continue
				}
				// A "**" that is not a whole segment behaves like "*".
				i++
			}
			b.WriteString("[^/]*")
		case '?':
			b.WriteString("[^/]")
		case '[':
			end := closingBracket(pattern, i)
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : end]
			b.WriteByte('[')
			if strings.HasPrefix(class, "!") || strings.HasPrefix(class, "^") {
				b.WriteByte('^')
				class = class[1:]
			}
			b.WriteString(strings.ReplaceAll(class, `\`, `\\`))
			b.WriteByte(']')
			i = end
		case '\\':
			if i+1 < len(pattern) {
				i++
				writeLiteralByte(&b, pattern[i])
			} else {
				b.WriteString(`\\`)
			}
		default:
			writeLiteralByte(&b, c)
		}
	}
	return b.String()
}

func writeLiteralByte(b *strings.Builder, c byte) {
	if c >= utf8.RuneSelf {
		b.WriteByte(c)
		return
	}
	b.WriteString(regexp.QuoteMeta(string(rune(c))))
}

func closingBracket(pattern string, start int) int {
	i := start + 1
	if i < len(pattern) && (pattern[i] == '!' || pattern[i] == '^') {
		i++
	}
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for ; i < len(pattern); i++ {
		if pattern[i] == ']' {
			return i
		}
	}
	return -1
}
