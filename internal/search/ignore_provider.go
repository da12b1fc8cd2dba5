package search

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ignoreFileNames are read in every directory, lowest priority first so later
// files can re-include with negations.
var ignoreFileNames = []string{".gitignore", ".ignore", ".rfindignore"}

// ignoreStack is the chain of rule scopes in effect for one directory of the
// walk. Each frame holds the rules declared in base (relative to the root);
// deeper frames take precedence over their parents.
type ignoreStack struct {
	base    string
	matcher *GitignoreMatcher
	parent  *ignoreStack
}

// push returns a new stack with matcher on top. The receiver is unchanged so
// sibling directories keep sharing their parent's frames.
func (s *ignoreStack) push(base string, matcher *GitignoreMatcher) *ignoreStack {
	if matcher.Len() == 0 {
		return s
	}
	return &ignoreStack{base: base, matcher: matcher, parent: s}
}

// ignored walks the frames from the deepest outwards; the first frame with a
// matching rule decides.
func (s *ignoreStack) ignored(relPath string, isDir bool) bool {
	for frame := s; frame != nil; frame = frame.parent {
		local, ok := relativeTo(frame.base, relPath)
		if !ok {
			continue
		}
		if matched, ignored := frame.matcher.matchEntry(local, isDir); matched {
			return ignored
		}
	}
	return false
}

func relativeTo(base, relPath string) (string, bool) {
	if base == "" || base == "." {
		return relPath, true
	}
	if !strings.HasPrefix(relPath, base+"/") {
		return "", false
	}
	return relPath[len(base)+1:], true
}

// loadDirectoryRules compiles the ignore files found directly in dir.
func loadDirectoryRules(dir string) *GitignoreMatcher {
	matcher := NewGitignoreMatcher()
	for _, name := range ignoreFileNames {
		addPatternFileIfExists(matcher, filepath.Join(dir, name))
	}
	return matcher
}

// loadGlobalRules compiles the rules that apply to the whole tree regardless
// of directory: the user's global excludes and the repository exclude file.
func loadGlobalRules(root string) *GitignoreMatcher {
	matcher := NewGitignoreMatcher()
	seen := make(map[string]struct{})

	add := func(candidate string) {
		if candidate == "" {
			return
		}
		if _, ok := seen[candidate]; ok {
			return
		}
		if addPatternFileIfExists(matcher, candidate) {
			seen[candidate] = struct{}{}
		}
	}

	add(coreExcludesFile(root))

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "git", "ignore"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		add(filepath.Join(home, ".gitignore"))
		add(filepath.Join(home, ".gitignore_global"))
		add(filepath.Join(home, ".config", "git", "ignore"))
	}

	add(filepath.Join(root, ".git", "info", "exclude"))
	return matcher
}

func addPatternFileIfExists(matcher *GitignoreMatcher, filePath string) bool {
	data, err := os.ReadFile(filePath)
	if err != nil || len(data) == 0 {
		return false
	}
	matcher.AddPatterns(string(data))
	return true
}

// coreExcludesFile reads core.excludesFile from the repository config at root.
func coreExcludesFile(root string) string {
	file, err := os.Open(filepath.Join(root, ".git", "config"))
	if err != nil {
		return ""
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	inCore := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inCore = strings.EqualFold(strings.Trim(line, "[] \t"), "core")
			continue
		}
		if !inCore {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "excludesfile") {
			continue
		}
		value = expandUserPath(strings.Trim(strings.TrimSpace(value), `"`))
		if value == "" {
			continue
		}
		if !filepath.IsAbs(value) {
			value = filepath.Join(root, value)
		}
		return value
	}
	return ""
}

func expandUserPath(value string) string {
	if value != "~" && !strings.HasPrefix(value, "~/") {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return value
	}
	if value == "~" {
		return home
	}
	return filepath.Join(home, value[2:])
}
