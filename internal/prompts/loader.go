// Package prompts holds the LLM prompt templates, embedded at compile time.
// A template file is a JSON object of key to template text; placeholders
// take the form {{.Name}}.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

// templateFile is one parsed prompt file. Embedded files never change, so
// each is parsed at most once.
type templateFile struct {
	once      sync.Once
	templates map[string]string
	err       error
}

var (
	filesMu sync.Mutex
	files   = make(map[string]*templateFile)
)

func load(filename string) (map[string]string, error) {
	filesMu.Lock()
	f, ok := files[filename]
	if !ok {
		f = &templateFile{}
		files[filename] = f
	}
	filesMu.Unlock()

	f.once.Do(func() {
		data, err := promptFiles.ReadFile(filename)
		if err != nil {
			f.err = fmt.Errorf("failed to read prompt file %s: %w", filename, err)
			return
		}
		if err := json.Unmarshal(data, &f.templates); err != nil {
			f.err = fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
		}
	})
	return f.templates, f.err
}

// Get returns the raw template stored under key in filename.
func Get(filename, key string) (string, error) {
	templates, err := load(filename)
	if err != nil {
		return "", err
	}
	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// Render fills the template stored under key with data. Every placeholder
// must have a value; extra data entries are ignored.
func Render(filename, key string, data map[string]string) (string, error) {
	tmpl, err := Get(filename, key)
	if err != nil {
		return "", err
	}

	var missing []string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		value, ok := data[name]
		if !ok {
			missing = append(missing, name)
			return match
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt %s/%s: no value for %s", filename, key, strings.Join(missing, ", "))
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names of a template, sorted.
func Placeholders(filename, key string) ([]string, error) {
	tmpl, err := Get(filename, key)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	sort.Strings(names)
	return names, nil
}

// Keys returns the template keys of a file, sorted.
func Keys(filename string) ([]string, error) {
	templates, err := load(filename)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
