// internal/i18n/i18n.go
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// catalog holds one flat key to text map per language.
type catalog struct {
	mu          sync.RWMutex
	messages    map[string]map[string]string
	defaultLang string
}

var (
	global   *catalog
	loadOnce sync.Once
)

// Initialize loads every <lang>.json file under dir. Later calls are no-ops.
func Initialize(dir, defaultLang string) error {
	var err error
	loadOnce.Do(func() {
		if defaultLang == "" {
			defaultLang = "en"
		}
		c := &catalog{messages: map[string]map[string]string{}, defaultLang: defaultLang}
		if err = c.load(dir); err == nil {
			global = c
		}
	})
	return err
}

func (c *catalog) load(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no locale files in %s", dir)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", path, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(raw, &messages); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", path, err)
		}
		c.messages[strings.TrimSuffix(filepath.Base(path), ".json")] = messages
	}
	return nil
}

func (c *catalog) translate(lang, key string, args []interface{}) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	text, ok := c.messages[lang][key]
	if !ok {
		text, ok = c.messages[c.defaultLang][key]
	}
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// T translates key, falling back to the default language and then to the key.
func T(lang, key string, args ...interface{}) string {
	if global == nil {
		return key
	}
	return global.translate(lang, key, args)
}

func GetSupportedLanguages() []string {
	if global == nil {
		return []string{"en"}
	}

	global.mu.RLock()
	defer global.mu.RUnlock()
	langs := make([]string, 0, len(global.messages))
	for lang := range global.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
