package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/agbru/catlog/internal/colour"
	"github.com/agbru/catlog/internal/destination"
	apperrors "github.com/agbru/catlog/internal/errors"
	"github.com/agbru/catlog/internal/router"
)

//go:embed default_config.json
var defaultDocument []byte

// Document keys.
const (
	keyDefaultCategory = "default_category"
	keyAllMode         = "all_mode"
	keyColours         = "colours"
	keyLogFiles        = "log_files"
	keyCategories      = "log_categories"
)

// Routing is everything a routing document defines. Colours and LogFiles
// keep document order.
type Routing struct {
	DefaultCategory string
	AllMode         router.AllMode
	Colours         colour.Palette
	LogFiles        destination.Map
	Categories      router.CategoryMap
}

// Validate checks the destination and category maps.
func (r Routing) Validate() error {
	if err := r.LogFiles.Validate(); err != nil {
		return err
	}
	return r.Categories.Validate()
}

// DefaultRouting returns the built-in routing document.
func DefaultRouting() (Routing, error) {
	return parseJSON("<embedded>", defaultDocument)
}

// LoadRouting reads path as YAML (.yaml, .yml) or JSON (anything else).
// Malformed documents return a ConfigLoadError.
func LoadRouting(path string) (Routing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Routing{}, apperrors.ConfigLoadError{Path: path, Cause: err}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path, data)
	default:
		return parseJSON(path, data)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// JSON
// ─────────────────────────────────────────────────────────────────────────────

func parseJSON(path string, data []byte) (Routing, error) {
	fail := func(format string, a ...any) (Routing, error) {
		return Routing{}, apperrors.ConfigLoadError{Path: path, Cause: fmt.Errorf(format, a...)}
	}
	if !gjson.ValidBytes(data) {
		return fail("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return fail("document must be an object")
	}

	r := Routing{DefaultCategory: "default", Categories: router.CategoryMap{}}
	if v := doc.Get(keyDefaultCategory); v.Exists() {
		r.DefaultCategory = v.String()
	}
	if v := doc.Get(keyAllMode); v.Exists() {
		mode, err := router.ParseAllMode(v.String())
		if err != nil {
			return fail("%s: %v", keyAllMode, err)
		}
		r.AllMode = mode
	}

	var walkErr error
	doc.Get(keyColours).ForEach(func(k, v gjson.Result) bool {
		var spec colour.Spec
		switch {
		case v.Type == gjson.String:
			spec.Colour = v.String()
		case v.IsObject():
			if err := json.Unmarshal([]byte(v.Raw), &spec); err != nil {
				walkErr = fmt.Errorf("%s.%s: %w", keyColours, k.String(), err)
				return false
			}
		default:
			walkErr = fmt.Errorf("%s.%s: want a colour name or an object", keyColours, k.String())
			return false
		}
		r.Colours = append(r.Colours, colour.Entry{Token: k.String(), Spec: spec})
		return true
	})
	doc.Get(keyLogFiles).ForEach(func(k, v gjson.Result) bool {
		if walkErr != nil {
			return false
		}
		if v.Type != gjson.String {
			walkErr = fmt.Errorf("%s.%s: path must be a string", keyLogFiles, k.String())
			return false
		}
		r.LogFiles.Set(k.String(), v.String())
		return true
	})
	doc.Get(keyCategories).ForEach(func(k, v gjson.Result) bool {
		if walkErr != nil {
			return false
		}
		if !v.IsArray() {
			walkErr = fmt.Errorf("%s.%s: want a list of destination names", keyCategories, k.String())
			return false
		}
		var dests []string
		for _, d := range v.Array() {
			if d.Type != gjson.String {
				walkErr = fmt.Errorf("%s.%s: destination names must be strings", keyCategories, k.String())
				return false
			}
			dests = append(dests, d.String())
		}
		r.Categories[k.String()] = dests
		return true
	})
	if walkErr != nil {
		return Routing{}, apperrors.ConfigLoadError{Path: path, Cause: walkErr}
	}
	if err := r.Validate(); err != nil {
		return Routing{}, apperrors.ConfigLoadError{Path: path, Cause: err}
	}
	return r, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// YAML
// ─────────────────────────────────────────────────────────────────────────────

func parseYAML(path string, data []byte) (Routing, error) {
	r, err := decodeYAML(data)
	if err != nil {
		return Routing{}, apperrors.ConfigLoadError{Path: path, Cause: err}
	}
	if err := r.Validate(); err != nil {
		return Routing{}, apperrors.ConfigLoadError{Path: path, Cause: err}
	}
	return r, nil
}

func decodeYAML(data []byte) (Routing, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Routing{}, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return Routing{}, fmt.Errorf("document must be a mapping")
	}

	r := Routing{DefaultCategory: "default", Categories: router.CategoryMap{}}
	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i].Value, doc.Content[i+1]
		var err error
		switch key {
		case keyDefaultCategory:
			r.DefaultCategory = val.Value
		case keyAllMode:
			r.AllMode, err = router.ParseAllMode(val.Value)
		case keyColours:
			r.Colours, err = yamlColours(val)
		case keyLogFiles:
			r.LogFiles, err = yamlLogFiles(val)
		case keyCategories:
			r.Categories, err = yamlCategories(val)
		}
		if err != nil {
			return Routing{}, fmt.Errorf("%s: %w", key, err)
		}
	}
	return r, nil
}

func pairs(n *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: want a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func yamlColours(n *yaml.Node) (colour.Palette, error) {
	var p colour.Palette
	err := pairs(n, func(token string, val *yaml.Node) error {
		var spec colour.Spec
		switch val.Kind {
		case yaml.ScalarNode:
			spec.Colour = val.Value
		case yaml.MappingNode:
			if err := val.Decode(&spec); err != nil {
				return fmt.Errorf("%s: %w", token, err)
			}
		default:
			return fmt.Errorf("%s: want a colour name or a mapping", token)
		}
		p = append(p, colour.Entry{Token: token, Spec: spec})
		return nil
	})
	return p, err
}

func yamlLogFiles(n *yaml.Node) (destination.Map, error) {
	var m destination.Map
	err := pairs(n, func(name string, val *yaml.Node) error {
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("%s: path must be a string", name)
		}
		m.Set(name, val.Value)
		return nil
	})
	return m, err
}

func yamlCategories(n *yaml.Node) (router.CategoryMap, error) {
	m := router.CategoryMap{}
	err := pairs(n, func(name string, val *yaml.Node) error {
		var dests []string
		if val.Kind != yaml.SequenceNode {
			return fmt.Errorf("%s: want a list of destination names", name)
		}
		if err := val.Decode(&dests); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		m[name] = dests
		return nil
	})
	return m, err
}
