// Package redirects parses and validates the redirect map file. An invalid
// table is fatal: the batch build refuses to emit anything from a rule set
// it cannot fully honor.
package redirects

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegen/internal/util/sets"
)

// Rule is one redirect: from a root-absolute path to a target.
type Rule struct {
	From       string
	To         string
	StatusCode int
}

// IsExternal reports whether the rule targets another origin.
func (r Rule) IsExternal() bool {
	return strings.Contains(r.To, "://") || strings.HasPrefix(r.To, "//")
}

var validStatus = sets.New(301, 302, 303, 307, 308)

// Options gate external redirect targets.
type Options struct {
	AllowExternal  bool
	AllowedDomains []string
}

// mapping is the YAML shape of one target: either a bare string or an
// object with an explicit status code.
type mapping struct {
	To         string `yaml:"to"`
	StatusCode int    `yaml:"statusCode"`
}

func (m *mapping) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.To = node.Value
		return nil
	}
	type plain mapping
	return node.Decode((*plain)(m))
}

// ParseFile loads and validates the redirect map. A missing file yields an
// empty rule set; a present-but-invalid one is an error, never silently
// dropped rules.
func ParseFile(path string, opts Options) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read redirect map %s: %w", path, err)
	}
	return Parse(data, opts)
}

// Parse validates raw YAML of the form `from: to` or
// `from: {to: ..., statusCode: ...}`.
func Parse(data []byte, opts Options) ([]Rule, error) {
	var raw map[string]mapping
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse redirect map: %w", err)
	}

	rules := make([]Rule, 0, len(raw))
	for from, m := range raw {
		rule := Rule{From: from, To: m.To, StatusCode: m.StatusCode}
		if rule.StatusCode == 0 {
			rule.StatusCode = 301
		}
		if err := validate(rule, opts); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].From < rules[j].From })
	return rules, nil
}

func validate(r Rule, opts Options) error {
	if !strings.HasPrefix(r.From, "/") {
		return fmt.Errorf("redirect source %q must be root-absolute", r.From)
	}
	if r.To == "" {
		return fmt.Errorf("redirect %q has no target", r.From)
	}
	if !validStatus.Has(r.StatusCode) {
		return fmt.Errorf("redirect %q has invalid status code %d", r.From, r.StatusCode)
	}
	if r.IsExternal() {
		if !opts.AllowExternal {
			return fmt.Errorf("redirect %q targets external URL %q but external redirects are disabled", r.From, r.To)
		}
		if len(opts.AllowedDomains) > 0 {
			host, err := externalHost(r.To)
			if err != nil {
				return fmt.Errorf("redirect %q: %w", r.From, err)
			}
			if !domainAllowed(host, opts.AllowedDomains) {
				return fmt.Errorf("redirect %q targets %q outside the allowed domains", r.From, host)
			}
		}
	}
	return nil
}

func externalHost(target string) (string, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("unparseable external target %q", target)
	}
	return u.Hostname(), nil
}

func domainAllowed(host string, allowed []string) bool {
	for _, d := range allowed {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
