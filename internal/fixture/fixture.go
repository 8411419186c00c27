// Package fixture loads the in-memory CRM and ERP records used in mock mode
// and in demos.
package fixture

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/workflow-cli/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

// Set is a collection of fixture records.
type Set struct {
	Leads    []model.Lead   `yaml:"leads"`
	Tickets  []model.Ticket `yaml:"tickets"`
	Partners []Partner      `yaml:"partners"`
}

// Partner is an ERP business partner together with the CRM keys (company
// names, account ids) it is known under.
type Partner struct {
	Keys       []string         `yaml:"keys"`
	Enrichment model.Enrichment `yaml:"enrichment"`
}

// Default returns the built-in fixture set.
func Default() (*Set, error) {
	return parse(defaultYAML, "default")
}

// Load reads a fixture set from a YAML file. An empty path returns the
// built-in set.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: read %s", path)
	}
	return parse(data, path)
}

func parse(data []byte, name string) (*Set, error) {
	var wrapper struct {
		Fixtures Set `yaml:"fixtures"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "fixture: parse %s", name)
	}
	set := &wrapper.Fixtures
	for i, l := range set.Leads {
		if l.ID == "" {
			return nil, eris.Errorf("fixture: %s: lead %d has no Id", name, i)
		}
	}
	for i, t := range set.Tickets {
		if t.ID == "" {
			return nil, eris.Errorf("fixture: %s: ticket %d has no Id", name, i)
		}
	}
	return set, nil
}

// Lead returns the lead with the given id.
func (s *Set) Lead(id string) (model.Lead, bool) {
	for _, l := range s.Leads {
		if l.ID == id {
			return l, true
		}
	}
	return model.Lead{}, false
}

// Ticket returns the ticket with the given id or case number.
func (s *Set) Ticket(id string) (model.Ticket, bool) {
	for _, t := range s.Tickets {
		if t.ID == id || (t.CaseNumber != "" && t.CaseNumber == id) {
			return t, true
		}
	}
	return model.Ticket{}, false
}

// NewestLead returns the most recently created lead in status New.
func (s *Set) NewestLead() (model.Lead, bool) {
	var open []model.Lead
	for _, l := range s.Leads {
		if strings.EqualFold(l.Status, "New") {
			open = append(open, l)
		}
	}
	if len(open) == 0 {
		return model.Lead{}, false
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].CreatedDate > open[j].CreatedDate })
	return open[0], true
}

// NewestTicket returns the most recently created ticket in status New.
func (s *Set) NewestTicket() (model.Ticket, bool) {
	var open []model.Ticket
	for _, t := range s.Tickets {
		if strings.EqualFold(t.Status, "New") {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return model.Ticket{}, false
	}
	sort.SliceStable(open, func(i, j int) bool { return open[i].CreatedDate > open[j].CreatedDate })
	return open[0], true
}

// Partner returns the enrichment for the first partner known under key.
// Matching ignores case and surrounding whitespace.
func (s *Set) Partner(key string) (*model.Enrichment, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	for _, p := range s.Partners {
		for _, k := range p.Keys {
			if strings.EqualFold(strings.TrimSpace(k), key) {
				enr := p.Enrichment
				return &enr, true
			}
		}
	}
	return nil, false
}
