package kb

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"neuroseven/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// Complex is one catalog record of a residential complex on sale.
type Complex struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	AlternativeName     string `json:"alternative_name"`
	District            string `json:"district"`
	ReadyDate           string `json:"ready_date"`
	NumberOfHouses      int    `json:"number_of_houses"`
	ComfortLevel        string `json:"comfort_level"`
	GeneralInfo         string `json:"general_info,omitempty"`
	Features            string `json:"features,omitempty"`
	FinancialConditions string `json:"financial_conditions,omitempty"`
	ManagersInfo        string `json:"managers_info,omitempty"`
}

type Developer struct {
	Name               string   `json:"name"`
	Address            string   `json:"address"`
	WorkingHours       string   `json:"working_hours"`
	CompletedComplexes []string `json:"completed_complexes"`
}

// Service serves the static sales catalog: the list of residential
// complexes, per-complex details and the developer card.
type Service struct {
	complexes []Complex
	byID      map[string]Complex
	developer Developer
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	return NewFromFile(cfg.KB.CatalogPath)
}

func NewFromFile(catalogPath string) (*Service, error) {
	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read complex catalog: %w", err)
	}

	var catalog struct {
		Complexes []Complex `json:"complexes"`
		Developer Developer `json:"developer"`
	}
	if err = json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse complex catalog: %w", err)
	}
	if len(catalog.Complexes) == 0 {
		return nil, fmt.Errorf("complex catalog is empty")
	}

	s := &Service{
		complexes: catalog.Complexes,
		developer: catalog.Developer,
		byID:      make(map[string]Complex),
	}
	for _, c := range catalog.Complexes {
		s.byID[c.ID] = c
	}

	return s, nil
}

// ListComplexes returns the shortened catalog records shown to the
// supervisor and the kb agent: no long-form descriptions.
func (s *Service) ListComplexes() []Complex {
	return pie.Map(s.complexes, func(c Complex) Complex {
		c.GeneralInfo = ""
		c.Features = ""
		c.FinancialConditions = ""
		c.ManagersInfo = ""
		return c
	})
}

// ComplexInfo returns the requested fields of one complex.
func (s *Service) ComplexInfo(id string, fields []string) (map[string]any, error) {
	c, ok := s.byID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("unknown complex id: %s", id)
	}

	all := map[string]any{
		"name":                 c.Name,
		"alternative_name":     c.AlternativeName,
		"district":             c.District,
		"ready_date":           c.ReadyDate,
		"number_of_houses":     c.NumberOfHouses,
		"comfort_level":        c.ComfortLevel,
		"general_info":         c.GeneralInfo,
		"features":             c.Features,
		"financial_conditions": c.FinancialConditions,
		"managers_info":        c.ManagersInfo,
	}

	if len(fields) == 0 {
		return all, nil
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

func (s *Service) DeveloperInfo() Developer {
	return s.developer
}

// ComplexIDs lists the known complex identifiers, e.g. for the pricing agents.
func (s *Service) ComplexIDs() []string {
	return pie.Map(s.complexes, func(c Complex) string { return c.ID })
}

// CatalogSummary is the one-line-per-complex context block injected into the
// supervisor prompt.
func (s *Service) CatalogSummary() string {
	var b strings.Builder
	for _, c := range s.ListComplexes() {
		fmt.Fprintf(&b, "- %s (%s, %q): район %s, сдача %s, домов %d, класс %s\n",
			c.ID, c.Name, c.AlternativeName, c.District, c.ReadyDate, c.NumberOfHouses, c.ComfortLevel)
	}
	return b.String()
}
