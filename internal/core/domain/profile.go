package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Role names the meaning of a column independently of its header in a given revision
// of the source spreadsheet.
type Role string

const (
	RoleKey        Role = "key"
	RoleStatus     Role = "status"
	RoleUnit       Role = "unit"
	RoleCategory   Role = "category"
	RoleAssignee   Role = "assignee"
	RoleIntake     Role = "intake"
	RoleEscalation Role = "escalation"
	RoleCreated    Role = "created"
	RoleCompleted  Role = "completed"
)

// Roles lists every known role in display order.
var Roles = []Role{
	RoleKey, RoleStatus, RoleUnit, RoleCategory, RoleAssignee,
	RoleIntake, RoleEscalation, RoleCreated, RoleCompleted,
}

// LabelMap rewrites raw values into display labels. Unmapped values pass through.
type LabelMap map[string]string

// Apply returns the display label for v.
func (m LabelMap) Apply(v string) string {
	if label, ok := m[v]; ok {
		return label
	}
	return v
}

// Profile describes one schema revision of the ticket spreadsheet: which headers
// play which role, which columns are filterable, and the value conventions used.
type Profile struct {
	Name             string            `yaml:"name" json:"name"`
	Columns          map[Role][]string `yaml:"columns" json:"columns"`
	Required         []Role            `yaml:"required" json:"required"`
	Filters          []Role            `yaml:"filters" json:"filters"`
	DateFilter       Role              `yaml:"date_filter" json:"dateFilter"`
	CompletedStatus  string            `yaml:"completed_status" json:"completedStatus"`
	EscalationLabels LabelMap          `yaml:"escalation_labels" json:"escalationLabels"`
	TopN             int               `yaml:"top_n" json:"topN"`
}

// DefaultProfile matches the conventions of the service-desk exports this tool was built for.
func DefaultProfile() Profile {
	return Profile{
		Name: "default",
		Columns: map[Role][]string{
			RoleKey:        {"Chave"},
			RoleStatus:     {"Status"},
			RoleUnit:       {"Unidade"},
			RoleCategory:   {"Categoria - N1"},
			RoleAssignee:   {"Técnico N1 Responsável", "Criador"},
			RoleIntake:     {"Entrada do chamado"},
			RoleEscalation: {"Escalonado"},
			RoleCreated:    {"Criado"},
			RoleCompleted:  {"Data de conclusão"},
		},
		Required:        []Role{RoleKey, RoleStatus, RoleUnit},
		Filters:         []Role{RoleUnit, RoleKey},
		DateFilter:      RoleIntake,
		CompletedStatus: "CONCLUÍDO",
		EscalationLabels: LabelMap{
			"Sim":            "N1 para N2",
			"N2 - Operações": "N2 Operações",
			"NOC":            "NOC",
			"Não":            "Não Escalonados",
		},
		TopN: 5,
	}
}

// Validate checks that every role the profile refers to has at least one header candidate.
func (p Profile) Validate() error {
	var errs []string

	referenced := append(append([]Role{}, p.Required...), p.Filters...)
	if p.DateFilter != "" {
		referenced = append(referenced, p.DateFilter)
	}
	for _, role := range referenced {
		if len(p.Columns[role]) == 0 {
			errs = append(errs, fmt.Sprintf("role %q has no column candidates", role))
		}
	}
	for role, names := range p.Columns {
		for _, name := range names {
			if strings.TrimSpace(name) == "" {
				errs = append(errs, fmt.Sprintf("role %q has an empty column name", role))
			}
		}
	}
	if p.TopN <= 0 {
		errs = append(errs, "top_n must be positive")
	}

	if len(errs) > 0 {
		return errors.New("invalid analysis profile:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// PrimaryName returns the preferred header for role, used when reporting it as missing.
func (p Profile) PrimaryName(role Role) string {
	names := p.Columns[role]
	if len(names) == 0 {
		return string(role)
	}
	return names[0]
}

// Resolve binds roles to the headers actually present in table.
func (p Profile) Resolve(table *Table) ResolvedColumns {
	resolved := ResolvedColumns{names: make(map[Role]string), profile: p}
	for role, candidates := range p.Columns {
		for _, name := range candidates {
			if table.HasColumn(name) {
				resolved.names[role] = name
				break
			}
		}
	}
	return resolved
}

// ResolvedColumns maps roles to headers present in a specific table.
type ResolvedColumns struct {
	names   map[Role]string
	profile Profile
}

// Column returns the header bound to role, if present.
func (r ResolvedColumns) Column(role Role) (string, bool) {
	name, ok := r.names[role]
	return name, ok
}

// Required returns the headers to request for roles: the bound header where present,
// otherwise the profile's primary name so that validation reports it as missing.
func (r ResolvedColumns) Required(roles ...Role) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		if name, ok := r.names[role]; ok {
			out = append(out, name)
			continue
		}
		out = append(out, r.profile.PrimaryName(role))
	}
	return out
}
