package config

import (
	"fmt"
	"os"

	"github.com/lorrc/ticket-insights/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// LoadProfile reads an analysis profile from a YAML file. An empty path yields the
// default profile. Keys left out of the file keep their default values.
func LoadProfile(path string) (domain.Profile, error) {
	profile := domain.DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("reading analysis profile: %w", err)
	}

	return ParseProfile(data)
}

// ParseProfile decodes a YAML analysis profile over the defaults and validates it.
func ParseProfile(data []byte) (domain.Profile, error) {
	profile := domain.DefaultProfile()

	var file domain.Profile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.Profile{}, fmt.Errorf("parsing analysis profile: %w", err)
	}

	if file.Name != "" {
		profile.Name = file.Name
	}
	for role, names := range file.Columns {
		profile.Columns[role] = names
	}
	if file.Required != nil {
		profile.Required = file.Required
	}
	if file.Filters != nil {
		profile.Filters = file.Filters
	}
	if file.DateFilter != "" {
		profile.DateFilter = file.DateFilter
	}
	if file.CompletedStatus != "" {
		profile.CompletedStatus = file.CompletedStatus
	}
	if file.EscalationLabels != nil {
		profile.EscalationLabels = file.EscalationLabels
	}
	if file.TopN != 0 {
		profile.TopN = file.TopN
	}

	if err := profile.Validate(); err != nil {
		return domain.Profile{}, err
	}
	return profile, nil
}
