// Package roster resolves technician ids to people. The roster is read
// from a YAML file when configured; otherwise a built-in demo crew keeps
// the dashboard usable out of the box.
package roster

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/fieldwork/dispatch/models"
)

type rosterFile struct {
	Members []models.TeamMember `yaml:"members"`
}

// Default returns the built-in demo crew.
func Default() []models.TeamMember {
	return []models.TeamMember{
		{ID: "tech-1", Name: "Mike Johnson", Status: models.MemberAvailable},
		{ID: "tech-2", Name: "Sarah Williams", Status: models.MemberAvailable},
		{ID: "tech-3", Name: "David Chen", Status: models.MemberBusy},
		{ID: "tech-4", Name: "Emma Rodriguez", Status: models.MemberOffline},
	}
}

// Load reads team members from the YAML file at path. An empty path
// returns the built-in roster. Duplicate ids and nameless entries are
// rejected so a bad roster file fails loudly at startup instead of
// producing "unassigned" rows later.
func Load(path string) ([]models.TeamMember, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file %s: %w", path, err)
	}

	var parsed rosterFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse roster file %s: %w", path, err)
	}
	if len(parsed.Members) == 0 {
		return nil, fmt.Errorf("roster file %s contains no members", path)
	}

	seen := make(map[string]bool, len(parsed.Members))
	for i, member := range parsed.Members {
		if member.ID == "" || member.Name == "" {
			return nil, fmt.Errorf("roster file %s: member %d is missing id or name", path, i)
		}
		if seen[member.ID] {
			return nil, fmt.Errorf("roster file %s: duplicate member id %q", path, member.ID)
		}
		seen[member.ID] = true
		if member.Status == "" {
			parsed.Members[i].Status = models.MemberAvailable
		}
	}
	return parsed.Members, nil
}

// Lookup finds a member by id.
func Lookup(members []models.TeamMember, id string) (models.TeamMember, bool) {
	for _, member := range members {
		if member.ID == id {
			return member, true
		}
	}
	return models.TeamMember{}, false
}
