package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedUser is one entry of the directory seed file.
type SeedUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	OrgID string `yaml:"org_id"`
	Role  string `yaml:"role"`
}

// Seed is the parsed directory seed file: the org roster loaded into
// the users table at startup.
type Seed struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeed parses the YAML directory seed file at path.
func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, u := range seed.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("seed user %d: id is required", i)
		}
		if u.OrgID == "" {
			return nil, fmt.Errorf("seed user %q: org_id is required", u.ID)
		}
	}
	return &seed, nil
}
