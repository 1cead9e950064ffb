package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// targetsFile is the YAML shape of the target-team list:
//
//	targets:
//	  - "HZL013客服群"
//	  - "SHF001 客服群"
type targetsFile struct {
	Targets []string `yaml:"targets"`
}

// LoadTargets returns the list of target team display names. An inline
// TARGET_TEAMS env list takes precedence; otherwise the YAML file configured
// by TARGET_TEAMS_FILE is read.
func (c *Config) LoadTargets() ([]string, error) {
	if len(c.TargetTeams) > 0 {
		return c.TargetTeams, nil
	}

	data, err := os.ReadFile(c.TargetTeamsFile)
	if err != nil {
		return nil, fmt.Errorf("read targets file %s: %w", c.TargetTeamsFile, err)
	}

	var f targetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", c.TargetTeamsFile, err)
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s lists no team names", c.TargetTeamsFile)
	}
	return f.Targets, nil
}
