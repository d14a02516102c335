package rules

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed configs/*.json
var embeddedConfigs embed.FS

// Motivation IDs the arbiter requires. Authoring configs may define
// additional motivations for experimentation; the arbiter ignores them.
const (
	MotivationHuntFoe    = "hunt-foe"
	MotivationHuntFriend = "hunt-friend"
)

// GlobalLibrary provides the default motivation tables bundled with
// the server.
var GlobalLibrary = MustLoadLibrary()

// Library stores compiled motivation rule tables indexed by ID.
type Library struct {
	motivations map[string][]ruleGroup
}

// MustLoadLibrary loads the embedded authoring configs or panics on
// failure. A broken embedded config is a build defect.
func MustLoadLibrary() *Library {
	lib, err := LoadLibrary()
	if err != nil {
		panic(fmt.Errorf("rules: load library: %w", err))
	}
	return lib
}

// LoadLibrary compiles the embedded authoring configs into a library.
func LoadLibrary() (*Library, error) {
	lib := &Library{motivations: make(map[string][]ruleGroup)}

	entries, err := fs.ReadDir(embeddedConfigs, "configs")
	if err != nil {
		return nil, fmt.Errorf("rules: read configs: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := fs.ReadFile(embeddedConfigs, "configs/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("rules: read %q: %w", entry.Name(), err)
		}
		var authoring authoringConfig
		if err := json.Unmarshal(data, &authoring); err != nil {
			return nil, fmt.Errorf("rules: decode %q: %w", entry.Name(), err)
		}
		for _, motivation := range authoring.Motivations {
			compiled, err := compileMotivation(motivation)
			if err != nil {
				return nil, fmt.Errorf("rules: compile %q: %w", entry.Name(), err)
			}
			id := strings.TrimSpace(strings.ToLower(motivation.ID))
			if _, exists := lib.motivations[id]; exists {
				return nil, fmt.Errorf("rules: duplicate motivation %q in %q", id, entry.Name())
			}
			lib.motivations[id] = compiled
		}
	}

	return lib, nil
}

// Motivation returns the compiled rule groups for the provided ID, or
// nil when the library does not define it.
func (l *Library) Motivation(id string) []ruleGroup {
	if l == nil {
		return nil
	}
	return l.motivations[strings.TrimSpace(strings.ToLower(id))]
}

func compileMotivation(authoring authoringMotivation) ([]ruleGroup, error) {
	id := strings.TrimSpace(authoring.ID)
	if id == "" {
		return nil, fmt.Errorf("motivation missing id")
	}
	if len(authoring.Groups) == 0 {
		return nil, fmt.Errorf("motivation %q has no rule groups", id)
	}
	compiled := make([]ruleGroup, 0, len(authoring.Groups))
	for idx, group := range authoring.Groups {
		if len(group) == 0 {
			return nil, fmt.Errorf("motivation %q group %d is empty", id, idx)
		}
		keys := make(ruleGroup, 0, len(group))
		for _, name := range group {
			key, err := parseFactKey(name)
			if err != nil {
				return nil, fmt.Errorf("motivation %q group %d: %w", id, idx, err)
			}
			keys = append(keys, key)
		}
		compiled = append(compiled, keys)
	}
	return compiled, nil
}

func parseFactKey(name string) (FactKey, error) {
	trimmed := strings.TrimSpace(strings.ToLower(name))
	for key, known := range factNames {
		if trimmed == known {
			return FactKey(key), nil
		}
	}
	return 0, fmt.Errorf("unknown fact %q", name)
}

type authoringConfig struct {
	Motivations []authoringMotivation `json:"motivations"`
}

type authoringMotivation struct {
	ID     string     `json:"id"`
	Groups [][]string `json:"groups"`
}
