// Package game holds the deduction game core: vocabulary sampling, case skeleton
// construction, prompt composition and the normalization of generated content into
// a well-formed session.
package game

import (
	"log/slog"
	"os"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/random"
	"gopkg.in/yaml.v3"

	_ "embed"
)

// MinRoles is the number of interactable roles in every case.
const MinRoles = 5

//go:embed vocab.yaml
var defaultVocabulary []byte

// Vocabulary holds the finite sets that case parameters and roles are drawn from.
type Vocabulary struct {
	Locations     []string `yaml:"locations"`
	CaseTypes     []string `yaml:"case_types"`
	Times         []string `yaml:"times"`
	Personalities []string `yaml:"personalities"`
	Archetypes    []string `yaml:"archetypes"`
	Surnames      []string `yaml:"surnames"`
}

// LoadVocabulary reads a vocabulary from the YAML file at path, or the embedded default
// when path is empty. An invalid vocabulary is a configuration error and should abort
// startup.
func LoadVocabulary(path string) (*Vocabulary, error) {
	raw := defaultVocabulary
	if path != "" {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(err, "read vocabulary file", slog.String("path", path))
		}
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(raw, &vocab); err != nil {
		return nil, errors.Wrap(err, "parse vocabulary", slog.String("path", path))
	}
	if err := vocab.validate(); err != nil {
		return nil, err
	}
	return &vocab, nil
}

func (v *Vocabulary) validate() error {
	sets := []struct {
		name string
		set  []string
		min  int
	}{
		{name: "locations", set: v.Locations, min: 1},
		{name: "case_types", set: v.CaseTypes, min: 1},
		{name: "times", set: v.Times, min: 1},
		{name: "personalities", set: v.Personalities, min: 1},
		// Archetypes and surnames are drawn without replacement so the sets must be
		// large enough to name MinRoles distinct roles.
		{name: "archetypes", set: v.Archetypes, min: MinRoles},
		{name: "surnames", set: v.Surnames, min: MinRoles},
	}
	var errorList []error
	for _, s := range sets {
		if len(s.set) < s.min {
			errorList = append(errorList, errors.New("vocabulary set too small",
				slog.String("set", s.name), slog.Int("len", len(s.set)), slog.Int("min", s.min)))
		}
	}
	return errors.Join(errorList...)
}

// Draw holds one freshly sampled round of case parameters and role ingredients.
type Draw struct {
	Params CaseParameters
	// Archetypes and Surnames are distinct within a draw so that concatenated role
	// names cannot collide. Personalities are drawn with replacement and may repeat.
	Archetypes    []string
	Surnames      []string
	Personalities []string
}

// NewDraw samples case parameters and MinRoles role ingredients from the vocabulary.
func (v *Vocabulary) NewDraw() (*Draw, error) {
	var (
		draw Draw
		err  error
	)

	if draw.Params.Location, err = random.Pick(v.Locations); err != nil {
		return nil, errors.Wrap(err, "pick location")
	}
	if draw.Params.CaseType, err = random.Pick(v.CaseTypes); err != nil {
		return nil, errors.Wrap(err, "pick case type")
	}
	if draw.Params.TimeOfDay, err = random.Pick(v.Times); err != nil {
		return nil, errors.Wrap(err, "pick time of day")
	}

	if draw.Archetypes, err = random.Sample(v.Archetypes, MinRoles); err != nil {
		return nil, errors.Wrap(err, "sample archetypes")
	}
	if draw.Surnames, err = random.Sample(v.Surnames, MinRoles); err != nil {
		return nil, errors.Wrap(err, "sample surnames")
	}

	draw.Personalities = make([]string, MinRoles)
	for i := range draw.Personalities {
		if draw.Personalities[i], err = random.Pick(v.Personalities); err != nil {
			return nil, errors.Wrap(err, "pick personality")
		}
	}

	return &draw, nil
}
