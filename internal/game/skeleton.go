package game

import (
	"github.com/myrjola/whodunit/internal/errors"
	"github.com/myrjola/whodunit/internal/random"
)

// CaseParameters are the sampled case facts that exist before any generated content.
// They are immutable once drawn.
type CaseParameters struct {
	Location  string
	CaseType  string
	TimeOfDay string
}

// Skeleton is the pre-generation draft of a case: sampled parameters plus a role
// registry with uniquely concatenated surname+archetype names and exactly one role
// flagged as the culprit. Clues stay empty until generated content or fallbacks fill
// them in. Building a skeleton never talks to the provider.
type Skeleton struct {
	Params  CaseParameters
	Roles   map[string]Role
	Culprit string
}

// NewSkeleton builds a case skeleton from one vocabulary draw.
func NewSkeleton(v *Vocabulary) (*Skeleton, error) {
	draw, err := v.NewDraw()
	if err != nil {
		return nil, err
	}

	roles := make(map[string]Role, MinRoles)
	names := make([]string, MinRoles)
	for i := range draw.Archetypes {
		// Surnames and archetypes are each distinct within a draw, so the
		// concatenated names are unique.
		name := draw.Surnames[i] + draw.Archetypes[i]
		names[i] = name
		roles[name] = Role{
			Personality: draw.Personalities[i],
			Clue:        "",
			IsCulprit:   false,
		}
	}

	culprit, err := random.Pick(names)
	if err != nil {
		return nil, errors.Wrap(err, "pick culprit")
	}
	role := roles[culprit]
	role.IsCulprit = true
	roles[culprit] = role

	return &Skeleton{
		Params:  draw.Params,
		Roles:   roles,
		Culprit: culprit,
	}, nil
}

// RoleNames returns the skeleton's role names in sorted order.
func (s *Skeleton) RoleNames() []string {
	return sortedRoleNames(s.Roles)
}
