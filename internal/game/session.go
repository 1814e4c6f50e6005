package game

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/myrjola/whodunit/internal/errors"
)

// Role is one interactable character of a case. The JSON field names are the wire
// format handed to and received back from the player's client.
type Role struct {
	Personality string `json:"personality"`
	Clue        string `json:"clue"`
	IsCulprit   bool   `json:"is_killer"`
}

// Case is the narrative frame of a session. Victim may or may not coincide with an
// interactable role name.
type Case struct {
	Location  string `json:"location"`
	CaseType  string `json:"case_type"`
	TimeOfDay string `json:"time"`
	Victim    string `json:"victim"`
	Events    string `json:"events"`
}

// Session is the complete game state. It is caller-held: the server returns it from
// init, the client sends it back on every talk and guess call, and nothing is retained
// in between. Incoming sessions are untrusted and must pass Validate before use.
type Session struct {
	Case     Case            `json:"case"`
	Roles    map[string]Role `json:"roles"`
	ImageURL string          `json:"image_url"`
}

var (
	// ErrInvalidSession marks client-supplied game state that fails structural validation.
	ErrInvalidSession = errors.NewSentinel("session is structurally incomplete")
	// ErrUnknownRole marks a role name that is not part of the session.
	ErrUnknownRole = errors.NewSentinel("unknown role")
)

// Validate checks the structural invariants a session must satisfy before any dialogue
// or guess operation: a full role registry, exactly one culprit and a named victim.
func (s *Session) Validate() error {
	if s == nil || len(s.Roles) == 0 {
		return errors.Wrap(ErrInvalidSession, "missing roles")
	}
	if s.Case.Victim == "" {
		return errors.Wrap(ErrInvalidSession, "missing victim")
	}
	culprits := 0
	for _, role := range s.Roles {
		if role.IsCulprit {
			culprits++
		}
	}
	if culprits != 1 {
		return errors.Wrap(ErrInvalidSession, "session must have exactly one culprit")
	}
	return nil
}

// Role looks up a role by name.
func (s *Session) Role(name string) (Role, error) {
	role, ok := s.Roles[name]
	if !ok {
		return Role{}, errors.Wrap(ErrUnknownRole, "look up role")
	}
	return role, nil
}

// Culprit resolves the culprit's role name.
func (s *Session) Culprit() (string, error) {
	for _, name := range s.RoleNames() {
		if s.Roles[name].IsCulprit {
			return name, nil
		}
	}
	return "", errors.Wrap(ErrInvalidSession, "no culprit in session")
}

// CheckGuess reports whether the guessed name is the culprit, by exact string equality.
func (s *Session) CheckGuess(guess string) (bool, error) {
	culprit, err := s.Culprit()
	if err != nil {
		return false, err
	}
	return guess == culprit, nil
}

// RoleCategory is the hidden attribute that conditions a role's dialogue persona.
type RoleCategory int

const (
	CategoryBystander RoleCategory = iota
	CategoryVictim
	CategoryCulprit
)

// CategoryOf determines how a role should behave in dialogue. A role that is both the
// culprit and the narrative victim counts as the culprit.
func (s *Session) CategoryOf(name string) RoleCategory {
	if role, ok := s.Roles[name]; ok && role.IsCulprit {
		return CategoryCulprit
	}
	if name == s.Case.Victim {
		return CategoryVictim
	}
	return CategoryBystander
}

// RoleNames returns the session's role names in sorted order.
func (s *Session) RoleNames() []string {
	return sortedRoleNames(s.Roles)
}

func sortedRoleNames(roles map[string]Role) []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ImageURL templates the case's location and time into the illustration endpoint.
func (c Case) ImageURL() string {
	prompt := fmt.Sprintf("在%s，%s的時間，發生了神秘事件卡通風格。", c.Location, c.TimeOfDay)
	return fmt.Sprintf("https://image.pollinations.ai/prompt/%s?width=1024&height=768&model=flux-realism",
		url.PathEscape(prompt))
}
