package game

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// The provider has no enforced output schema, so every structural failure degrades to
// deterministic placeholder content instead of failing the game.
const (
	// FallbackVictim stands in when generated content names no victim.
	FallbackVictim = "神秘人物"
	// FallbackEvents stands in when generated content describes no events.
	FallbackEvents = "未知事件"
	// FallbackClue is substituted for any role whose clue is missing.
	FallbackClue = "案發時行蹤不明"

	// culpritMarker is the relation_to_case value that flags a character as the culprit.
	culpritMarker = "兇手"

	// DialogueCap is the character limit for dialogue replies.
	DialogueCap = 250
)

// generatedStory is the loose schema a well-behaved provider reply decodes into. Both
// accepted spellings of the case and role structures are present; the shape recognizers
// below decide which one to use.
type generatedStory struct {
	Case           *generatedCase           `json:"case"`
	CaseBackground *generatedCase           `json:"case_background"`
	Roles          map[string]generatedRole `json:"roles"`
	Characters     []generatedCharacter     `json:"characters"`
}

type generatedCase struct {
	Location string `json:"location"`
	CaseType string `json:"case_type"`
	Time     string `json:"time"`
	Victim   string `json:"victim"`
	Events   string `json:"events"`
}

type generatedRole struct {
	Personality string `json:"personality"`
	Clue        string `json:"clue"`
	IsCulprit   *bool  `json:"is_killer"`
}

type generatedCharacter struct {
	Name           string `json:"name"`
	Personality    string `json:"personality"`
	Clue           string `json:"clue"`
	RelationToCase string `json:"relation_to_case"`
}

// The accepted response shapes are an ordered list of recognizers tried in sequence.
// Each either yields its piece of the story or declines.

var caseRecognizers = []func(*generatedStory) *generatedCase{
	func(s *generatedStory) *generatedCase { return s.Case },
	func(s *generatedStory) *generatedCase { return s.CaseBackground },
}

var roleRecognizers = []func(*generatedStory) map[string]generatedRole{
	func(s *generatedStory) map[string]generatedRole { return s.Roles },
	rolesFromCharacters,
}

// rolesFromCharacters converts the sequence-of-characters shape into the role mapping
// shape. A character related to the case as the culprit carries that flag into the
// merge, where it overrides the skeleton's original pick.
func rolesFromCharacters(s *generatedStory) map[string]generatedRole {
	if s.Characters == nil {
		return nil
	}
	roles := make(map[string]generatedRole, len(s.Characters))
	for _, char := range s.Characters {
		role := generatedRole{
			Personality: char.Personality,
			Clue:        char.Clue,
			IsCulprit:   nil,
		}
		if char.RelationToCase == culpritMarker {
			isCulprit := true
			role.IsCulprit = &isCulprit
		}
		roles[char.Name] = role
	}
	return roles
}

// Normalize reconciles a raw provider reply with the case skeleton into a session that
// satisfies every structural invariant: all skeleton roles present, non-empty clues,
// a named victim and exactly one culprit. An empty reply, a JSON decode failure or a
// reply missing the case or role structures discards all generated content and falls
// back to the skeleton alone.
func Normalize(skel *Skeleton, raw string, logger *slog.Logger) *Session {
	cleaned := stripCodeFences(raw)
	if cleaned == "" {
		logger.Warn("empty provider reply, using skeleton fallback")
		return fallbackSession(skel)
	}

	var story generatedStory
	if err := json.Unmarshal([]byte(cleaned), &story); err != nil {
		logger.Warn("undecodable provider reply, using skeleton fallback",
			slog.String("err", err.Error()), slog.String("payload", cleaned))
		return fallbackSession(skel)
	}

	var caseData *generatedCase
	for _, recognize := range caseRecognizers {
		if caseData = recognize(&story); caseData != nil {
			break
		}
	}
	if caseData == nil {
		logger.Warn("provider reply missing case structure, using skeleton fallback",
			slog.String("payload", cleaned))
		return fallbackSession(skel)
	}

	var parsedRoles map[string]generatedRole
	for _, recognize := range roleRecognizers {
		if parsedRoles = recognize(&story); parsedRoles != nil {
			break
		}
	}
	if parsedRoles == nil {
		logger.Warn("provider reply missing role structure, using skeleton fallback",
			slog.String("payload", cleaned))
		return fallbackSession(skel)
	}

	if len(parsedRoles) < len(skel.Roles) {
		logger.Warn("provider reply described too few roles, synthesizing the rest",
			slog.Int("parsed", len(parsedRoles)), slog.Int("want", len(skel.Roles)))
	}

	return merge(skel, caseData, parsedRoles)
}

// stripCodeFences removes markdown fence markup that providers like to wrap JSON in.
func stripCodeFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// merge overlays parsed content on the skeleton field by field. The skeleton guarantees
// structural completeness: every skeleton role appears in the result even when the
// provider omitted it, and parsed roles that name nobody in the skeleton are dropped.
// Parsed fields win on conflict.
func merge(skel *Skeleton, caseData *generatedCase, parsedRoles map[string]generatedRole) *Session {
	c := Case{
		Location:  skel.Params.Location,
		CaseType:  skel.Params.CaseType,
		TimeOfDay: skel.Params.TimeOfDay,
		Victim:    FallbackVictim,
		Events:    FallbackEvents,
	}
	if caseData.Location != "" {
		c.Location = caseData.Location
	}
	if caseData.CaseType != "" {
		c.CaseType = caseData.CaseType
	}
	if caseData.Time != "" {
		c.TimeOfDay = caseData.Time
	}
	if caseData.Victim != "" {
		c.Victim = caseData.Victim
	}
	if caseData.Events != "" {
		c.Events = caseData.Events
	}

	roles := make(map[string]Role, len(skel.Roles))
	for name, skelRole := range skel.Roles {
		role := skelRole
		if parsed, ok := parsedRoles[name]; ok {
			if parsed.Personality != "" {
				role.Personality = parsed.Personality
			}
			if parsed.Clue != "" {
				role.Clue = parsed.Clue
			}
			if parsed.IsCulprit != nil {
				role.IsCulprit = *parsed.IsCulprit
			}
		}
		if role.Clue == "" {
			role.Clue = FallbackClue
		}
		roles[name] = role
	}
	enforceSingleCulprit(roles, skel.Culprit)

	session := Session{
		Case:     c,
		Roles:    roles,
		ImageURL: "",
	}
	session.ImageURL = session.Case.ImageURL()
	return &session
}

// enforceSingleCulprit re-derives the culprit flags after the merge so that exactly one
// role ends up flagged. A generated designation wins over the skeleton's original pick:
// when several roles are flagged, the skeleton's pick is dropped first and the first
// remaining role in sorted order wins. When none is flagged, the skeleton's pick is
// restored.
func enforceSingleCulprit(roles map[string]Role, skeletonPick string) {
	var flagged []string
	for _, name := range sortedRoleNames(roles) {
		if roles[name].IsCulprit {
			flagged = append(flagged, name)
		}
	}

	switch len(flagged) {
	case 1:
		return
	case 0:
		role := roles[skeletonPick]
		role.IsCulprit = true
		roles[skeletonPick] = role
	default:
		winner := skeletonPick
		for _, name := range flagged {
			if name != skeletonPick {
				winner = name
				break
			}
		}
		for _, name := range flagged {
			if name == winner {
				continue
			}
			role := roles[name]
			role.IsCulprit = false
			roles[name] = role
		}
	}
}

// fallbackSession is the bottom fallback tier: all generated content is discarded and
// the skeleton's own parameters become the narrative.
func fallbackSession(skel *Skeleton) *Session {
	roles := make(map[string]Role, len(skel.Roles))
	for name, role := range skel.Roles {
		role.Clue = FallbackClue
		roles[name] = role
	}
	session := Session{
		Case: Case{
			Location:  skel.Params.Location,
			CaseType:  skel.Params.CaseType,
			TimeOfDay: skel.Params.TimeOfDay,
			Victim:    FallbackVictim,
			Events:    FallbackEvents,
		},
		Roles:    roles,
		ImageURL: "",
	}
	session.ImageURL = session.Case.ImageURL()
	return &session
}

// Truncate caps text at limit characters, appending an ellipsis marker when anything
// was cut. Counting is by rune so multibyte narrative text is not split mid-character.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
