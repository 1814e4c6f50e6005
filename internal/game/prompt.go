package game

import (
	"fmt"
	"strings"
)

// Prompt composition is pure string assembly: identical inputs produce byte-identical
// prompt text, which keeps the composers testable against golden output. Role name
// lists are passed in sorted order for the same reason.

// CaseGenerationPrompt asks the provider to flesh out a skeleton into a full case with
// per-role clues and a narrative, in the loose JSON shape the normalizer understands.
func CaseGenerationPrompt(params CaseParameters, roleNames []string, culprit string) string {
	return fmt.Sprintf(`生成一個%s故事，發生在%s，時間是%s。
有%d個角色：%s。
兇手是%s。請為每個角色生成一個相關線索（約20字），並描述案件有趣的經過（包含背景事件，例如案發前的情況，角色之間身份的互動）。
輸出格式為JSON，包含案件背景（鍵名為"case"，包含location, case_type, time, victim, events）和角色資料（鍵名為"roles"，為字典格式，鍵為角色名，值包含personality和clue）。
請用繁體中文回應。`,
		params.CaseType, params.Location, params.TimeOfDay,
		len(roleNames), strings.Join(roleNames, "、"),
		culprit)
}

// DialoguePrompt builds the persona-conditioned request for one dialogue turn. The
// branch depends only on the role's hidden category: the culprit misleads and confesses
// when cornered, the victim shares true but incomplete information with emotion, and a
// bystander denies involvement.
func DialoguePrompt(s *Session, roleName, question string) string {
	role := s.Roles[roleName]
	c := s.Case

	switch s.CategoryOf(roleName) {
	case CategoryCulprit:
		return fmt.Sprintf(`我們來玩一個猜猜兇手的角色扮演遊戲。你是%s，性格%s，你是兇手。
案件背景：%s發生在%s，時間是%s，受害者是%s。
背景事件：%s。
你的線索：%s。
玩家問：'%s'，請用你的性格回應，試圖誤導玩家，但保持合理性。回應不超過250字。但是如果玩家猜到是你了。你就囂張地承認和說明原因吧。
請用繁體中文回應。`,
			roleName, role.Personality,
			c.CaseType, c.Location, c.TimeOfDay, c.Victim,
			c.Events, role.Clue, question)
	case CategoryVictim:
		return fmt.Sprintf(`我們來玩一個猜猜兇手的角色扮演遊戲。你是%s，性格%s，你是受害者。
案件背景：%s發生在%s，時間是%s，受害者是你。
背景事件：%s。
你的線索：%s。
玩家問：'%s'，請用你的性格回應，提供真實但不完整的資訊，表現出受害者的情緒。回應不超過250字。
請用繁體中文回應。`,
			roleName, role.Personality,
			c.CaseType, c.Location, c.TimeOfDay,
			c.Events, role.Clue, question)
	default:
		return fmt.Sprintf(`我們來玩一個猜猜兇手的角色扮演遊戲。你是%s，性格%s，你不是兇手。
案件背景：%s發生在%s，時間是%s，受害者是%s。
背景事件：%s。
你的線索：%s。
玩家問：'%s'，請用你的性格回應，提供真實但不完整的資訊，並明確否認涉案。回應不超過250字。
請用繁體中文回應。`,
			roleName, role.Personality,
			c.CaseType, c.Location, c.TimeOfDay, c.Victim,
			c.Events, role.Clue, question)
	}
}

// SummaryPrompt asks for the closing motive-and-events summary once the culprit is revealed.
func SummaryPrompt(s *Session, culprit string) string {
	c := s.Case
	return fmt.Sprintf(`根據以下案件背景生成總結：
%s發生在%s，時間是%s，受害者是%s。
背景事件：%s。
兇手是%s。請描述事件有趣的經過和動機，約250字，用繁體中文。`,
		c.CaseType, c.Location, c.TimeOfDay, c.Victim,
		c.Events, culprit)
}
