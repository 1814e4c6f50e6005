package play

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/myrjola/whodunit/internal/ai"
	"github.com/myrjola/whodunit/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedCompleter answers dialogue prompts with a fixed reply and summary prompts with
// a fixed summary. An erring completer simulates an unreachable provider.
type scriptedCompleter struct {
	dialogueReply string
	summaryReply  string
	err           error
	calls         int
}

func (c *scriptedCompleter) CompleteWithRetry(_ context.Context, prompt string, _ int) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	if strings.Contains(prompt, "生成總結") {
		return c.summaryReply, nil
	}
	return c.dialogueReply, nil
}

func testSession() *game.Session {
	s := game.Session{
		Case: game.Case{
			Location:  "古堡",
			CaseType:  "兇殺案",
			TimeOfDay: "深夜",
			Victim:    "屋主",
			Events:    "屋主被發現倒在書房。",
		},
		Roles: map[string]game.Role{
			"林管家": {Personality: "沉默寡言", Clue: "案發時在廚房", IsCulprit: true},
			"陳醫生": {Personality: "神經質", Clue: "整晚在房間讀書", IsCulprit: false},
		},
		ImageURL: "",
	}
	s.ImageURL = s.Case.ImageURL()
	return &s
}

// playTranscript runs the game loop over scripted input lines and returns the output.
func playTranscript(t *testing.T, client completer, lines ...string) string {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	err := gameLoop(context.Background(), testSession(), client, in, &out)
	require.NoError(t, err)
	return out.String()
}

func Test_gameLoop_correctGuess(t *testing.T) {
	client := &scriptedCompleter{summaryReply: "管家因遺產糾紛下手。"}

	output := playTranscript(t, client, "猜兇手", "林管家")

	assert.Contains(t, output, "歡迎來到《誰是兇手》！案件發生在古堡，受害者是屋主。")
	assert.Contains(t, output, "可對話角色：")
	assert.Contains(t, output, "恭喜你！林管家 是兇手！")
	assert.Contains(t, output, "案件總結：管家因遺產糾紛下手。")
}

func Test_gameLoop_wrongGuess(t *testing.T) {
	client := &scriptedCompleter{summaryReply: "管家因遺產糾紛下手。"}

	output := playTranscript(t, client, "猜兇手", "陳醫生")

	assert.Contains(t, output, "錯了！陳醫生 不是兇手。")
	assert.Contains(t, output, "案件總結：管家因遺產糾紛下手。")
}

func Test_gameLoop_guessMustNameARole(t *testing.T) {
	client := &scriptedCompleter{summaryReply: "總結。"}

	output := playTranscript(t, client, "猜兇手", "路人甲", "猜兇手", "林管家")

	assert.Contains(t, output, "請輸入有效角色名稱！")
	assert.Contains(t, output, "恭喜你！林管家 是兇手！")
	// The rejected guess must not have triggered a summary generation.
	assert.Equal(t, 1, client.calls)
}

func Test_gameLoop_interrogation(t *testing.T) {
	client := &scriptedCompleter{dialogueReply: "我整晚都在廚房。", summaryReply: "總結。"}

	output := playTranscript(t, client,
		"林管家", "案發時你在哪裡？",
		"歷史",
		"猜兇手", "林管家")

	assert.Contains(t, output, "對 林管家 問什麼？")
	assert.Contains(t, output, "林管家 說：我整晚都在廚房。")
	assert.Contains(t, output, "對話歷史：")
	// The reply shows up twice, once live and once in the history replay.
	assert.Equal(t, 2, strings.Count(output, "林管家 說：我整晚都在廚房。"))
}

func Test_gameLoop_emptyHistory(t *testing.T) {
	client := &scriptedCompleter{summaryReply: "總結。"}

	output := playTranscript(t, client, "歷史", "猜兇手", "林管家")

	assert.Contains(t, output, "還沒有對話記錄。")
}

func Test_gameLoop_invalidCommand(t *testing.T) {
	client := &scriptedCompleter{summaryReply: "總結。"}

	output := playTranscript(t, client, "跳舞", "猜兇手", "林管家")

	assert.Contains(t, output, "請輸入有效指令！")
}

func Test_gameLoop_simulatedReplyWhenProviderFails(t *testing.T) {
	client := &scriptedCompleter{err: ai.ErrNoContent}

	in := strings.NewReader("林管家\n案發時你在哪裡？\n")
	var out bytes.Buffer
	err := gameLoop(context.Background(), testSession(), client, in, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "林管家 說：模擬回應: ")
}

func Test_gameLoop_summaryFallbackWhenProviderFails(t *testing.T) {
	// Dialogue succeeded earlier in the session but the summary call fails.
	client := &scriptedCompleter{err: ai.ErrNoContent}

	output := playTranscript(t, client, "猜兇手", "林管家")

	assert.Contains(t, output, "兇手是林管家，但總結生成失敗。")
}

func Test_gameLoop_truncatesLongReplies(t *testing.T) {
	client := &scriptedCompleter{dialogueReply: strings.Repeat("案", 400), summaryReply: "總結。"}

	output := playTranscript(t, client, "陳醫生", "你看到了什麼？", "猜兇手", "林管家")

	assert.Contains(t, output, strings.Repeat("案", game.DialogueCap)+"...")
	assert.NotContains(t, output, strings.Repeat("案", game.DialogueCap+1))
}
