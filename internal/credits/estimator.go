// Package credits prices paid actions and applies balance changes to user accounts.
package credits

import "unicode/utf8"

const (
	// SignupGrant is credited once when an account is created.
	SignupGrant = 50
	// BaseActionCost is the flat price of a paid action without attachments.
	BaseActionCost = 5
	// AttachmentActionCost is the flat price once any attachment is present.
	AttachmentActionCost = 10

	charsPerToken       = 4
	minOutputTokens     = 64
	maxOutputTokens     = 2048
	outputTokenOverhead = 128
	outputTokenWeight   = 4
	tokensPerCredit     = 2000
	minChatCredits      = 1
	maxChatCredits      = 8

	playlistBaseCost   = 5
	playlistVideoCap   = 10
	playlistMaxCredits = 15
)

// ChatEstimate breaks down the token arithmetic behind a chat price.
type ChatEstimate struct {
	InputTokens     int `json:"inputTokens"`
	OutputTokens    int `json:"outputTokens"`
	EffectiveTokens int `json:"effectiveTokens"`
	Credits         int `json:"credits"`
}

// EstimateChatCost prices a model call from the prompt and the conversation history sent with it.
// History and prompt are always joined by a newline, so an empty pair still counts one character.
func EstimateChatCost(prompt, history string) ChatEstimate {
	chars := utf8.RuneCountInString(history) + 1 + utf8.RuneCountInString(prompt)

	input := max(1, ceilDiv(chars, charsPerToken))
	output := clamp(ceilDiv(input, 2)+outputTokenOverhead, minOutputTokens, maxOutputTokens)
	effective := input + outputTokenWeight*output

	return ChatEstimate{
		InputTokens:     input,
		OutputTokens:    output,
		EffectiveTokens: effective,
		Credits:         clamp(ceilDiv(effective, tokensPerCredit), minChatCredits, maxChatCredits),
	}
}

// EstimateYouTubePlaylistCost prices plan generation from a playlist with videoCount entries.
func EstimateYouTubePlaylistCost(videoCount int) int {
	videoCount = max(0, videoCount)
	return min(playlistMaxCredits, playlistBaseCost+min(playlistVideoCap, videoCount))
}

// FlatActionCost is the step price used by chat and plan actions.
func FlatActionCost(attachmentCount int) int {
	if attachmentCount > 0 {
		return AttachmentActionCost
	}
	return BaseActionCost
}

func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

func clamp(v, lo, hi int) int {
	return min(hi, max(lo, v))
}
