package activity

import (
	"context"
	"strings"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/stt"
	"github.com/lokutor-ai/wellbot-orchestrator/internal/termination"
)

// runSmallTalk implements spec.md §4.6.b: one user utterance per turn,
// streamed LLM reply spoken sentence-by-sentence as it arrives, up to
// max_turns round trips or a termination phrase.
func runSmallTalk(ctx context.Context, d *Deps, sess *Session, seed Seed) (NextAction, error) {
	lang := userLanguage(ctx, d, sess.User)
	term := termination.NewDetector(d.Config.TerminationPhrases[lang])
	defer term.SetActive(false)

	convID := ""
	if d.Store != nil {
		id, err := d.Store.StartConversation(ctx, "small_talk:"+sess.User)
		if err != nil {
			d.Log.Warn("small_talk: StartConversation failed: %v", err)
		} else {
			convID = id
		}
	}
	sess.ConversationID = convID

	history := dialog.NewHistory(d.Config.MaxTurns)
	bundle := loadContextBundle(ctx, d, sess.User)
	dialog.InjectContext(history, bundle)
	if seed.SystemPrompt != "" {
		history.AddSystem(seed.SystemPrompt)
	}

	opening := seed.OpeningPrompt
	if opening == "" {
		opening = "What's on your mind?"
	}
	if err := speak(ctx, d, opening); err != nil {
		d.Log.Warn("small_talk: opening prompt failed: %v", err)
	}
	recordMessage(ctx, d, convID, "assistant", opening)

	for sess.TurnCount < d.Config.MaxTurns {
		var transcript string
		timedOut, err := listenSession(ctx, d, d.Config.TimingFor(string(KindSmallTalk)), true, func(t stt.Transcript) error {
			if t.IsFinal && t.Text != "" {
				transcript = t.Text
			}
			return nil
		})
		if err != nil {
			endConversation(ctx, d, convID)
			return NextAction{}, err
		}
		if timedOut || transcript == "" {
			break
		}
		if term.IsTerminationPhrase(transcript) {
			break
		}

		history.AddUser(transcript)
		recordMessage(ctx, d, convID, "user", transcript)

		reply, err := streamReplyAndSpeak(ctx, d, history.Snapshot())
		if err != nil {
			d.Log.Warn("small_talk: llm reply failed: %v", err)
			break
		}
		history.AddAssistant(reply)
		recordMessage(ctx, d, convID, "assistant", reply)
		sess.TurnCount++
	}

	endConversation(ctx, d, convID)
	return ReturnToIdle(), nil
}

func recordMessage(ctx context.Context, d *Deps, convID, role, text string) {
	if convID == "" || d.Store == nil || text == "" {
		return
	}
	if err := d.Store.AddMessage(ctx, convID, role, text); err != nil {
		d.Log.Warn("small_talk: AddMessage failed: %v", err)
	}
}

func endConversation(ctx context.Context, d *Deps, convID string) {
	if convID == "" || d.Store == nil {
		return
	}
	if err := d.Store.EndConversation(ctx, convID); err != nil {
		d.Log.Warn("small_talk: EndConversation failed: %v", err)
	}
}

// streamReplyAndSpeak streams the LLM's reply, speaking each coalesced
// segment through TTS as soon as a sentence boundary (./?/!) is seen,
// and returns the full accumulated reply for history bookkeeping.
func streamReplyAndSpeak(ctx context.Context, d *Deps, messages []dialog.Message) (string, error) {
	var full, buf strings.Builder

	err := d.LLM.StreamChat(ctx, messages, func(token string) error {
		full.WriteString(token)
		buf.WriteString(token)
		if endsSentence(token) {
			segment := strings.TrimSpace(buf.String())
			buf.Reset()
			if segment != "" {
				if err := speak(ctx, d, segment); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return strings.TrimSpace(full.String()), err
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		if err := speak(ctx, d, rest); err != nil {
			return strings.TrimSpace(full.String()), err
		}
	}
	return strings.TrimSpace(full.String()), nil
}

func endsSentence(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '.', '?', '!':
		return true
	default:
		return false
	}
}
