package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zebralog/zebralog/internal/llm"
	"github.com/zebralog/zebralog/internal/storage/entity"
)

const (
	// notesBudget bounds the transcript characters sent to the model.
	notesBudget  = 15000
	notesTimeout = 60 * time.Second
)

var (
	ErrSessionNotFound     = errors.New("session not found or not completed")
	ErrNoTranscriptions    = errors.New("no transcriptions found for this session")
	ErrNoCompletedSessions = errors.New("no completed sessions found")
)

// SessionSource is the read/write surface notes generation needs.
type SessionSource interface {
	Session(ctx context.Context, id string) (*entity.VoiceSession, error)
	LatestCompleted(ctx context.Context, guildID uint64) (*entity.VoiceSession, error)
	Transcript(ctx context.Context, sessionID string) ([]*entity.TranscriptLine, error)
	SaveNotes(ctx context.Context, sessionID, notes string) (bool, error)
}

// NotesGenerator extracts structured meeting notes from a completed
// voice session's transcript.
type NotesGenerator struct {
	logger *zap.SugaredLogger
	source SessionSource
	llm    llm.Chatter // nil when no credential is configured
}

func NewNotesGenerator(logger *zap.SugaredLogger, source SessionSource, chatter llm.Chatter) *NotesGenerator {
	return &NotesGenerator{logger: logger, source: source, llm: chatter}
}

// GenerateLatest generates notes for the guild's most recently
// completed session.
func (n *NotesGenerator) GenerateLatest(ctx context.Context, guildID uint64) (string, error) {
	sess, err := n.source.LatestCompleted(ctx, guildID)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrNoCompletedSessions
	}
	return n.Generate(ctx, sess.ID)
}

// Generate produces the session's notes, at most one external call per
// session: already generated notes are returned from the store.
func (n *NotesGenerator) Generate(ctx context.Context, sessionID string) (string, error) {
	sess, err := n.source.Session(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if sess == nil || sess.Status != entity.SessionCompleted {
		return "", ErrSessionNotFound
	}
	if sess.NotesGenerated {
		return sess.Notes, nil
	}

	lines, err := n.source.Transcript(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", ErrNoTranscriptions
	}

	if n.llm == nil {
		return "⚠️ Language-model API key not configured. Cannot generate structured notes.", nil
	}

	cctx, cancel := context.WithTimeout(ctx, notesTimeout)
	defer cancel()
	notes, err := n.llm.Chat(cctx, notesPreamble, notesPrompt(lines))
	if err != nil {
		n.logger.Errorf("Couldn't generate notes for session %s: %s.", sessionID, err)
		return fmt.Sprintf("⚠️ Error generating notes: %s", err), nil
	}

	if saved, err := n.source.SaveNotes(ctx, sessionID, notes); err != nil {
		return "", err
	} else if !saved {
		// lost a race to another notes request; serve the stored text
		if sess, err = n.source.Session(ctx, sessionID); err == nil && sess != nil {
			return sess.Notes, nil
		}
	}
	return notes, nil
}

const notesPreamble = `You are a helpful assistant that creates clear, structured meeting notes from transcripts.`

func notesPrompt(lines []*entity.TranscriptLine) string {
	rendered := make([]string, len(lines))
	for i, l := range lines {
		rendered[i] = fmt.Sprintf("[%s] %s: %s", l.CreatedAt.Format("15:04:05"), l.Speaker, l.Text)
	}
	transcript := strings.Join(rendered, "\n")

	return fmt.Sprintf(`Analyze this voice conversation transcript and create structured notes. Extract:

1. **Action Items** - Tasks that need to be done (who, what, when)
2. **Decisions Made** - Important decisions and agreements
3. **Key Topics** - Main discussion points and themes
4. **Summary** - Brief overview of the conversation

Format the output clearly with sections. Be concise but comprehensive.

Transcript (%d segments):
%s

Create structured notes now:`, len(lines), truncate(transcript, notesBudget))
}
