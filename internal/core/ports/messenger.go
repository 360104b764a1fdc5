package ports

import (
	"context"

	"diarybot/internal/core/domain"
)

// Messenger is the outbound chat transport. This interface allows us to switch
// between Telegram and a test double without changing the conversation logic.
type Messenger interface {
	// Send delivers plain text with an optional reply keyboard and returns
	// the message ID for later edits and deletes.
	Send(ctx context.Context, chatID int64, text string, kb *domain.Keyboard) (int, error)
	// SendHTML delivers text in HTML parse mode (used for the itog checklist).
	SendHTML(ctx context.Context, chatID int64, text string) (int, error)
	EditHTML(ctx context.Context, chatID int64, messageID int, text string) error
	Delete(ctx context.Context, chatID int64, messageID int) error
}
