package bot

import (
	tgbot "github.com/go-telegram/bot"
	"gitlab.com/bekzod/kassa-bot/internal/bot/mocks"
)

// TelegramAPI is an alias to the interface defined in mocks.
// The interface is defined there to avoid import cycles.
type TelegramAPI = mocks.TelegramAPI

// Compile-time check that the real bot satisfies the interface.
var _ TelegramAPI = (*tgbot.Bot)(nil)
