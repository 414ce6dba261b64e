// Package mocks provides mock implementations for testing bot handlers.
package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// TelegramAPI defines the interface for Telegram bot operations.
// It lives here to avoid an import cycle between bot and mocks.
type TelegramAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
}

// SentMessage captures a message sent via MockBot.
type SentMessage struct {
	ChatID    any
	Text      string
	ParseMode models.ParseMode
}

// SentPhoto captures a photo sent via MockBot.
type SentPhoto struct {
	ChatID  any
	Caption string
}

// SentDocument captures a document sent via MockBot.
type SentDocument struct {
	ChatID   any
	Filename string
	Caption  string
	Data     []byte
}

// Compile-time check that MockBot implements TelegramAPI.
var _ TelegramAPI = (*MockBot)(nil)

// MockBot simulates Telegram bot operations for testing.
type MockBot struct {
	mu sync.RWMutex

	SentMessages  []SentMessage
	SentPhotos    []SentPhoto
	SentDocuments []SentDocument

	// SendMessageError allows simulating SendMessage failures.
	SendMessageError error
	// SendPhotoError allows simulating SendPhoto failures.
	SendPhotoError error
	// SendDocumentError allows simulating SendDocument failures.
	SendDocumentError error

	// NextMessageID is auto-incremented for each sent message.
	NextMessageID int
}

// NewMockBot creates a new MockBot instance.
func NewMockBot() *MockBot {
	return &MockBot{
		SentMessages:  make([]SentMessage, 0),
		SentPhotos:    make([]SentPhoto, 0),
		SentDocuments: make([]SentDocument, 0),
		NextMessageID: 1,
	}
}

// SendMessage records the message and returns a fake Message.
func (m *MockBot) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendMessageError != nil {
		return nil, m.SendMessageError
	}

	m.SentMessages = append(m.SentMessages, SentMessage{
		ChatID:    params.ChatID,
		Text:      params.Text,
		ParseMode: params.ParseMode,
	})

	msg := &models.Message{ID: m.NextMessageID, Text: params.Text}
	m.NextMessageID++
	return msg, nil
}

// SendPhoto records the photo and returns a fake Message.
func (m *MockBot) SendPhoto(_ context.Context, params *bot.SendPhotoParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendPhotoError != nil {
		return nil, m.SendPhotoError
	}

	m.SentPhotos = append(m.SentPhotos, SentPhoto{
		ChatID:  params.ChatID,
		Caption: params.Caption,
	})

	msg := &models.Message{ID: m.NextMessageID}
	m.NextMessageID++
	return msg, nil
}

// SendDocument records the document and returns a fake Message.
func (m *MockBot) SendDocument(_ context.Context, params *bot.SendDocumentParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendDocumentError != nil {
		return nil, m.SendDocumentError
	}

	doc := SentDocument{ChatID: params.ChatID, Caption: params.Caption}
	if upload, ok := params.Document.(*models.InputFileUpload); ok {
		doc.Filename = upload.Filename
		if upload.Data != nil {
			doc.Data, _ = io.ReadAll(upload.Data)
		}
	}
	m.SentDocuments = append(m.SentDocuments, doc)

	msg := &models.Message{ID: m.NextMessageID}
	m.NextMessageID++
	return msg, nil
}

// LastMessage returns the most recently sent message, or nil.
func (m *MockBot) LastMessage() *SentMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.SentMessages) == 0 {
		return nil
	}
	return &m.SentMessages[len(m.SentMessages)-1]
}

// Reset clears all recorded interactions.
func (m *MockBot) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentMessages = m.SentMessages[:0]
	m.SentPhotos = m.SentPhotos[:0]
	m.SentDocuments = m.SentDocuments[:0]
}
