package handlers

import (
	"bytes"
	"context"
	"errors"

	"github.com/Freeeeeet/court_booking/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// requireUser проверяет что пользователь существует
// Возвращает user и true если OK, nil и false если нет
func (h *Handlers) requireUser(ctx context.Context, b *bot.Bot, update *models.Update) (*model.User, bool) {
	if update.Message == nil || update.Message.From == nil {
		return nil, false
	}

	telegramID := update.Message.From.ID
	user, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			h.logger.Error("Failed to get user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		}
		h.replyError(ctx, b, update.Message.Chat.ID, err)
		return nil, false
	}

	return user, true
}

// selectedCourt корт из аргументов или выбранный ранее
func (h *Handlers) selectedCourt(update *models.Update, args []string) (int64, []string, error) {
	selected, ok := h.stateManager.SelectedCourt(update.Message.From.ID)
	return courtArg(args, selected, ok)
}

// selectedCourtFixed для команд, у которых want собственных аргументов
func (h *Handlers) selectedCourtFixed(update *models.Update, args []string, want int) (int64, []string, error) {
	selected, ok := h.stateManager.SelectedCourt(update.Message.From.ID)
	return courtArgFixed(args, want, selected, ok)
}

// replyError отправляет пользователю текст ошибки.
// Ошибки хранилища и неожиданные ошибки попадают в лог.
func (h *Handlers) replyError(ctx context.Context, b *bot.Bot, chatID int64, err error) {
	if errors.Is(err, model.ErrStorage) || !isDomainError(err) {
		h.logger.Error("Command failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.sendError(ctx, b, chatID, ErrorMessage(err))
}

func isDomainError(err error) bool {
	return errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrConflict) ||
		errors.Is(err, model.ErrUnauthorized) ||
		errors.Is(err, errNoCourt) ||
		errors.Is(err, errUsage)
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

// sendPhoto отправляет PNG с подписью
func (h *Handlers) sendPhoto(ctx context.Context, b *bot.Bot, chatID int64, filename string, data []byte, caption string) {
	_, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:  chatID,
		Photo:   &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption: caption,
	})
	if err != nil {
		h.logger.Error("Failed to send photo",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
