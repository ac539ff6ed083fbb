package handler

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/telebot.v4"
)

// telegramFetcher downloads platform attachments by file reference.
type telegramFetcher struct {
	bot *telebot.Bot
}

func (f *telegramFetcher) Fetch(_ context.Context, sourceRef, destPath string) error {
	file, err := f.bot.FileByID(sourceRef)
	if err != nil {
		return fmt.Errorf("failed to resolve file reference: %w", err)
	}

	reader, err := f.bot.File(&file)
	if err != nil {
		return fmt.Errorf("failed to open file download: %w", err)
	}
	defer reader.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("failed to stream file to disk: %w", err)
	}
	return nil
}

// telegramDeliverer sends local audio files as voice messages.
type telegramDeliverer struct {
	bot *telebot.Bot
}

func (d *telegramDeliverer) DeliverVoice(_ context.Context, target int64, path string) error {
	voice := &telebot.Voice{File: telebot.FromDisk(path)}
	if _, err := d.bot.Send(telebot.ChatID(target), voice); err != nil {
		return fmt.Errorf("failed to send voice message: %w", err)
	}
	return nil
}
