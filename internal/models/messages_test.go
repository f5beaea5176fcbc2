package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err error
		ru  string
		en  string
	}{
		{ErrInvalidFileType, "Пожалуйста, загрузите файл изображения (JPG, PNG).", "Please upload an image file (JPG, PNG)."},
		{ErrFileTooLarge, "Файл слишком большой. Максимальный размер 10 МБ.", "The file is too large. Maximum size is 10 MB."},
		{ErrFileRead, "Ошибка чтения файла.", "Could not read the file."},
		{ErrImageDecode, "Ошибка обработки изображения.", "Could not process the image."},
		{ErrProcessing, "Ошибка обработки изображения.", "Could not process the image."},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			wrapped := NewError("Loader.Load", "x.png", fmt.Errorf("%w: %w", tt.err, errors.New("cause")))
			assert.Equal(t, tt.ru, UserMessage(Printer("ru"), wrapped))
			assert.Equal(t, tt.en, UserMessage(Printer("en"), wrapped))
		})
	}
}

func TestUserMessageUnknownError(t *testing.T) {
	assert.Equal(t, MsgProcessingFailed, MessageKey(errors.New("boom")))
	assert.Equal(t, "Ошибка обработки изображения.", UserMessage(Printer("de"), errors.New("boom")))
}

func TestErrorFormatting(t *testing.T) {
	err := NewError("Storage.Save", "/out/a_bw.jpg", ErrInvalidInput)
	assert.Equal(t, "Storage.Save: /out/a_bw.jpg: invalid input", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = NewError("App.Download", "", ErrNothingToDownload)
	assert.Equal(t, "App.Download: no processed image to download", err.Error())
}
