package models

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ключи сообщений для пользователя, тексты лежат в каталоге x/text
const (
	MsgInvalidFileType  = "invalid-file-type"
	MsgFileTooLarge     = "file-too-large"
	MsgFileReadFailed   = "file-read-failed"
	MsgProcessingFailed = "processing-failed"
)

var catalog = []struct {
	tag language.Tag
	key string
	msg string
}{
	{language.Russian, MsgInvalidFileType, "Пожалуйста, загрузите файл изображения (JPG, PNG)."},
	{language.Russian, MsgFileTooLarge, "Файл слишком большой. Максимальный размер 10 МБ."},
	{language.Russian, MsgFileReadFailed, "Ошибка чтения файла."},
	{language.Russian, MsgProcessingFailed, "Ошибка обработки изображения."},

	{language.English, MsgInvalidFileType, "Please upload an image file (JPG, PNG)."},
	{language.English, MsgFileTooLarge, "The file is too large. Maximum size is 10 MB."},
	{language.English, MsgFileReadFailed, "Could not read the file."},
	{language.English, MsgProcessingFailed, "Could not process the image."},
}

func init() {
	for _, m := range catalog {
		if err := message.SetString(m.tag, m.key, m.msg); err != nil {
			panic(err)
		}
	}
}

// Printer returns a printer for "ru" or "en"; anything else falls back to Russian.
func Printer(lang string) *message.Printer {
	if lang == "en" {
		return message.NewPrinter(language.English)
	}
	return message.NewPrinter(language.Russian)
}

// MessageKey maps an error to one of the four user messages.
// Errors outside the taxonomy are reported as processing failures.
func MessageKey(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFileType):
		return MsgInvalidFileType
	case errors.Is(err, ErrFileTooLarge):
		return MsgFileTooLarge
	case errors.Is(err, ErrFileRead):
		return MsgFileReadFailed
	default:
		return MsgProcessingFailed
	}
}

func UserMessage(p *message.Printer, err error) string {
	return p.Sprintf(MessageKey(err))
}
