package domain

import (
	"errors"
	"fmt"
)

// ErrUserNotFound возвращается, когда операция ссылается на несозданного пользователя.
// Это нарушение контракта вызывающей стороны: сначала GetOrCreate.
var ErrUserNotFound = errors.New("пользователь не найден")

// ErrTranscription возвращается, когда сервис распознавания речи недоступен или отказал.
var ErrTranscription = errors.New("ошибка распознавания речи")

// ErrExtraction возвращается, когда извлечение активностей не удалось:
// провайдер недоступен либо вернул неразбираемый ответ.
var ErrExtraction = errors.New("ошибка извлечения активностей")

// ErrPersistence возвращается, когда хранилище отклонило запись.
// Записи, зафиксированные до сбоя, остаются зафиксированными.
var ErrPersistence = errors.New("ошибка сохранения")

// ValidationError описывает запись, не прошедшую проверку схемы.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("невалидная запись: поле %s: %s", e.Field, e.Reason)
}
