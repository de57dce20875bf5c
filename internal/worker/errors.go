package worker

import "errors"

// Ошибки воркера.
var (
	// ErrJobNotFound — job не найден в БД.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotQueued — job не в статусе QUEUED.
	ErrJobNotQueued = errors.New("job is not in QUEUED status")

	// ErrUnknownStage — нет executor'а для данной стадии.
	ErrUnknownStage = errors.New("unknown processing stage")

	// ErrMissingRecordingURL — в payload нет ссылки на запись.
	ErrMissingRecordingURL = errors.New("missing recording url in payload")

	// ErrTranscriptNotFound — расшифровка для стадии extract не найдена.
	ErrTranscriptNotFound = errors.New("transcript not found")

	// ErrRetryExhausted — все попытки retry исчерпаны.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
)
