package pipeline

import "errors"

// Ошибки pipeline.
var (
	// ErrCallNotFound — звонок не найден в БД.
	ErrCallNotFound = errors.New("call not found")

	// ErrCallNotRecorded — звонок не в статусе RECORDED.
	ErrCallNotRecorded = errors.New("call is not in RECORDED status")

	// ErrJobNotFound — job не найден в БД.
	ErrJobNotFound = errors.New("job not found")

	// ErrUnknownStage — событие о неизвестной стадии.
	ErrUnknownStage = errors.New("unknown processing stage")

	// ErrMissingTranscriptText — в outputs транскрипции нет текста.
	ErrMissingTranscriptText = errors.New("missing transcript text in job outputs")
)
