package domain

// CallStatus — статус обработки звонка.
//
// Жизненный цикл:
//
//	RECORDED → ADMITTED → TRANSCRIBING → EXTRACTING → COMPLETED
//	         ↘ REJECTED                             ↘ FAILED
//
// REJECTED — guard не пропустил звонок (лимит минут / денежный cap).
// FAILED — обработка началась, но не завершилась (после всех retry
// или по истечении processing lock).
type CallStatus string

const (
	// CallStatusRecorded — запись получена от телефонии, обработка не начата.
	CallStatusRecorded CallStatus = "RECORDED"

	// CallStatusAdmitted — guard пропустил звонок, lock захвачен.
	CallStatusAdmitted CallStatus = "ADMITTED"

	// CallStatusTranscribing — выполняется транскрипция.
	CallStatusTranscribing CallStatus = "TRANSCRIBING"

	// CallStatusExtracting — выполняется извлечение структурированных полей.
	CallStatusExtracting CallStatus = "EXTRACTING"

	// CallStatusCompleted — обработка успешно завершена.
	CallStatusCompleted CallStatus = "COMPLETED"

	// CallStatusFailed — обработка завершилась с ошибкой.
	CallStatusFailed CallStatus = "FAILED"

	// CallStatusRejected — звонок отклонён guard'ом (не обрабатывался).
	CallStatusRejected CallStatus = "REJECTED"
)

// IsTerminal возвращает true, если статус финальный (обработка завершена).
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusRejected:
		return true
	default:
		return false
	}
}

// JobStatus — статус выполнения processing job.
//
// Жизненный цикл:
//
//	QUEUED → RUNNING → SUCCEEDED
//	                 ↘ FAILED (может быть retry → обратно в QUEUED)
type JobStatus string

const (
	// JobStatusQueued — job в очереди, ожидает воркера.
	JobStatusQueued JobStatus = "QUEUED"

	// JobStatusRunning — job выполняется воркером.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSucceeded — job успешно завершён.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusFailed — job завершился с ошибкой (после всех retry).
	JobStatusFailed JobStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed:
		return true
	default:
		return false
	}
}

// RateConfStatus — статус rate confirmation (документооборот с подписью).
//
// Жизненный цикл:
//
//	DRAFT → SENT → SIGNED
//	             ↘ DECLINED
//	(VOID — из любого нефинального статуса)
type RateConfStatus string

const (
	// RateConfStatusDraft — черновик, можно редактировать.
	RateConfStatusDraft RateConfStatus = "DRAFT"

	// RateConfStatusSent — отправлен перевозчику на подпись.
	RateConfStatusSent RateConfStatus = "SENT"

	// RateConfStatusSigned — подписан перевозчиком.
	RateConfStatusSigned RateConfStatus = "SIGNED"

	// RateConfStatusDeclined — отклонён перевозчиком.
	RateConfStatusDeclined RateConfStatus = "DECLINED"

	// RateConfStatusVoid — аннулирован брокером.
	RateConfStatusVoid RateConfStatus = "VOID"
)

// IsTerminal возвращает true, если статус финальный.
func (s RateConfStatus) IsTerminal() bool {
	switch s {
	case RateConfStatusSigned, RateConfStatusDeclined, RateConfStatusVoid:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RateConfStatus.
func (s RateConfStatus) String() string {
	return string(s)
}

// ReferralStatus — статус реферального приглашения.
type ReferralStatus string

const (
	// ReferralStatusPending — приглашение отправлено, регистрации не было.
	ReferralStatusPending ReferralStatus = "PENDING"

	// ReferralStatusConverted — приглашённый зарегистрировался и оплатил.
	ReferralStatusConverted ReferralStatus = "CONVERTED"

	// ReferralStatusExpired — приглашение истекло.
	ReferralStatusExpired ReferralStatus = "EXPIRED"
)

// CommissionStatus — статус партнёрской комиссии.
type CommissionStatus string

const (
	// CommissionStatusPending — комиссия начислена, выплата не произведена.
	CommissionStatusPending CommissionStatus = "PENDING"

	// CommissionStatusSettled — комиссия выплачена.
	CommissionStatusSettled CommissionStatus = "SETTLED"

	// CommissionStatusVoid — комиссия аннулирована (например, refund).
	CommissionStatusVoid CommissionStatus = "VOID"
)

// PeriodStatus — статус расчётного периода usage.
//
// Жизненный цикл:
//
//	OPEN → CLOSED → SETTLED
//
// OPEN — текущий месяц, счётчики обновляются.
// CLOSED — месяц закончился, счётчики зафиксированы.
// SETTLED — overage списан через платёжный шлюз (или списывать нечего).
type PeriodStatus string

const (
	// PeriodStatusOpen — период открыт, минуты накапливаются.
	PeriodStatusOpen PeriodStatus = "OPEN"

	// PeriodStatusClosed — период закрыт, ожидает биллинга.
	PeriodStatusClosed PeriodStatus = "CLOSED"

	// PeriodStatusSettled — overage выставлен и оплачен.
	PeriodStatusSettled PeriodStatus = "SETTLED"
)
