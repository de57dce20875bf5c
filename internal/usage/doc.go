// Package usage реализует admission guard и ledger минут обработки.
//
// Guard решает, можно ли обрабатывать новый звонок:
// текущие минуты периода + зарезервированные (pending locks) + оценка
// нового звонка сравниваются с лимитом плана; overage ограничен
// денежным cap'ом и потолком минут.
//
// Инвариант: Allowed == true ⇒ ProjectedCharge <= ChargeCap
// и ProjectedOverageMinutes <= OverageMinutesCap.
//
// Lock — строка в processing_locks с TTL (expires_at). Просроченные
// locks снимает scheduler; guard их не учитывает.
package usage
