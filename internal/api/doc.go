// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (репозитории, guard, publisher, клиенты)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery, auth)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - auth_handler.go     — регистрация и вход (/auth)
//   - call_handler.go     — обработчики для /calls
//   - carrier_handler.go  — обработчики для /carriers
//   - load_handler.go     — обработчики для /loads
//   - rateconf_handler.go — обработчики для /rateconfs и публичный /sign/{token}
//   - referral_handler.go — обработчики для /referrals
//   - usage_handler.go    — обработчики для /usage
//   - billing_handler.go  — обработчики для /billing
//   - gdpr_handler.go     — GDPR export и delete
//   - webhook_handler.go  — входящие webhook'и телефонии и платёжного шлюза
//
// Все маршруты под /api/v1 требуют Bearer JWT и работают в рамках
// организации из токена. Исключения: /auth/*, /webhooks/* (подпись
// провайдера вместо JWT) и публичный /sign/{token}.
package api
