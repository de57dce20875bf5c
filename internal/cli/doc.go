// Package cli реализует инструмент командной строки Freightline.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Freightline API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется операторами для просмотра звонков, usage и
// управления rate confirmations.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Freightline API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse),
// Bearer-аутентификацию и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080", token)
//	calls, err := client.ListCalls(cli.ListCallsOpts{})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: freightline call list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - call: list, show, reprocess
//   - usage: show, periods
//   - rateconf: list, show, send, void
//
// Каждая группа создаётся через фабричную функцию (NewCallCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
