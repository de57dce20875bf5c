// Package pipeline управляет обработкой записанных звонков.
//
// Pipeline отвечает за:
//   - Получение событий о новых записях из очереди RabbitMQ
//   - Admission через usage guard (допуск или отказ по лимитам плана)
//   - Создание processing jobs и проведение звонка по стадиям
//     (транскрипция → извлечение полей)
//   - Сохранение Transcript и Extraction из результатов jobs
//   - Финализацию звонка (COMPLETED/FAILED) и reconcile фактических минут
//
// Pipeline — это "мозг" обработки, который координирует стадии.
package pipeline
