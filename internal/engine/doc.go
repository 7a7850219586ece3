// Package engine содержит движок редактирования workflow DAG.
//
// Включает:
//   - validate.go — структурная и ссылочная валидация DAG
//   - sort.go     — стабильная топологическая сортировка шагов
//   - modify.go   — применение батча tool calls к копии DAG
//   - tools.go    — разрешение ссылок на инструменты по каталогу
//
// Функции синхронные, входной DAG не модифицируется.
package engine
