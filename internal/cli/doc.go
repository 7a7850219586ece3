// Package cli реализует инструмент командной строки flowedit.
//
// # Обзор
//
// CLI работает с файлами: читает DAG, батч tool calls и каталог
// инструментов (JSON или YAML по расширению), вызывает движок engine
// и печатает результат.
//
// # Ключевые компоненты
//
// ## App
//
// Корневая cobra-команда. Настраивает slog-логгер (в stderr) и передаёт
// его подкомандам через контекст. С флагом --metrics после выполнения
// печатает Prometheus метрики в stderr.
//
//	app := cli.NewApp("dev", os.Stdout, os.Stderr)
//	err := app.Run([]string{"validate", "--dag", "workflow.json"})
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.Encoder с отступами) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Warn) — в stderr.
//
// ## Commands
//
//   - validate: проверка одного или нескольких DAG (--dag повторяется),
//     опционально по каталогу --tools
//   - sort: шаги в порядке выполнения
//   - apply: применение tool calls, результат в stdout или --out
//   - tools: список каталога или разрешение ссылок id[@version]
package cli
