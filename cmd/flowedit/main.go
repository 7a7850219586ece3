// flowedit — инструмент командной строки для проверки, упорядочивания
// и редактирования workflow DAG.
//
// Использование:
//
//	flowedit [--json] [--metrics] <command> [flags]
//
// Команды:
//
//	validate  Проверка DAG (и ссылок на инструменты по каталогу)
//	sort      Шаги в порядке выполнения
//	apply     Применение батча tool calls
//	tools     Каталог инструментов и разрешение ссылок
package main

import (
	"fmt"
	"os"

	"github.com/shaiso/flowedit/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	app := cli.NewApp(version, os.Stdout, os.Stderr)

	if err := app.Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
