package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/shaiso/flowedit/internal/domain"
)

// catalogValidate проверяет записи каталога по тегам validate.
var catalogValidate = validator.New()

// decodeFile читает JSON или YAML файл (по расширению) в v.
//
// YAML сначала переводится в JSON, чтобы работали json-теги
// и кодек domain.ToolCallList.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("convert %s to JSON: %w", path, err)
		}
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// LoadDAG загружает workflow DAG.
func LoadDAG(path string) (*domain.WorkflowDAG, error) {
	var dag domain.WorkflowDAG
	if err := decodeFile(path, &dag); err != nil {
		return nil, err
	}
	return &dag, nil
}

// LoadToolCalls загружает батч tool calls.
func LoadToolCalls(path string) (domain.ToolCallList, error) {
	var calls domain.ToolCallList
	if err := decodeFile(path, &calls); err != nil {
		return nil, err
	}
	return calls, nil
}

// LoadCatalog загружает каталог инструментов.
// Пустой путь означает отсутствие каталога.
func LoadCatalog(path string) ([]domain.WorkflowToolRef, error) {
	if path == "" {
		return nil, nil
	}
	var tools []domain.WorkflowToolRef
	if err := decodeFile(path, &tools); err != nil {
		return nil, err
	}
	if err := catalogValidate.Var(tools, "dive"); err != nil {
		return nil, fmt.Errorf("invalid tool catalog %s: %w", path, err)
	}
	return tools, nil
}

// ParseToolRef разбирает ссылку вида id или id@version.
func ParseToolRef(s string) domain.WorkflowToolRef {
	id, version, _ := strings.Cut(s, "@")
	return domain.WorkflowToolRef{ID: id, Version: version}
}
