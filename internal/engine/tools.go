package engine

import "github.com/shaiso/flowedit/internal/domain"

// ResolveToolRef сопоставляет ссылку с каталогом инструментов.
//
// Порядок поиска:
//  1. точное совпадение (ID, Version) — возвращается запись каталога;
//  2. совпадение по ID с wildcard-версией с любой стороны — версия
//     ссылки сохраняется, имя берётся из каталога;
//  3. иначе ссылка возвращается как есть, ok = false.
func ResolveToolRef(ref domain.WorkflowToolRef, catalog []domain.WorkflowToolRef) (domain.WorkflowToolRef, bool) {
	for _, tool := range catalog {
		if tool.ID == ref.ID && tool.Version == ref.Version {
			if tool.Name == "" {
				tool.Name = ref.Name
			}
			return tool, true
		}
	}

	for _, tool := range catalog {
		if ref.Matches(tool) {
			resolved := domain.WorkflowToolRef{ID: ref.ID, Name: tool.Name, Version: ref.Version}
			if resolved.Name == "" {
				resolved.Name = ref.Name
			}
			return resolved, true
		}
	}

	return ref, false
}

// resolveToolRefs разрешает список ссылок, сохраняя порядок.
// Неразрешённые ссылки остаются как есть — их отвергнет финальная валидация.
func resolveToolRefs(refs []domain.WorkflowToolRef, catalog []domain.WorkflowToolRef) []domain.WorkflowToolRef {
	if refs == nil {
		return nil
	}
	out := make([]domain.WorkflowToolRef, 0, len(refs))
	for _, ref := range refs {
		resolved, _ := ResolveToolRef(ref, catalog)
		out = append(out, resolved)
	}
	return out
}

// toolKnown проверяет, что ссылка разрешается по каталогу.
func toolKnown(ref domain.WorkflowToolRef, catalog []domain.WorkflowToolRef) bool {
	for _, tool := range catalog {
		if ref.Matches(tool) {
			return true
		}
	}
	return false
}
