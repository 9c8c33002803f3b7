package workout

import (
	"bytes"
	"encoding/json"
	"strings"
)

// maxNormalizeDepth ограничивает разбор вложенных строк-JSON
const maxNormalizeDepth = 8

// MuscleGroups список групп мышц. При чтении из JSON любое историческое
// представление (строка, строка с JSON-массивом, вложенные массивы)
// приводится к плоскому списку.
type MuscleGroups []string

// NormalizeMuscleGroups приводит значение группы мышц любого формата к
// плоскому списку строк. Функция тотальная: для мусора возвращает пустой
// список, никогда не паникует. Порядок сохраняется, дубликаты (без учета
// регистра) отбрасываются.
func NormalizeMuscleGroups(v any) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})

	add := func(s string) {
		s = strings.Trim(s, " \t\r\n\"'[]\\")
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}

	collectMuscleGroups(v, 0, add)
	return out
}

func collectMuscleGroups(v any, depth int, add func(string)) {
	if depth > maxNormalizeDepth {
		return
	}

	switch val := v.(type) {
	case nil:
	case string:
		collectMuscleString(val, depth, add)
	case MuscleGroups:
		for _, s := range val {
			collectMuscleString(s, depth+1, add)
		}
	case []string:
		for _, s := range val {
			collectMuscleString(s, depth+1, add)
		}
	case []any:
		for _, item := range val {
			collectMuscleGroups(item, depth+1, add)
		}
	case json.RawMessage:
		collectMuscleString(string(val), depth, add)
	case []byte:
		collectMuscleString(string(val), depth, add)
	}
}

func collectMuscleString(s string, depth int, add func(string)) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}

	// Строка могла быть сохранена как закодированный JSON (иногда дважды)
	if s[0] == '[' || s[0] == '"' {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			collectMuscleGroups(decoded, depth+1, add)
			return
		}
	}

	for _, part := range strings.Split(s, ",") {
		add(part)
	}
}

// MarshalJSON всегда пишет чистый массив строк
func (m MuscleGroups) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(m))
}

// UnmarshalJSON не возвращает ошибок на поврежденных данных
func (m *MuscleGroups) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*m = NormalizeMuscleGroups(string(data))
		return nil
	}
	*m = NormalizeMuscleGroups(v)
	return nil
}

// Equal сравнивает сериализованные представления
func (m MuscleGroups) Equal(other MuscleGroups) bool {
	a, errA := m.MarshalJSON()
	b, errB := other.MarshalJSON()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (m MuscleGroups) String() string {
	return strings.Join(m, ", ")
}
