package workout

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FoldName приводит имя к виду для сравнения без учета регистра
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SameName сравнивает имена без учета регистра
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// ExerciseKey естественный ключ упражнения
func ExerciseKey(e Exercise) string {
	return FoldName(e.Name)
}

// TemplateKey естественный ключ шаблона
func TemplateKey(t WorkoutTemplate) string {
	return FoldName(t.Name)
}

// ScheduleKey естественный ключ запланированной тренировки: дата + имя шаблона
func ScheduleKey(date, templateName string) string {
	return date + "|" + FoldName(templateName)
}

// FormatID локальный идентификатор в строковом виде, как он хранится в ссылках
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ParseID разбирает строковую ссылку на локальную запись
func ParseID(ref string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(ref), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ValidateDate проверяет формат YYYY-MM-DD
func ValidateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: дата %q не в формате YYYY-MM-DD", ErrInvalidData, date)
	}
	return nil
}
