package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID разбирает числовой идентификатор из аргумента команды
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("некорректный идентификатор %q", arg)
	}
	return id, nil
}

// SplitList разбирает список через запятую, пустые элементы отбрасываются
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
