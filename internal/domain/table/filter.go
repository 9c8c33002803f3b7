package table

// Cond условие равенства по одному полю. Fold включает сравнение строк без
// учета регистра.
type Cond struct {
	Field string `json:"field" doc:"Имя колонки"`
	Value any    `json:"value" doc:"Значение для сравнения"`
	Fold  bool   `json:"fold,omitempty" doc:"Сравнение без учета регистра"`
}

// Filter конъюнкция условий
type Filter []Cond

// Eq точное равенство
func Eq(field string, value any) Cond {
	return Cond{Field: field, Value: value}
}

// IEq равенство строк без учета регистра
func IEq(field, value string) Cond {
	return Cond{Field: field, Value: value, Fold: true}
}

// Where собирает фильтр из условий
func Where(conds ...Cond) Filter {
	return Filter(conds)
}

// And возвращает новый фильтр с дополнительными условиями
func (f Filter) And(conds ...Cond) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}
