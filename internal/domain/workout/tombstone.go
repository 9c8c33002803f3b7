package workout

import (
	"fmt"
	"time"
)

// ItemType дискриминант удаленной записи
type ItemType string

const (
	ItemExercise         ItemType = "exercise"
	ItemTemplate         ItemType = "template"
	ItemScheduledWorkout ItemType = "scheduled_workout"
)

// Validate проверяет, что тип известен
func (t ItemType) Validate() error {
	switch t {
	case ItemExercise, ItemTemplate, ItemScheduledWorkout:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownTombstone, string(t))
}

// Tombstone намерение удалить запись на сервере. Реализации перечислены
// ниже, других быть не может.
type Tombstone interface {
	Kind() ItemType
	tombstone()
}

type ExerciseTombstone struct {
	LocalID int64
	Name    string
}

type TemplateTombstone struct {
	LocalID int64
	Name    string
}

type ScheduleTombstone struct {
	LocalID      int64
	Date         string
	TemplateName string
}

func (ExerciseTombstone) Kind() ItemType { return ItemExercise }
func (TemplateTombstone) Kind() ItemType { return ItemTemplate }
func (ScheduleTombstone) Kind() ItemType { return ItemScheduledWorkout }

func (ExerciseTombstone) tombstone() {}
func (TemplateTombstone) tombstone() {}
func (ScheduleTombstone) tombstone() {}

// DeletedItem сохраненная в локальном хранилище запись об удалении
type DeletedItem struct {
	ID        int64
	Target    Tombstone
	DeletedAt time.Time
}

// Flat плоское представление для хранения: тип, localId, name, date
func (d DeletedItem) Flat() (ItemType, int64, string, string) {
	switch t := d.Target.(type) {
	case ExerciseTombstone:
		return ItemExercise, t.LocalID, t.Name, ""
	case TemplateTombstone:
		return ItemTemplate, t.LocalID, t.Name, ""
	case ScheduleTombstone:
		return ItemScheduledWorkout, t.LocalID, t.TemplateName, t.Date
	}
	return "", 0, "", ""
}

// TombstoneFromFlat восстанавливает tombstone из плоского представления
func TombstoneFromFlat(typ ItemType, localID int64, name, date string) (Tombstone, error) {
	switch typ {
	case ItemExercise:
		return ExerciseTombstone{LocalID: localID, Name: name}, nil
	case ItemTemplate:
		return TemplateTombstone{LocalID: localID, Name: name}, nil
	case ItemScheduledWorkout:
		return ScheduleTombstone{LocalID: localID, Date: date, TemplateName: name}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTombstone, string(typ))
}
