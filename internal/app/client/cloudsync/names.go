package cloudsync

import (
	"context"
	"fmt"

	"workoutsync/internal/app/client/localstore"
	"workoutsync/internal/app/client/remote"
	"workoutsync/internal/domain/workout"
)

// Names переводит ссылки на упражнения в шаблонах между локальными id и
// именами. Имя единственный признак, по которому устройства узнают одно и
// то же упражнение.
type Names struct {
	local localstore.Exercises
}

func NewNames(local localstore.Exercises) *Names {
	return &Names{local: local}
}

type catalog struct {
	byID   map[string]string
	byName map[string]string
}

func (n *Names) catalog(ctx context.Context) (catalog, error) {
	list, err := n.local.ListExercises(ctx)
	if err != nil {
		return catalog{}, fmt.Errorf("чтение каталога упражнений: %w", err)
	}

	c := catalog{byID: make(map[string]string, len(list)), byName: make(map[string]string, len(list))}
	// Сначала действующие упражнения, чтобы имя указывало на них
	for _, deleted := range []bool{false, true} {
		for _, e := range list {
			if e.Deleted != deleted {
				continue
			}
			id := workout.FormatID(e.ID)
			c.byID[id] = e.Name
			if _, ok := c.byName[workout.ExerciseKey(e)]; !ok {
				c.byName[workout.ExerciseKey(e)] = id
			}
		}
	}
	return c, nil
}

// ToCloudForm добавляет к каждой ссылке имя упражнения
func (n *Names) ToCloudForm(ctx context.Context, list []workout.TemplateExercise) ([]remote.CloudExercise, error) {
	c, err := n.catalog(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]remote.CloudExercise, 0, len(list))
	for _, te := range list {
		out = append(out, remote.CloudExercise{
			ExerciseID:   te.ExerciseID,
			ExerciseName: c.byID[te.ExerciseID],
			InstanceID:   te.InstanceID,
			Sets:         te.Sets,
		})
	}
	return out, nil
}

// FromCloudForm заменяет id на id локального упражнения с тем же именем.
// Если такого упражнения на устройстве нет, остается исходный id.
func (n *Names) FromCloudForm(ctx context.Context, list []remote.CloudExercise) ([]workout.TemplateExercise, error) {
	c, err := n.catalog(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]workout.TemplateExercise, 0, len(list))
	for _, ce := range list {
		id := ce.ExerciseID
		if ce.ExerciseName != "" {
			if localID, ok := c.byName[workout.FoldName(ce.ExerciseName)]; ok {
				id = localID
			}
		}
		out = append(out, workout.TemplateExercise{
			ExerciseID: id,
			InstanceID: ce.InstanceID,
			Sets:       ce.Sets,
		})
	}
	return out, nil
}
