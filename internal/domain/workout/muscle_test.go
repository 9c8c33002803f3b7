package workout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMuscleGroups(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{name: "nil", input: nil, expected: []string{}},
		{name: "empty string", input: "", expected: []string{}},
		{name: "plain string", input: "Chest", expected: []string{"Chest"}},
		{name: "comma separated", input: "Chest, Triceps", expected: []string{"Chest", "Triceps"}},
		{name: "stringified array", input: `["Chest","Triceps"]`, expected: []string{"Chest", "Triceps"}},
		{name: "double encoded", input: `"[\"Chest\",\"Triceps\"]"`, expected: []string{"Chest", "Triceps"}},
		{name: "clean slice", input: []string{"Back", "Biceps"}, expected: []string{"Back", "Biceps"}},
		{name: "slice with stringified element", input: []string{`["Chest","Triceps"]`}, expected: []string{"Chest", "Triceps"}},
		{name: "nested any", input: []any{[]any{"Legs"}, "Glutes"}, expected: []string{"Legs", "Glutes"}},
		{name: "non string elements ignored", input: []any{1.0, true, "Core", map[string]any{"a": "b"}}, expected: []string{"Core"}},
		{name: "duplicates case insensitive", input: []string{"Chest", "chest", "CHEST", "Back"}, expected: []string{"Chest", "Back"}},
		{name: "whitespace trimmed", input: []string{"  Shoulders ", "", " "}, expected: []string{"Shoulders"}},
		{name: "broken json falls back", input: `["Chest", "Tri`, expected: []string{"Chest", "Tri"}},
		{name: "raw message", input: json.RawMessage(`["Quads"]`), expected: []string{"Quads"}},
		{name: "bytes", input: []byte(`"Hamstrings"`), expected: []string{"Hamstrings"}},
		{name: "unsupported type", input: 42, expected: []string{}},
		{name: "muscle groups type", input: MuscleGroups{"Calves"}, expected: []string{"Calves"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeMuscleGroups(tt.input))
		})
	}
}

func TestNormalizeMuscleGroups_DeepNestingTerminates(t *testing.T) {
	var v any = "Chest"
	for i := 0; i < 50; i++ {
		v = []any{v}
	}

	assert.NotPanics(t, func() {
		NormalizeMuscleGroups(v)
	})
}

func TestMuscleGroups_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected MuscleGroups
	}{
		{name: "array", payload: `{"muscleGroups":["Chest","Triceps"]}`, expected: MuscleGroups{"Chest", "Triceps"}},
		{name: "legacy single string", payload: `{"muscleGroups":"Chest"}`, expected: MuscleGroups{"Chest"}},
		{name: "stringified array", payload: `{"muscleGroups":"[\"Chest\",\"Triceps\"]"}`, expected: MuscleGroups{"Chest", "Triceps"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e Exercise
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &e))
			assert.Equal(t, tt.expected, e.MuscleGroups)
		})
	}
}

func TestMuscleGroups_UnmarshalNull(t *testing.T) {
	var e Exercise
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Plank","muscleGroups":null}`), &e))
	assert.Empty(t, e.MuscleGroups)
}

func TestMuscleGroups_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Exercise{Name: "Plank"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"muscleGroups":[]`)

	data, err = json.Marshal(MuscleGroups{"Core"})
	require.NoError(t, err)
	assert.Equal(t, `["Core"]`, string(data))
}

func TestMuscleGroups_Equal(t *testing.T) {
	assert.True(t, MuscleGroups{"Chest"}.Equal(MuscleGroups{"Chest"}))
	assert.True(t, MuscleGroups(nil).Equal(MuscleGroups{}))
	assert.False(t, MuscleGroups{"Chest", "Back"}.Equal(MuscleGroups{"Back", "Chest"}))
	assert.False(t, MuscleGroups{"Chest"}.Equal(MuscleGroups{"chest"}))
}
