package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

func testRegistry() *Registry {
	return NewRegistry(map[string]Definition{
		"widgets": {
			RequiredFields: []string{"name", "size"},
			FieldTypes: map[string]FieldType{
				"name":    TypeString,
				"size":    TypeNumber,
				"active":  TypeBoolean,
				"tags":    TypeArray,
				"meta":    TypeObject,
				"dueDate": TypeDate,
			},
			Defaults: map[string]any{
				"active": true,
				"tags":   []any{},
			},
		},
	})
}

func TestValidate(t *testing.T) {
	r := testRegistry()

	t.Run("UnknownCollection", func(t *testing.T) {
		err := r.Validate("nope", types.Record{})
		assert.ErrorIs(t, err, api.ErrSchemaNotFound)
	})

	t.Run("ReportsEveryMissingRequiredField", func(t *testing.T) {
		err := r.Validate("widgets", types.Record{})
		require.Error(t, err)

		var ve *api.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.ElementsMatch(t, []string{"name", "size"}, ve.MissingFields)
	})

	t.Run("NilValueCountsAsMissing", func(t *testing.T) {
		err := r.Validate("widgets", types.Record{"name": nil, "size": 3})
		var ve *api.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, []string{"name"}, ve.MissingFields)
	})

	t.Run("WrongDeclaredType", func(t *testing.T) {
		err := r.Validate("widgets", types.Record{"name": "a", "size": "big"})
		var ve *api.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "number", ve.WrongTypes["size"])
	})

	t.Run("AcceptsJSONAndNativeNumbers", func(t *testing.T) {
		assert.NoError(t, r.Validate("widgets", types.Record{"name": "a", "size": float64(2)}))
		assert.NoError(t, r.Validate("widgets", types.Record{"name": "a", "size": 2}))
	})

	t.Run("DateAcceptsRFC3339String", func(t *testing.T) {
		assert.NoError(t, r.Validate("widgets", types.Record{
			"name": "a", "size": 1, "dueDate": "2026-01-02T15:04:05Z",
		}))
		err := r.Validate("widgets", types.Record{"name": "a", "size": 1, "dueDate": "tomorrow"})
		var ve *api.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "date", ve.WrongTypes["dueDate"])
	})

	t.Run("ArrayAndObjectShapes", func(t *testing.T) {
		assert.NoError(t, r.Validate("widgets", types.Record{
			"name": "a", "size": 1,
			"tags": []any{"x"},
			"meta": map[string]any{"k": "v"},
		}))
	})
}

func TestApplyDefaults(t *testing.T) {
	r := testRegistry()

	t.Run("FillsAbsentFields", func(t *testing.T) {
		out, err := r.ApplyDefaults("widgets", types.Record{"name": "a"})
		require.NoError(t, err)
		assert.Equal(t, true, out["active"])
		assert.Equal(t, []any{}, out["tags"])
	})

	t.Run("NeverOverwritesCallerValuesIncludingFalsy", func(t *testing.T) {
		out, err := r.ApplyDefaults("widgets", types.Record{"name": "", "active": false})
		require.NoError(t, err)
		assert.Equal(t, "", out["name"])
		assert.Equal(t, false, out["active"])
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		in := types.Record{"name": "a"}
		_, err := r.ApplyDefaults("widgets", in)
		require.NoError(t, err)
		_, hasDefault := in["active"]
		assert.False(t, hasDefault)
	})

	t.Run("UnknownCollection", func(t *testing.T) {
		_, err := r.ApplyDefaults("nope", types.Record{})
		assert.ErrorIs(t, err, api.ErrSchemaNotFound)
	})
}

func TestRegisterReplaces(t *testing.T) {
	r := testRegistry()
	r.Register("widgets", Definition{RequiredFields: []string{"onlyThis"}})

	err := r.Validate("widgets", types.Record{"onlyThis": "x"})
	assert.NoError(t, err)
}

func TestDefaultDefinitions(t *testing.T) {
	r := NewRegistry(DefaultDefinitions())

	expected := []string{
		"users", "courses", "lessons", "assignments", "submissions", "quizzes",
		"enrollments", "discussions", "announcements", "events", "grades",
		"notifications", "messages", "analytics", "liveSessions", "certificates",
		"studyGroups", "aiTutorSessions",
	}
	assert.ElementsMatch(t, expected, r.Collections())

	t.Run("CourseDefaults", func(t *testing.T) {
		out, err := r.ApplyDefaults("courses", types.Record{
			"title": "Intro to AI", "code": "CS401", "instructorId": "u1",
			"category": "CS", "level": "undergrad", "credits": 3,
		})
		require.NoError(t, err)
		assert.Equal(t, 0, out["currentEnrollment"])
		assert.Equal(t, "draft", out["status"])
		assert.Equal(t, 0, out["rating"])
		assert.Equal(t, "USD", out["currency"])
		assert.NoError(t, r.Validate("courses", out))
	})
}
