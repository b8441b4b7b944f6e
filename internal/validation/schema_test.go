package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredFieldsValidator(t *testing.T) {
	validator, err := NewRequiredFieldsValidator([]string{"title", " author.name ", "title", ""})
	require.NoError(t, err)
	require.NotNil(t, validator)

	assert.NoError(t, validator.Validate(map[string]string{
		"title":       "Hello",
		"author.name": "Ada",
		"extra":       "allowed",
	}))

	err = validator.Validate(map[string]string{"title": ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFrontMatterRejected))

	issues := Issues(err)
	require.Len(t, issues, 2)
	joined := err.Error()
	assert.Contains(t, joined, "author.name")
	assert.True(t, strings.HasPrefix(joined, "#"), "expected locations to be anchored: %s", joined)
}

func TestRequiredFieldsValidator_Empty(t *testing.T) {
	validator, err := NewRequiredFieldsValidator(nil)
	require.NoError(t, err)
	assert.Nil(t, validator)
	assert.NoError(t, validator.Validate(map[string]string{}))
}

func TestNewValidator_JSONSchema(t *testing.T) {
	validator, err := NewValidator(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"draft": map[string]any{"enum": []any{"true", "false"}},
		},
	})
	require.NoError(t, err)

	assert.NoError(t, validator.Validate(map[string]string{"draft": "false"}))
	assert.Error(t, validator.Validate(map[string]string{"draft": "maybe"}))
}

func TestNewValidator_InvalidSchema(t *testing.T) {
	_, err := NewValidator(map[string]any{"type": 42})
	assert.True(t, errors.Is(err, ErrSchemaInvalid), "got %v", err)
}

func TestNormalizeSchema_Fields(t *testing.T) {
	normalized := NormalizeSchema(map[string]any{
		"fields": []any{
			"summary",
			map[string]any{"name": "weight", "type": "INTEGER", "required": true},
		},
	})
	require.NotNil(t, normalized)

	assert.Equal(t, false, normalized["additionalProperties"])
	assert.Equal(t, []any{"weight"}, normalized["required"])
	properties := normalized["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "integer"}, properties["weight"])
	assert.Equal(t, map[string]any{}, properties["summary"])
}

func TestIssues_PlainError(t *testing.T) {
	issues := Issues(errors.New("boom"))
	require.Len(t, issues, 1)
	assert.Equal(t, "boom", issues[0].Message)
	assert.Nil(t, Issues(nil))
}
