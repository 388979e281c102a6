package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var formSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"trainingSessionId", "deliveryMode"},
	"properties": map[string]interface{}{
		"trainingSessionId": map[string]interface{}{"type": "string", "minLength": 1},
		"deliveryMode":      map[string]interface{}{"type": "string", "enum": []interface{}{"online", "on_premise"}},
		"participants": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"email"},
				"properties": map[string]interface{}{
					"email": map[string]interface{}{"type": "string", "format": "email"},
				},
			},
		},
	},
}

// ==========================
// JSON schema
// ==========================

func TestValidateDocument_Valid(t *testing.T) {
	doc := map[string]interface{}{
		"trainingSessionId": "sess-1",
		"deliveryMode":      "online",
		"participants":      []interface{}{map[string]interface{}{"email": "a@b.io"}},
	}
	res, err := ValidateDocument(doc, formSchema)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Nil(t, res.FormErrors())
}

func TestValidateDocument_Invalid(t *testing.T) {
	doc := map[string]interface{}{
		"deliveryMode": "both",
		"participants": []interface{}{
			map[string]interface{}{"email": "a@b.io"},
			map[string]interface{}{"email": "not-an-email"},
			map[string]interface{}{},
		},
	}
	res, err := ValidateDocument(doc, formSchema)
	require.NoError(t, err)
	assert.False(t, res.Valid)

	assert.True(t, res.HasErrors("trainingSessionId"))
	assert.True(t, res.HasErrors("deliveryMode"))
	assert.True(t, res.HasErrors("participants[1].email"))
	assert.True(t, res.HasErrors("participants[2].email"))
	assert.Equal(t, "REQUIRED", res.GetErrorsForField("trainingSessionId")[0].Code)
	assert.Len(t, res.FormErrors(), 4)
}

func TestCompileSchema_Invalid(t *testing.T) {
	_, err := CompileSchema(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}

// ==========================
// Structs
// ==========================

type payee struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"min=7,max=20"`
}

type form struct {
	Mode   string  `json:"deliveryMode" validate:"required,oneof=online on_premise"`
	Payees []payee `json:"payees" validate:"dive"`
	Fee    float64 `json:"applicationFee" validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	res := ValidateStruct(form{
		Mode:   "both",
		Payees: []payee{{Name: "A", Email: "a@b.io", Phone: "0700000000"}, {Email: "bad", Phone: "1"}},
		Fee:    -1,
	})

	assert.False(t, res.Valid)
	assert.Equal(t, []string{"applicationFee", "deliveryMode", "payees[1].email", "payees[1].name", "payees[1].phone"}, res.Fields())
	assert.Equal(t, "must be one of: online on_premise", res.GetErrorsForField("deliveryMode")[0].Message)
	assert.Equal(t, "must be at least 7 characters", res.GetErrorsForField("payees[1].phone")[0].Message)
	assert.Equal(t, "is required", res.GetErrorsForField("payees[1].name")[0].Message)
}

func TestValidateStruct_Valid(t *testing.T) {
	res := ValidateStruct(form{Mode: "online"})
	assert.True(t, res.Valid)
}

func TestMergeAndAdd(t *testing.T) {
	res := newResult(nil)
	res.Merge(nil)
	assert.True(t, res.Valid)

	res.Add("organizationName", "REQUIRED", "organization id or name is required")
	res.Merge(&ValidationResult{Errors: []ValidationError{{Field: "slots", Message: "x"}}})
	assert.False(t, res.Valid)
	assert.Equal(t, "organizationName: organization id or name is required; slots: x", res.Summary())
}
