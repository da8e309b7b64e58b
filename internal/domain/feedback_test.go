package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFeedback() Feedback {
	return Feedback{
		Collaborator: "ana.garza",
		Comment:      "Refrigerador sin funcionar desde el lunes",
		Category:     "infraestructura",
		Urgency:      "alta",
	}
}

func TestFeedbackValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Feedback)
		contains string
	}{
		{"valid", func(*Feedback) {}, ""},
		{"comment at limit in runes", func(f *Feedback) { f.Comment = strings.Repeat("ñ", MaxCommentLength) }, ""},
		{"comment over limit", func(f *Feedback) { f.Comment = strings.Repeat("a", MaxCommentLength+1) }, "exceeds 500"},
		{"blank comment", func(f *Feedback) { f.Comment = "  " }, "comentario is required"},
		{"missing collaborator", func(f *Feedback) { f.Collaborator = "" }, "colaborador is required"},
		{"unknown category", func(f *Feedback) { f.Category = "seguridad" }, `unknown categoria "seguridad"`},
		{"unknown urgency", func(f *Feedback) { f.Urgency = "urgente" }, `unknown urgencia "urgente"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFeedback()
			tt.mutate(&f)
			err := f.Validate()
			if tt.contains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFeedback)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestDecodeFeedbackReceipt(t *testing.T) {
	t.Run("accepted with analysis", func(t *testing.T) {
		body := `{
			"success": true,
			"message": "Feedback registrado",
			"feedback": {"_id": "665f", "tienda_id": 7, "colaborador": "ana", "fecha": "2025-06-01", "comentario": "x", "categoria": "otro", "urgencia": "baja", "resuelto": false},
			"analysis": {"generated": true, "priority": "media", "summary": "Sin riesgo"}
		}`
		r, err := DecodeFeedbackReceipt([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, "Feedback registrado", r.Message)
		require.NotNil(t, r.Feedback)
		assert.Equal(t, int64(7), r.Feedback.StoreID)
		require.NotNil(t, r.Analysis)
		assert.True(t, r.Analysis.Generated)
		assert.Equal(t, "media", r.Analysis.Priority)
	})

	t.Run("minimal", func(t *testing.T) {
		r, err := DecodeFeedbackReceipt([]byte(`{"success": true}`))
		require.NoError(t, err)
		assert.Nil(t, r.Feedback)
		assert.Nil(t, r.Analysis)
	})

	t.Run("rejected", func(t *testing.T) {
		_, err := DecodeFeedbackReceipt([]byte(`{"success": false, "error": "tienda inexistente"}`))
		var decodeErr *DecodeError
		require.True(t, errors.As(err, &decodeErr))
		assert.Equal(t, FailureUnsuccessful, decodeErr.Reason().Kind)
		assert.Equal(t, StrategyFeedbackReceipt, decodeErr.Reason().Strategy)
		assert.Contains(t, err.Error(), "tienda inexistente")
	})
}

func TestDecodeHealth(t *testing.T) {
	assert.True(t, DecodeHealth([]byte(`{"success": true, "message": "ok"}`)))
	assert.False(t, DecodeHealth([]byte(`{"success": false}`)))
	assert.False(t, DecodeHealth([]byte(`{"success": "true"}`)))
	assert.False(t, DecodeHealth([]byte(`{}`)))
	assert.False(t, DecodeHealth([]byte(`not json`)))
}
