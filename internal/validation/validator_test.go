package validation_test

import (
	"net/http"
	"testing"

	"github.com/coursepilot/coursepilot/internal/domain"
	domainerrors "github.com/coursepilot/coursepilot/internal/errors"
	"github.com/coursepilot/coursepilot/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_NoteInput(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		in        domain.NoteInput
		wantField string
	}{
		{"valid", domain.NoteInput{VideoURL: "https://v", NoteText: "x"}, ""},
		{"missing url", domain.NoteInput{NoteText: "x"}, "videoUrl"},
		{"missing text", domain.NoteInput{VideoURL: "https://v"}, "noteText"},
		{"negative timestamp", domain.NoteInput{VideoURL: "https://v", NoteText: "x", Timestamp: -1}, "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)

			var de *domainerrors.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, http.StatusBadRequest, de.HTTPStatus())
			details, ok := de.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
			assert.Contains(t, de.Message, tt.wantField)
		})
	}
}

func TestValidator_SettingsPatch(t *testing.T) {
	v := validation.New()

	speed := 2.5
	assert.NoError(t, v.Validate(domain.SettingsPatch{PlaybackSpeed: &speed}))
	assert.NoError(t, v.Validate(domain.SettingsPatch{}))

	zero := 0.0
	err := v.Validate(domain.SettingsPatch{PlaybackSpeed: &zero})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	tooFast := 4.0
	assert.Error(t, v.Validate(domain.SettingsPatch{PlaybackSpeed: &tooFast}))

	limit := -1
	err = v.Validate(domain.SettingsPatch{VideoLimit: &limit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "videoLimit must be greater than or equal to 0")
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Var("format", "markdown", "oneof=markdown text json"))

	err := v.Var("format", "pdf", "oneof=markdown text json")
	require.Error(t, err)
	assert.Equal(t, "format must be one of: markdown text json", err.Error())
}
