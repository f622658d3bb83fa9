package validator

import (
	"errors"
	"testing"

	gvalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	type network struct {
		Name   string `yaml:"name" validate:"required"`
		APIURL string `yaml:"apiUrl" validate:"required,wsurl"`
	}

	type settings struct {
		Networks []network `yaml:"networks" validate:"min=1,dive"`
	}

	t.Run("accepts a valid struct", func(t *testing.T) {
		err := Validate(settings{
			Networks: []network{{Name: "bitcoin", APIURL: "wss://hose.example.com/ws"}},
		})

		assert.NoError(t, err)
	})

	t.Run("reports nested failures using yaml names", func(t *testing.T) {
		err := Validate(settings{
			Networks: []network{{Name: "", APIURL: "wss://hose.example.com"}},
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "'networks[0].name': value '' does not meet the requirements for the 'required' validation")
	})

	t.Run("reports every failing field", func(t *testing.T) {
		err := Validate(settings{
			Networks: []network{
				{Name: "bitcoin", APIURL: "https://not-a-socket.example.com"},
				{Name: "", APIURL: ""},
			},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "'networks[0].apiUrl'")
		assert.Contains(t, err.Error(), "'wsurl' validation")
		assert.Contains(t, err.Error(), "'networks[1].name'")
		assert.Contains(t, err.Error(), "'networks[1].apiUrl'")
	})

	t.Run("fails on an empty list", func(t *testing.T) {
		err := Validate(settings{})

		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "'networks'")
	})
}

func TestWebsocketURLValidation(t *testing.T) {
	type target struct {
		URL string `validate:"wsurl"`
	}

	testCases := []struct {
		url   string
		valid bool
	}{
		{"ws://localhost:8080/hose", true},
		{"wss://api.example.com/v1/ws", true},
		{"https://api.example.com", false},
		{"wss://", false},
		{"not a url", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			err := Validate(target{URL: tc.url})
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidationFailed)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	t.Run("transforms validation errors to formatted errors", func(t *testing.T) {
		type TestStruct struct {
			Name string `validate:"required"`
		}

		err := gvalidator.New().Struct(TestStruct{})
		require.Error(t, err)

		formattedErr := formatError(err)

		assert.ErrorIs(t, formattedErr, ErrValidationFailed)
		assert.Contains(t, formattedErr.Error(), "'Name': value '' does not meet the requirements for the 'required' validation")
	})

	t.Run("returns the original error when it is not a validation error", func(t *testing.T) {
		originalErr := errors.New("settings file unreadable")

		assert.Equal(t, originalErr, formatError(originalErr))
	})
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "networks[0].name", fieldPath("Settings.networks[0].name"))
	assert.Equal(t, "Name", fieldPath("Name"))
}
