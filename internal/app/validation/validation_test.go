package validation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title   string `json:"title" validate:"required,max=10"`
	CheckIn string `json:"checkIn" validate:"isodate"`
	Cur     string `validate:"currency"`
}

func TestValidateStructTags(t *testing.T) {
	v := New()
	require.NoError(t, v.Validate(context.Background(), sample{Title: "ok", CheckIn: "2024-06-01", Cur: "USD"}))
	require.NoError(t, v.Validate(context.Background(), &sample{Title: "ok"}))

	err := v.Validate(context.Background(), sample{CheckIn: "06/01/2024", Cur: "US"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	var verr *Error
	require.ErrorAs(t, err, &verr)
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Rule
	}
	assert.Equal(t, "required", fields["title"])
	assert.Equal(t, "isodate", fields["checkIn"])
	assert.Equal(t, "currency", fields["Cur"])
}

func TestValidateIgnoresNonStructs(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(context.Background(), nil))
	assert.NoError(t, v.Validate(context.Background(), "text"))
	var nilPtr *sample
	assert.NoError(t, v.Validate(context.Background(), nilPtr))
}
