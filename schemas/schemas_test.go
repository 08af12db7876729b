package schemas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func TestAllSchemaFiles_ValidJSON(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			content, err := Load(name)
			require.NoError(t, err)

			var doc map[string]any
			require.NoError(t, json.Unmarshal([]byte(content), &doc))
			assert.Equal(t, name, doc["$id"])
		})
	}
}

func TestAllSchemaFiles_Compile(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			content, err := Load(name)
			require.NoError(t, err)

			_, err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(content))
			assert.NoError(t, err)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("nope.schema.json")
	assert.Error(t, err)
}
