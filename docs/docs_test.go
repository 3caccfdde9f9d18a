package docs_test

import (
	"encoding/json"
	"testing"

	"pjm/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		Swagger string                    `json:"swagger"`
		Host    string                    `json:"host"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, docs.SwaggerInfo.Host, doc.Host)
	assert.Contains(t, doc.Paths["/projects/{id}/history"], "get")
	assert.Contains(t, doc.Paths["/history"], "delete")
	assert.Contains(t, doc.Paths["/projects/{id}/permissions"], "get")
	assert.Contains(t, doc.Paths["/me"], "get")
	assert.Contains(t, doc.Paths["/users"], "get")
	assert.Contains(t, doc.Paths["/healthz"], "get")
}
