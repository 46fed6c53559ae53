package apispec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/shoot/pkg/types"
)

func TestDescribeOpenAPI3(t *testing.T) {
	d, err := NewDescriber(8)
	require.NoError(t, err)

	spec := &types.APISpec{
		ID:       "s1",
		SpecType: types.SpecTypeOpenAPI,
		Content: json.RawMessage(`{
			"openapi": "3.0.0",
			"info": {"title": "Weather", "version": "1"},
			"servers": [{"url": "https://api.weather.example.com/v1/"}],
			"paths": {},
			"components": {"securitySchemes": {"bearerAuth": {"type": "http", "scheme": "bearer"}}},
			"security": [{"bearerAuth": []}]
		}`),
	}
	target, err := d.Describe(spec)
	require.NoError(t, err)
	assert.Equal(t, "https://api.weather.example.com/v1", target.BaseURL)
	require.NotNil(t, target.Active)
	assert.Equal(t, "http", target.Active.Type)
	assert.Equal(t, "bearer", target.Active.Scheme)
	assert.Equal(t, "bearerAuth", target.Active.KeyName)
}

func TestDescribeSwagger(t *testing.T) {
	d, err := NewDescriber(8)
	require.NoError(t, err)

	spec := &types.APISpec{
		ID:       "s2",
		SpecType: types.SpecTypeSwagger,
		Content: json.RawMessage(`{
			"swagger": "2.0",
			"info": {"title": "Petstore", "version": "1.0.5"},
			"host": "petstore.swagger.io",
			"basePath": "/v2",
			"schemes": ["https"],
			"paths": {},
			"securityDefinitions": {"api_key": {"type": "apiKey", "name": "api_key", "in": "header"}},
			"security": [{"api_key": []}]
		}`),
	}
	target, err := d.Describe(spec)
	require.NoError(t, err)
	assert.Equal(t, "https://petstore.swagger.io/v2", target.BaseURL)
	require.NotNil(t, target.Active)
	assert.Equal(t, types.SecurityScheme{KeyName: "api_key", Type: "apiKey", In: "header", Name: "api_key"}, *target.Active)
}

func TestDescribeOverrideAndForget(t *testing.T) {
	d, err := NewDescriber(8)
	require.NoError(t, err)

	spec := &types.APISpec{
		ID:       "s3",
		SpecType: types.SpecTypeOpenAPI,
		Content:  json.RawMessage(`{"openapi":"3.0.0","info":{"title":"x","version":"1"},"servers":[{"url":"https://a.example.com"}],"paths":{}}`),
	}
	target, err := d.Describe(spec)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com", target.BaseURL)
	assert.Nil(t, target.Active)

	spec.OverrideBaseURL = "http://localhost:8080"
	target, err = d.Describe(spec)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", target.BaseURL)

	// cached value is not mutated by the override
	spec.OverrideBaseURL = ""
	target, err = d.Describe(spec)
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com", target.BaseURL)

	spec.Content = json.RawMessage(`{"openapi":"3.0.0","info":{"title":"x","version":"1"},"servers":[{"url":"https://b.example.com"}],"paths":{}}`)
	d.Forget(spec.ID)
	target, err = d.Describe(spec)
	require.NoError(t, err)
	assert.Equal(t, "https://b.example.com", target.BaseURL)
}
