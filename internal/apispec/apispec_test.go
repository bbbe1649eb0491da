package apispec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/hakim/asmctl/internal/models"
)

const nestedCollection = `{
  "info": {"name": "Shop", "schema": "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"},
  "item": [
    {
      "name": "Users",
      "item": [
        {"name": "List users", "request": {"method": "GET", "url": {"raw": "{{base_url}}/users", "host": ["{{base_url}}"], "path": ["users"]}}},
        {
          "name": "Admin",
          "item": [
            {"name": "Delete user", "request": {"method": "delete", "url": "{{base_url}}/users/:id"}}
          ]
        }
      ]
    },
    {"name": "Create order", "request": {"method": "POST", "url": {"raw": "https://shop.example.com/orders?dry=1"}}},
    {"name": "Broken", "request": {"method": "GET", "url": {}}}
  ]
}`

const openAPIJSON = `{
  "openapi": "3.0.3",
  "info": {"title": "Shop", "version": "1.0.0"},
  "paths": {
    "/users": {
      "get": {"operationId": "listUsers", "responses": {"200": {"description": "ok"}}},
      "post": {"summary": "Create a user", "responses": {"201": {"description": "created"}}}
    },
    "/orders/{id}": {
      "delete": {"responses": {"204": {"description": "gone"}}}
    }
  }
}`

const openAPIYAML = `openapi: 3.0.3
info:
  title: Shop
  version: 1.0.0
paths:
  /health:
    get:
      description: Liveness check
      responses:
        "200":
          description: ok
`

const swagger2 = `{
  "swagger": "2.0",
  "info": {"title": "Legacy", "version": "1"},
  "paths": {
    "/pets": {
      "get": {"operationId": "listPets", "responses": {"200": {"description": "ok"}}},
      "trace": {"operationId": "ignored"}
    }
  }
}`

func TestPostmanNestedFolders(t *testing.T) {
	eps, err := Parse([]byte(nestedCollection), FormatPostman, "shop.postman_collection.json")
	require.NoError(t, err)

	assert.Equal(t, []models.Endpoint{
		{Name: "List users", Method: "GET", Path: "/users"},
		{Name: "Delete user", Method: "DELETE", Path: "/users/:id"},
		{Name: "Create order", Method: "POST", Path: "/orders"},
	}, eps)
}

func TestPostmanURLForms(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{`"https://api.example.com/v1/items"`, "/v1/items"},
		{`"{{base_url}}/v1/items"`, "/v1/items"},
		{`"{{host}}/v1/items"`, "/v1/items"},
		{`{"path": ["v1", "items", {"value": ":id"}]}`, "/v1/items/:id"},
		{`{"raw": "{{host}}/v1/items?limit=5"}`, "/v1/items"},
		{`{"raw": "/v1/items"}`, "/v1/items"},
	}
	for _, tt := range tests {
		doc := `{"item":[{"name":"x","request":{"method":"GET","url":` + tt.url + `}}]}`
		eps, err := Parse([]byte(doc), FormatPostman, "")
		require.NoError(t, err, tt.url)
		require.Len(t, eps, 1, tt.url)
		assert.Equal(t, tt.want, eps[0].Path, tt.url)
	}
}

func TestOpenAPIJSON(t *testing.T) {
	eps, err := Parse([]byte(openAPIJSON), FormatOpenAPI, "shop.json")
	require.NoError(t, err)

	assert.Equal(t, []models.Endpoint{
		{Name: "DELETE /orders/{id}", Method: "DELETE", Path: "/orders/{id}"},
		{Name: "listUsers", Method: "GET", Path: "/users"},
		{Name: "Create a user", Method: "POST", Path: "/users"},
	}, eps)
}

func TestOpenAPIYAML(t *testing.T) {
	eps, err := Parse([]byte(openAPIYAML), FormatAuto, "shop.yaml")
	require.NoError(t, err)
	assert.Equal(t, []models.Endpoint{{Name: "Liveness check", Method: "GET", Path: "/health"}}, eps)
}

func TestSwagger2FiltersMethods(t *testing.T) {
	eps, err := Parse([]byte(swagger2), FormatOpenAPI, "")
	require.NoError(t, err)
	assert.Equal(t, []models.Endpoint{{Name: "listPets", Method: "GET", Path: "/pets"}}, eps)
}

func TestDeclaredFormatFallsBack(t *testing.T) {
	eps, err := Parse([]byte(openAPIJSON), FormatPostman, "")
	require.NoError(t, err)
	assert.Len(t, eps, 3)

	eps, err = Parse([]byte(nestedCollection), FormatOpenAPI, "")
	require.NoError(t, err)
	assert.Len(t, eps, 3)
}

func TestAutoDetect(t *testing.T) {
	eps, err := Parse([]byte(nestedCollection), FormatAuto, "")
	require.NoError(t, err)
	assert.Len(t, eps, 3)

	_, err = Parse([]byte(`{"hello":"world"}`), FormatAuto, "")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestEmptyDocuments(t *testing.T) {
	_, err := Parse([]byte(`{"item":[]}`), FormatPostman, "")
	assert.ErrorIs(t, err, ErrNoEndpoints)

	_, err = Parse([]byte(`{"openapi":"3.0.0","info":{"title":"x","version":"1"},"paths":{}}`), FormatOpenAPI, "")
	assert.ErrorIs(t, err, ErrNoEndpoints)

	_, err = Parse([]byte(`not json`), FormatPostman, "")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestCustomCSV(t *testing.T) {
	doc := "HTTP_Method,URL,Title\n" +
		"get,https://api.example.com/v2/status,Status\n" +
		"post,orders,\n" +
		",/skipped,No method\n"

	eps, err := Parse([]byte(doc), FormatCustom, "endpoints.csv")
	require.NoError(t, err)
	assert.Equal(t, []models.Endpoint{
		{Name: "Status", Method: "GET", Path: "/v2/status"},
		{Name: "POST /orders", Method: "POST", Path: "/orders"},
	}, eps)
}

func TestCustomWorkbook(t *testing.T) {
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Name", "Method", "Endpoint"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Login", "POST", "/auth/login"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"Me", "GET", "/auth/me"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	eps, err := Parse(buf.Bytes(), FormatCustom, "endpoints.xlsx")
	require.NoError(t, err)
	assert.Equal(t, []models.Endpoint{
		{Name: "Login", Method: "POST", Path: "/auth/login"},
		{Name: "Me", Method: "GET", Path: "/auth/me"},
	}, eps)
}

func TestCustomMissingColumns(t *testing.T) {
	_, err := Parse([]byte("foo,bar\n1,2\n"), FormatCustom, "x.csv")
	assert.ErrorIs(t, err, ErrNoEndpoints)
}

func TestSelect(t *testing.T) {
	eps, err := Parse([]byte(nestedCollection), FormatPostman, "")
	require.NoError(t, err)

	picked, err := Select(eps, []string{"post /orders", "GET /users"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GET /users", "POST /orders"}, []string{Key(picked[0]), Key(picked[1])})

	_, err = Select(eps, []string{"PUT /users"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUT /users")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("postman")
	require.NoError(t, err)
	assert.Equal(t, FormatPostman, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	_, err = ParseFormat("graphql")
	assert.True(t, err != nil && !errors.Is(err, ErrUnsupported))
}
