package extractors

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentier/supportbot/internal/core/domain"
)

// buildDocxZip wraps document XML in a minimal .docx zip.
func buildDocxZip(t *testing.T, docXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(docXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newZendeskTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/tickets.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tickets": []map[string]any{
				{"id": 1234, "subject": "Cannot reset password", "status": "solved", "tags": []string{"auth"}},
				{"id": 1235, "subject": "Open issue", "status": "open"},
			},
			"next_page": "",
		})
	})
	mux.HandleFunc("/api/v2/tickets/1234/comments.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"comments": []map[string]any{
				{"body": "I cannot log in after changing my email.", "public": true},
				{"body": "internal note", "public": false},
				{"body": "Use the reset link on the login page.", "public": true},
			},
		})
	})
	return httptest.NewServer(mux)
}

func TestZendeskExtract(t *testing.T) {
	srv := newZendeskTestServer(t)
	defer srv.Close()

	z, err := NewZendesk(ZendeskConfig{Subdomain: "acme", Email: "agent@acme.test", APIToken: "tok"})
	require.NoError(t, err)
	z.baseURL = srv.URL + "/api/v2"

	batch, err := z.Extract(context.Background(), map[string]any{"product_version": "2.1"})
	require.NoError(t, err)
	require.Len(t, batch.Documents, 1)

	doc := batch.Documents[0]
	assert.Equal(t, "zendesk:1234", doc.Document.ID)
	assert.Equal(t, "Cannot reset password", doc.Document.Title)
	assert.Equal(t, domain.SourceZendesk, doc.Document.SourceType)
	assert.Equal(t, "2.1", doc.Document.ProductVersion)
	assert.Equal(t, "1234", doc.Document.Metadata["ticket_id"])
	assert.Contains(t, doc.Text, "Use the reset link")
	assert.NotContains(t, doc.Text, "internal note")
}

func TestZendeskConfigValidation(t *testing.T) {
	_, err := NewZendesk(ZendeskConfig{Email: "a@b.c", APIToken: "tok"})
	assert.True(t, domain.IsConfiguration(err))

	_, err = NewZendesk(ZendeskConfig{Subdomain: "acme"})
	assert.True(t, domain.IsConfiguration(err))
}

func TestJiraExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/api/2/search") {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"issues": []map[string]any{
				{
					"key": "SUP-42",
					"fields": map[string]any{
						"summary":     "Database connection drops",
						"description": "Connections drop under load.",
						"labels":      []string{"db"},
						"resolution":  map[string]any{"name": "Fixed"},
						"comment": map[string]any{
							"comments": []map[string]any{
								{"body": "Raise the pool size to 50."},
							},
						},
					},
				},
			},
			"startAt": 0, "maxResults": 50, "total": 1,
		})
	}))
	defer srv.Close()

	j, err := NewJira(JiraConfig{BaseURL: srv.URL, Email: "agent@acme.test", APIToken: "tok"})
	require.NoError(t, err)

	batch, err := j.Extract(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, batch.Documents, 1)

	doc := batch.Documents[0]
	assert.Equal(t, "jira:SUP-42", doc.Document.ID)
	assert.Equal(t, "Database connection drops", doc.Document.Title)
	assert.Equal(t, "Fixed", doc.Document.Metadata["resolution"])
	assert.Contains(t, doc.Text, "Raise the pool size")
}
