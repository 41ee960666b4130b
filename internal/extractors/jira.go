package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

const (
	jiraProactiveRate = 2 // requests per second
	jiraTimeout       = 30 * time.Second
	jiraPageSize      = 50
)

// JiraConfig holds credentials for the Jira Cloud REST API.
type JiraConfig struct {
	// BaseURL is the site URL (https://<site>.atlassian.net).
	BaseURL string

	// Email is the account email used for API token auth.
	Email string

	// APIToken is the Jira API token.
	APIToken string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Jira pulls resolved issues from the Jira Cloud REST API.
type Jira struct {
	client   *http.Client
	limiter  *rate.Limiter
	baseURL  string
	email    string
	apiToken string
	pageSize int
}

var _ driven.Extractor = (*Jira)(nil)

// NewJira creates the Jira issue extractor.
func NewJira(cfg JiraConfig) (*Jira, error) {
	if cfg.BaseURL == "" {
		return nil, &domain.ConfigurationError{Reason: "jira base URL is required"}
	}
	if cfg.Email == "" || cfg.APIToken == "" {
		return nil, &domain.ConfigurationError{Reason: "jira email and API token are required"}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = jiraTimeout
	}

	return &Jira{
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(jiraProactiveRate), 1),
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		email:    cfg.Email,
		apiToken: cfg.APIToken,
		pageSize: jiraPageSize,
	}, nil
}

// SourceType identifies the source this extractor handles.
func (j *Jira) SourceType() domain.SourceType {
	return domain.SourceJira
}

// jiraIssue is the Jira API issue format, reduced to the fields the
// pipeline uses.
type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary     string   `json:"summary"`
		Description string   `json:"description"`
		Labels      []string `json:"labels"`
		Resolution  *struct {
			Name string `json:"name"`
		} `json:"resolution"`
		Created string `json:"created"`
		Updated string `json:"updated"`
		Comment struct {
			Comments []struct {
				Body string `json:"body"`
			} `json:"comments"`
		} `json:"comment"`
	} `json:"fields"`
}

type jiraSearchResponse struct {
	Issues     []jiraIssue `json:"issues"`
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
}

// Extract fetches resolved issues. Params:
//
//	"jql"             search filter (default "resolution is not EMPTY")
//	"product_version" version label stamped on every document
func (j *Jira) Extract(ctx context.Context, params map[string]any) (*driven.ExtractedBatch, error) {
	jql := stringParam(params, "jql")
	if jql == "" {
		jql = "resolution is not EMPTY"
	}
	productVersion := stringParam(params, "product_version")

	batch := &driven.ExtractedBatch{}
	startAt := 0
	for {
		page, err := j.search(ctx, jql, startAt)
		if err != nil {
			return nil, &domain.ExtractionError{SourceType: domain.SourceJira, Err: err}
		}

		for _, issue := range page.Issues {
			doc, err := j.issueDocument(issue, productVersion)
			if err != nil {
				batch.Errors = append(batch.Errors, fmt.Sprintf("issue %s: %v", issue.Key, err))
				continue
			}
			batch.Documents = append(batch.Documents, *doc)
		}

		startAt += len(page.Issues)
		if startAt >= page.Total || len(page.Issues) == 0 {
			break
		}
	}
	return batch, nil
}

// search runs one page of a JQL search.
func (j *Jira) search(ctx context.Context, jql string, startAt int) (*jiraSearchResponse, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("jql", jql)
	q.Set("startAt", fmt.Sprintf("%d", startAt))
	q.Set("maxResults", fmt.Sprintf("%d", j.pageSize))
	q.Set("fields", "summary,description,labels,resolution,created,updated,comment")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		j.baseURL+"/rest/api/2/search?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(j.email, j.apiToken)

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("jira API status %d: %s", resp.StatusCode, string(body))
	}

	var page jiraSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &page, nil
}

// issueDocument assembles one issue plus its comments into a document.
func (j *Jira) issueDocument(issue jiraIssue, productVersion string) (*driven.ExtractedDocument, error) {
	var b strings.Builder
	b.WriteString(issue.Fields.Summary)
	if issue.Fields.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(issue.Fields.Description)
	}
	for i, c := range issue.Fields.Comment.Comments {
		if i == maxComments {
			break
		}
		b.WriteString("\n\n")
		b.WriteString(c.Body)
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyContent
	}

	created := parseJiraTime(issue.Fields.Created)
	updated := parseJiraTime(issue.Fields.Updated)

	metadata := map[string]any{"ticket_id": issue.Key}
	if issue.Fields.Resolution != nil {
		metadata["resolution"] = issue.Fields.Resolution.Name
	}

	return &driven.ExtractedDocument{
		Document: domain.Document{
			ID:             docID(domain.SourceJira, issue.Key),
			Title:          issue.Fields.Summary,
			SourceType:     domain.SourceJira,
			ProductVersion: productVersion,
			Tags:           issue.Fields.Labels,
			Metadata:       metadata,
			CreatedAt:      created,
			UpdatedAt:      updated,
		},
		Text: text,
	}, nil
}

// parseJiraTime parses Jira's timestamp format, falling back to zero.
func parseJiraTime(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05.000-0700", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
