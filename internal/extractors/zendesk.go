package extractors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// Zendesk API limits for the Support plan (~400 requests/minute). The
// proactive rate stays well under it.
const (
	zendeskProactiveRate = 5 // requests per second
	zendeskTimeout       = 30 * time.Second
	zendeskPageLimit     = 100
)

// ZendeskConfig holds credentials for the Zendesk REST API.
type ZendeskConfig struct {
	// Subdomain is the account subdomain (https://<subdomain>.zendesk.com).
	Subdomain string

	// Email is the agent email used for API token auth.
	Email string

	// APIToken is the Zendesk API token.
	APIToken string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Zendesk pulls solved support tickets, comments included, from the
// Zendesk REST API.
type Zendesk struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	email     string
	apiToken  string
	pageLimit int
}

var _ driven.Extractor = (*Zendesk)(nil)

// NewZendesk creates the Zendesk ticket extractor.
func NewZendesk(cfg ZendeskConfig) (*Zendesk, error) {
	if cfg.Subdomain == "" {
		return nil, &domain.ConfigurationError{Reason: "zendesk subdomain is required"}
	}
	if cfg.Email == "" || cfg.APIToken == "" {
		return nil, &domain.ConfigurationError{Reason: "zendesk email and API token are required"}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = zendeskTimeout
	}

	return &Zendesk{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(zendeskProactiveRate), 1),
		baseURL:   fmt.Sprintf("https://%s.zendesk.com/api/v2", cfg.Subdomain),
		email:     cfg.Email,
		apiToken:  cfg.APIToken,
		pageLimit: zendeskPageLimit,
	}, nil
}

// SourceType identifies the source this extractor handles.
func (z *Zendesk) SourceType() domain.SourceType {
	return domain.SourceZendesk
}

// zendeskTicket is the Zendesk API ticket format, reduced to the
// fields the pipeline uses.
type zendeskTicket struct {
	ID      int64    `json:"id"`
	Subject string   `json:"subject"`
	Status  string   `json:"status"`
	Tags    []string `json:"tags"`
	Via     struct {
		Channel string `json:"channel"`
	} `json:"via"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type zendeskTicketsResponse struct {
	Tickets  []zendeskTicket `json:"tickets"`
	NextPage string          `json:"next_page"`
}

type zendeskComment struct {
	Body   string `json:"body"`
	Public bool   `json:"public"`
}

type zendeskCommentsResponse struct {
	Comments []zendeskComment `json:"comments"`
}

// Extract fetches solved tickets. Params:
//
//	"status"          ticket status to pull (default "solved")
//	"product_version" version label stamped on every document
//
// A ticket whose comments cannot be fetched is reported in the batch
// errors and does not abort the rest.
func (z *Zendesk) Extract(ctx context.Context, params map[string]any) (*driven.ExtractedBatch, error) {
	status := stringParam(params, "status")
	if status == "" {
		status = "solved"
	}
	productVersion := stringParam(params, "product_version")

	batch := &driven.ExtractedBatch{}
	url := fmt.Sprintf("%s/tickets.json?per_page=%d", z.baseURL, z.pageLimit)
	for url != "" {
		var page zendeskTicketsResponse
		if err := z.get(ctx, url, &page); err != nil {
			return nil, &domain.ExtractionError{SourceType: domain.SourceZendesk, Err: err}
		}

		for _, ticket := range page.Tickets {
			if ticket.Status != status {
				continue
			}
			doc, err := z.ticketDocument(ctx, ticket, productVersion)
			if err != nil {
				batch.Errors = append(batch.Errors, fmt.Sprintf("ticket %d: %v", ticket.ID, err))
				continue
			}
			batch.Documents = append(batch.Documents, *doc)
		}
		url = page.NextPage
	}
	return batch, nil
}

// ticketDocument assembles one ticket plus its public comments into a
// document.
func (z *Zendesk) ticketDocument(ctx context.Context, ticket zendeskTicket, productVersion string) (*driven.ExtractedDocument, error) {
	var comments zendeskCommentsResponse
	url := fmt.Sprintf("%s/tickets/%d/comments.json", z.baseURL, ticket.ID)
	if err := z.get(ctx, url, &comments); err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(ticket.Subject)
	kept := 0
	for _, c := range comments.Comments {
		if !c.Public {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(c.Body)
		kept++
		if kept == maxComments {
			break
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyContent
	}

	ticketID := fmt.Sprintf("%d", ticket.ID)
	return &driven.ExtractedDocument{
		Document: domain.Document{
			ID:             docID(domain.SourceZendesk, ticketID),
			Title:          ticket.Subject,
			SourceType:     domain.SourceZendesk,
			ProductVersion: productVersion,
			Tags:           ticket.Tags,
			Metadata: map[string]any{
				"ticket_id": ticketID,
				"channel":   ticket.Via.Channel,
			},
			CreatedAt: ticket.CreatedAt,
			UpdatedAt: ticket.UpdatedAt,
		},
		Text: text,
	}, nil
}

// get performs a rate-limited authenticated GET and decodes the JSON
// response into out.
func (z *Zendesk) get(ctx context.Context, url string, out any) error {
	if err := z.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(z.email+"/token", z.apiToken)

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("zendesk API status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
