package integrations

import (
	"fmt"

	jira "github.com/andygrunwald/go-jira"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

type JiraEndpoints struct {
	config JiraConfig
	client *jira.Client
}

func NewJiraEndpoints(config JiraConfig) (*JiraEndpoints, error) {
	e := &JiraEndpoints{config: config}
	if config.Enabled() {
		tp := jira.BasicAuthTransport{
			Username: config.Username,
			Password: config.APIToken,
		}
		client, err := jira.NewClient(tp.Client(), config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("jira client: %w", err)
		}
		e.client = client
	}
	return e, nil
}

type createIssueRequest struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// Create handles POST /integrations/jira/create and files an issue from
// a review comment. Responds with the new issue key and browse URL.
func (e *JiraEndpoints) Create(ctx *fasthttp.RequestCtx) {
	if e.client == nil {
		ctx.Error("Jira is not configured", fasthttp.StatusInternalServerError)
		return
	}

	var req createIssueRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Summary == "" {
		ctx.Error("summary is required", fasthttp.StatusBadRequest)
		return
	}

	issueType := e.config.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	issue := &jira.Issue{
		Fields: &jira.IssueFields{
			Project:     jira.Project{Key: e.config.ProjectID},
			Type:        jira.IssueType{Name: issueType},
			Summary:     req.Summary,
			Description: req.Description,
		},
	}

	created, _, err := e.client.Issue.CreateWithContext(ctx, issue)
	if err != nil {
		log.Error().Err(err).Str("project", e.config.ProjectID).Msg("[Jira] Issue creation failed")
		ctx.Error("Jira issue creation failed", fasthttp.StatusBadGateway)
		return
	}

	log.Info().Str("issueKey", created.Key).Msg("[Jira] Issue created")
	writeJSON(ctx, fasthttp.StatusCreated, map[string]interface{}{
		"key": created.Key,
		"url": fmt.Sprintf("%s/browse/%s", e.config.BaseURL, created.Key),
	})
}
