package integrations

// SlackConfig holds the bot credentials for posting review snapshots.
type SlackConfig struct {
	BotToken string `mapstructure:"bot_token"`
	Channel  string `mapstructure:"channel"`
}

func (c SlackConfig) Enabled() bool {
	return c.BotToken != "" && c.Channel != ""
}

// JiraConfig holds the credentials for creating issues from comments.
type JiraConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Username  string `mapstructure:"username"`
	APIToken  string `mapstructure:"api_token"`
	ProjectID string `mapstructure:"project_id"`
	IssueType string `mapstructure:"issue_type"`
}

func (c JiraConfig) Enabled() bool {
	return c.BaseURL != "" && c.Username != "" && c.APIToken != ""
}
