package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/cannonQ/pow-tracker-site/internal/ai"
	"github.com/cannonQ/pow-tracker-site/internal/dashboard"
	"github.com/cannonQ/pow-tracker-site/internal/utils/format"
	"github.com/cannonQ/pow-tracker-site/internal/utils/request"
)

const systemPrompt = "You are a cryptocurrency tokenomics analyst. You explain how a proof-of-work " +
	"token's supply was distributed, using only the figures provided. Always answer in JSON."

// completionTimeout bounds one chat completion. Answers routinely take longer
// than the shared client's timeout.
const completionTimeout = 2 * time.Minute

// DeepSeek exposes an OpenAI-compatible endpoint.
const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"
	DeepSeekModel   = "deepseek-chat"
)

// Options configures the chat endpoint. BaseURL may point at any
// OpenAI-compatible API, e.g. https://api.deepseek.com/v1.
type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAISummarizer implements the Summarizer interface using OpenAI
type OpenAISummarizer struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
}

// NewOpenAISummarizer creates a new summarizer instance
func NewOpenAISummarizer(opts Options) *OpenAISummarizer {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	httpClient := request.New(completionTimeout).GetClient()
	cfg.HTTPClient = httpClient

	model := opts.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAISummarizer{
		client:     openai.NewClientWithConfig(cfg),
		httpClient: httpClient,
		model:      model,
	}
}

// SummarizeProject implements the Summarizer interface
func (s *OpenAISummarizer) SummarizeProject(ctx context.Context, view *dashboard.ProjectView) (*ai.Summary, error) {
	if view == nil || view.Project == nil {
		return nil, fmt.Errorf("no project data provided")
	}

	prompt := fmt.Sprintf(`Summarize the token distribution of this project:
%s
Explain how fairly the supply was launched and who holds it.
List concrete concerns only when the figures support them.

Output JSON:
{
    "headline": string,
    "summary": string,
    "concerns": [string, ...]
}`, describe(view))

	resp, err := s.createChatCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize project: %w", err)
	}

	var out ai.Summary
	if err := json.Unmarshal([]byte(stripFence(resp)), &out); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	out.Project = view.Name
	return &out, nil
}

// describe lists the computed figures of view, one per line.
func describe(v *dashboard.ProjectView) string {
	p := v.Project
	f := format.Default

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s (%s)\n", p.Project, p.Ticker)
	fmt.Fprintf(&b, "Launch: %s, %s (%s)\n", format.Date(p.LaunchDate), v.Badge.Label, v.LaunchAge)
	fmt.Fprintf(&b, "Genesis allocation: %s of max supply\n", format.Percent(&v.PreminePct))
	fmt.Fprintf(&b, "Current supply: %s of max supply\n", format.Percent(v.CurrentSupplyPct))
	fmt.Fprintf(&b, "Mined by block rewards: %s of max supply\n", format.Percent(v.MinedPct))
	fmt.Fprintf(&b, "FDMC: %s\n", f.Currency(v.FDMC))
	fmt.Fprintf(&b, "Miner parity: %s", v.Parity.State)
	if v.Parity.YearsRemaining != nil {
		fmt.Fprintf(&b, ", about %.1f years remaining", *v.Parity.YearsRemaining)
	}
	b.WriteString("\n")
	if v.Suspicious {
		b.WriteString("Launch flagged as suspected insider mining\n")
	}
	if c := v.Concentration; c != nil {
		fmt.Fprintf(&b, "Insiders (investors, team, foundation): %.1f%% of max supply\n", c.InsiderPct)
		fmt.Fprintf(&b, "Known investors: %d, undisclosed: %d, raised: %s\n",
			c.KnownInvestors, c.UndisclosedInvestors, f.Currency(&c.TotalRaisedUSD))
	}
	if vp := v.Vesting; vp != nil {
		fmt.Fprintf(&b, "Vesting unlocked: %s\n", format.Percent(vp.ProgressPct))
	}
	if v.Genesis != nil {
		for _, flag := range v.Genesis.RedFlags {
			fmt.Fprintf(&b, "Red flag: %s\n", flag)
		}
	}
	return b.String()
}

// stripFence removes a markdown code fence around a JSON answer.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// createChatCompletion is a helper function to make OpenAI API calls
func (s *OpenAISummarizer) createChatCompletion(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}

	return resp.Choices[0].Message.Content, nil
}
