package recognize

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// captionPrompt constrains the vision model to literal on-screen caption
// text. The model must return nothing rather than guess.
const captionPrompt = `Read the subtitle text rendered in this video frame and follow these rules strictly:
1. Return only subtitle text actually visible in the image; never guess or complete it.
2. If the frame shows no subtitle, return an empty string.
3. If the subtitle is partial or uncertain, return an empty string.
4. Ignore watermarks, logos and any other non-subtitle text.
5. Do not add punctuation and do not rephrase the text.
6. Return the bare subtitle text with no explanation or description.
7. If the subtitle spans several lines, return them as shown without merging.

When in doubt, return nothing. Only answer when the subtitle is clearly legible.`

const (
	defaultTemperature = 0.1
	defaultMaxTokens   = 100
)

// clientConfig holds optional configuration for the recognition client.
type clientConfig struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for [Client].
type Option func(*clientConfig)

// WithBaseURL points the client at an alternative OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// Client implements [Recognizer] against an OpenAI-compatible vision
// chat-completions endpoint.
type Client struct {
	client oai.Client
	model  string
}

var _ Recognizer = (*Client)(nil)

// NewClient constructs a recognition Client for the given model.
func NewClient(apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("recognize: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("recognize: model must not be empty")
	}

	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Client{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Recognize implements [Recognizer]. The frame travels as a base64 data URL
// in an image content part; low temperature and a small completion budget
// keep the model conservative.
func (c *Client) Recognize(ctx context.Context, jpeg []byte) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.TextContentPart(captionPrompt),
				oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		Temperature: param.NewOpt(defaultTemperature),
		MaxTokens:   param.NewOpt(int64(defaultMaxTokens)),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("recognize: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("recognize: empty choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
