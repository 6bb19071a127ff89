// Package tips asks a hosted text model for personalized financial advice.
package tips

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/domain"
)

// DefaultMaxWords bounds the length of generated advice.
const DefaultMaxWords = 200

// Generator produces free text for a prompt. Implementations make one
// attempt and return any failure to the caller.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// StatusError is returned when the model endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tips upstream returned %d: %s", e.StatusCode, e.Body)
}

// GeminiClient calls the generateContent REST method.
type GeminiClient struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
}

func NewGeminiClient(cfg config.TipsConfig) *GeminiClient {
	return &GeminiClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	target := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode generateContent response: %w", err)
	}

	var sb strings.Builder
	for _, cand := range out.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("generateContent returned no text")
	}
	return text, nil
}

// BuildPrompt renders the advisor prompt for one borrower.
func BuildPrompt(in domain.TipsRequest, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	var b strings.Builder
	b.WriteString("You are a financial advisor providing personalized tips to users based on their loan application, repayment behavior and financial goals.\n\n")
	fmt.Fprintf(&b, "Loan Application Details: %s\n", in.LoanApplicationDetails)
	fmt.Fprintf(&b, "Repayment Behavior: %s\n", in.RepaymentBehavior)
	fmt.Fprintf(&b, "Financial goals: %s\n\n", in.FinancialGoals)
	b.WriteString("Provide personalized financial tips to help the user improve their financial literacy and manage their loan more effectively. Focus on actionable advice.\n")
	fmt.Fprintf(&b, "Length should not exceed %d words.", maxWords)
	return b.String()
}

// CapWords truncates text to at most n whitespace-separated words.
func CapWords(text string, n int) string {
	words := strings.Fields(text)
	if n <= 0 || len(words) <= n {
		return strings.TrimSpace(text)
	}
	return strings.Join(words[:n], " ") + "…"
}
