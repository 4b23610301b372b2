package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/edumatrix/edumatrix-backend/internal/repository"
)

// ErrInsightsDisabled is returned when no Gemini API key is configured.
var ErrInsightsDisabled = errors.New("insights are not configured")

// InsightService turns an institution's aggregated result data into a short
// natural-language performance summary using the Gemini API. The feature is
// optional: without an API key the service reports itself disabled.
type InsightService struct {
	resultRepo *repository.ResultRepository
	model      *genai.GenerativeModel
	client     *genai.Client
}

// NewInsightService creates an InsightService. A blank apiKey yields a
// disabled service rather than an error so the server can boot without it.
func NewInsightService(ctx context.Context, resultRepo *repository.ResultRepository, apiKey string) (*InsightService, error) {
	s := &InsightService{resultRepo: resultRepo}
	if apiKey == "" {
		return s, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-1.5-flash")
	temp := float32(0.3)
	model.Temperature = &temp

	s.client = client
	s.model = model
	return s, nil
}

// Enabled reports whether the Gemini integration is configured.
func (s *InsightService) Enabled() bool {
	return s.model != nil
}

// Close releases the Gemini client.
func (s *InsightService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// PerformanceSummary aggregates subject averages and asks the model for a
// concise teacher-facing summary with areas to focus on.
func (s *InsightService) PerformanceSummary(ctx context.Context, institutionCode string) (string, error) {
	if !s.Enabled() {
		return "", ErrInsightsDisabled
	}

	averages, err := s.resultRepo.AverageBySubject(ctx, institutionCode)
	if err != nil {
		return "", fmt.Errorf("aggregate results: %w", err)
	}
	if len(averages) == 0 {
		return "No results have been published yet.", nil
	}

	var b strings.Builder
	b.WriteString("You are an academic advisor. Given per-subject average scores (percent) ")
	b.WriteString("across an institution, write a short summary (max 120 words) of overall ")
	b.WriteString("performance and name the subjects that need attention.\n\n")
	for _, a := range averages {
		fmt.Fprintf(&b, "- %s: %.1f%% (%d results)\n", a.Subject, a.AvgPercent, a.Count)
	}

	resp, err := s.model.GenerateContent(ctx, genai.Text(b.String()))
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	var out strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
	}
	if out.Len() == 0 {
		return "", errors.New("empty model response")
	}
	return out.String(), nil
}
