package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatinput/model"
)

// Simulated answers locally after a fixed delay. It echoes the prompt and,
// depending on the request tools, adds citations and a reasoning block.
type Simulated struct {
	delay time.Duration
}

func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{delay: delay}
}

func (s *Simulated) Name() string {
	return "simulated"
}

func (s *Simulated) Respond(ctx context.Context, req Request) (Response, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	content, sources := simulatedReply(req)
	return Response{
		Content:    content,
		Model:      req.Model,
		TokenCount: countTokens(content),
		Sources:    sources,
	}, nil
}

func simulatedReply(req Request) (string, []model.Source) {
	var b strings.Builder

	if req.Think {
		fmt.Fprintf(&b, "<think>\nThe user asked: %q.\nA short, direct answer fits best.\n</think>\n\n", req.Prompt)
	}

	fmt.Fprintf(&b, "This is a response to: %q", req.Prompt)

	var sources []model.Source
	if req.Search {
		b.WriteString("\n\nAccording to the documentation [1] and a community discussion [2], this is a common question.")
		query := strings.Join(strings.Fields(req.Prompt), "+")
		sources = []model.Source{
			{Index: 1, Title: "Documentation", URL: "https://example.com/docs?q=" + query},
			{Index: 2, Title: "Community discussion", URL: "https://example.com/forum?q=" + query},
		}
	}

	return b.String(), sources
}
