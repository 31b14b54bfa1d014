package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"practice-quiz-service/internal/domain"
	"github.com/rs/zerolog/log"
)

// Client talks to the platform API that owns quizzes and stored results.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConnsPerHost: 10,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: transport},
	}
}

type quizEnvelope struct {
	Success bool        `json:"success"`
	Quiz    domain.Quiz `json:"quiz"`
	Error   string      `json:"error"`
}

// LoadQuiz implements the quiz loader contract against GET /api/quizzes/{quizId}.
// A 404 or a success:false envelope is reported as domain.ErrQuizNotFound.
func (c *Client) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/quizzes/"+url.PathEscape(quizID), nil)
	if err != nil {
		return domain.Quiz{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("fetch quiz: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Quiz{}, fmt.Errorf("fetch quiz: status %d", resp.StatusCode)
	}

	var env quizEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return domain.Quiz{}, fmt.Errorf("decode quiz: %w", err)
	}
	if !env.Success {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, env.Error)
	}
	if env.Quiz.ID == "" {
		env.Quiz.ID = quizID
	}
	return env.Quiz, nil
}

// SubmitResult posts a finished result to POST /api/quizzes/submit. Only the status is
// inspected; the response body is logged at debug level.
func (c *Client) SubmitResult(ctx context.Context, submission domain.ResultSubmission) error {
	body, err := json.Marshal(submission)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/quizzes/submit", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit result: %w", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("submit result: status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	log.Debug().Str("quiz_id", submission.QuizID).RawJSON("response", compactJSON(payload)).Msg("result submission acknowledged")
	return nil
}

func compactJSON(b []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		quoted, _ := json.Marshal(string(b))
		return quoted
	}
	return buf.Bytes()
}
