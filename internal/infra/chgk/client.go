// Package chgk implements the question provider on top of the db.chgk.info
// random-question XML feed.
package chgk

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

const (
	// DefaultBaseURL is the public question database.
	DefaultBaseURL = "https://db.chgk.info"

	randomQuestionPath = "/xml/random/questions"
	imageBasePath      = "/images/db/"
	questionBasePath   = "/question/"
)

var (
	picRefRe = regexp.MustCompile(`\(pic:\s*(.*?)\s*\)`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// Client fetches random questions from the remote database.
type Client struct {
	httpc   *http.Client
	baseURL string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type questionXML struct {
	QuestionID string `xml:"QuestionId"`
	Question   string `xml:"Question"`
	Answer     string `xml:"Answer"`
	Comments   string `xml:"Comments"`
	Tournament string `xml:"tournamentTitle"`
	Tour       string `xml:"tour"`
	Authors    string `xml:"Authors"`
	Source     string `xml:"Source"`
	Type       string `xml:"Type"`
	Difficulty string `xml:"Difficulty"`
	TeamsNum   string `xml:"teamsNum"`
	TeamsGot   string `xml:"teamsGotPoints"`
	PlayedAt   string `xml:"tourPlayedAt"`
	TourFile   string `xml:"tourFileName"`
	Number     string `xml:"Number"`
}

type feedXML struct {
	Question *questionXML `xml:"question"`
}

// Random fetches and parses one random question. A degenerate feed record
// (missing prompt or answer) is reported as domain.ErrNoQuestion so the caller
// never starts a round on it.
func (c *Client) Random(ctx context.Context) (domain.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+randomQuestionPath, nil)
	if err != nil {
		return domain.Question{}, fmt.Errorf("build question request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return domain.Question{}, fmt.Errorf("fetch question: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Question{}, fmt.Errorf("fetch question: unexpected status %d: %w", resp.StatusCode, domain.ErrNoQuestion)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Question{}, fmt.Errorf("read question feed: %w", err)
	}

	var feed feedXML
	if err := xml.Unmarshal(body, &feed); err != nil {
		return domain.Question{}, fmt.Errorf("parse question feed: %w", err)
	}
	if feed.Question == nil {
		return domain.Question{}, fmt.Errorf("question element missing: %w", domain.ErrNoQuestion)
	}

	q := c.buildQuestion(*feed.Question)
	if !q.Valid() {
		return domain.Question{}, fmt.Errorf("empty question or answer: %w", domain.ErrNoQuestion)
	}
	return q, nil
}

func (c *Client) buildQuestion(raw questionXML) domain.Question {
	text, images := c.extractImages(strings.TrimSpace(raw.Question))

	q := domain.Question{
		ID:         strings.TrimSpace(raw.QuestionID),
		Text:       text,
		Answer:     strings.TrimSpace(raw.Answer),
		Comment:    strings.TrimSpace(raw.Comments),
		ImageURLs:  images,
		Tournament: strings.TrimSpace(raw.Tournament),
		Tour:       strings.TrimSpace(raw.Tour),
		Authors:    strings.TrimSpace(raw.Authors),
		Source:     strings.TrimSpace(raw.Source),
		Difficulty: strings.TrimSpace(raw.Difficulty),
		Type:       strings.TrimSpace(raw.Type),
		PlayedAt:   formatPlayedAt(strings.TrimSpace(raw.PlayedAt)),
	}

	if total, err := strconv.Atoi(strings.TrimSpace(raw.TeamsNum)); err == nil {
		q.TeamsTotal = total
	}
	if right, err := strconv.Atoi(strings.TrimSpace(raw.TeamsGot)); err == nil {
		q.TeamsRight = right
	}

	tourFile := strings.TrimSpace(raw.TourFile)
	number := strings.TrimSpace(raw.Number)
	if tourFile != "" && number != "" {
		q.URL = c.baseURL + questionBasePath + tourFile + "/" + number
	}
	return q
}

// extractImages resolves "(pic: name)" references to absolute URLs and strips
// them from the prompt.
func (c *Client) extractImages(text string) (string, []string) {
	matches := picRefRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		urls = append(urls, c.baseURL+imageBasePath+m[1])
	}
	text = picRefRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(spacesRe.ReplaceAllString(text, " "))
	return text, urls
}

func formatPlayedAt(raw string) string {
	if raw == "" {
		return ""
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d.Format("02.01.2006")
	}
	return raw
}
