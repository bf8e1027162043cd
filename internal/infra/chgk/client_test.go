package chgk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jee-key/brain-blast-bot/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<search>
  <question>
    <QuestionId>12345</QuestionId>
    <Question>Взгляните на картину (pic: 20010101.jpg) и назовите автора.</Question>
    <Answer>Айвазовский</Answer>
    <Comments>Также принимается «Гайвазовский».</Comments>
    <tournamentTitle>Чемпионат города</tournamentTitle>
    <tour>Тур 1</tour>
    <Authors>Иван Иванов</Authors>
    <Source>Энциклопедия</Source>
    <Type>Ч</Type>
    <tourPlayedAt>2001-05-20</tourPlayedAt>
    <teamsNum>40</teamsNum>
    <teamsGotPoints>10</teamsGotPoints>
    <tourFileName>gorod01</tourFileName>
    <Number>7</Number>
  </question>
</search>`

func TestClientRandomParsesFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xml/random/questions" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	q, err := client.Random(context.Background())
	if err != nil {
		t.Fatalf("random: %v", err)
	}

	if q.ID != "12345" || q.Answer != "Айвазовский" {
		t.Fatalf("unexpected question: %+v", q)
	}
	if q.Text != "Взгляните на картину и назовите автора." {
		t.Fatalf("expected image ref stripped from prompt, got %q", q.Text)
	}
	if len(q.ImageURLs) != 1 || q.ImageURLs[0] != server.URL+"/images/db/20010101.jpg" {
		t.Fatalf("unexpected image urls: %v", q.ImageURLs)
	}
	if q.URL != server.URL+"/question/gorod01/7" {
		t.Fatalf("unexpected question url: %q", q.URL)
	}
	if q.PlayedAt != "20.05.2001" {
		t.Fatalf("unexpected played-at: %q", q.PlayedAt)
	}
	if q.TeamsTotal != 40 || q.TeamsRight != 10 {
		t.Fatalf("unexpected team stats: %d/%d", q.TeamsRight, q.TeamsTotal)
	}

	meta := q.MetadataText()
	for _, want := range []string{"Чемпионат города", "Иван Иванов", "10 из 40 команд (25%)"} {
		if !strings.Contains(meta, want) {
			t.Fatalf("metadata missing %q:\n%s", want, meta)
		}
	}
}

func TestClientRandomRejectsDegenerateRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<search><question><Question>текст</Question><Answer> </Answer></question></search>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Random(context.Background()); !errors.Is(err, domain.ErrNoQuestion) {
		t.Fatalf("expected ErrNoQuestion, got %v", err)
	}
}

func TestClientRandomRejectsBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Random(context.Background()); !errors.Is(err, domain.ErrNoQuestion) {
		t.Fatalf("expected ErrNoQuestion on bad status, got %v", err)
	}
}

type staticSource struct {
	calls atomic.Int32
}

func (s *staticSource) Random(context.Context) (domain.Question, error) {
	n := s.calls.Add(1)
	return domain.Question{
		ID:     "q",
		Text:   "Вопрос?",
		Answer: "Ответ",
		Type:   string(rune('a' + n)),
	}, nil
}

func TestPrefetcherServesAndRefills(t *testing.T) {
	src := &staticSource{}
	p := NewPrefetcher(src, 2)

	for i := 0; i < 5; i++ {
		q, err := p.Fetch(context.Background())
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if !q.Valid() {
			t.Fatalf("fetched invalid question: %+v", q)
		}
	}
	if src.calls.Load() < 5 {
		t.Fatalf("expected source to be consulted, got %d calls", src.calls.Load())
	}
}
