// An interactive terminal client for self-testing against a running
// lexicards server: it logs in, pulls a weighted sample of cards, prompts
// for translations, and submits the answers for grading.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type card struct {
	ID          int64  `json:"id"`
	ForeignWord string `json:"foreign_word"`
	Translation string `json:"translation"`
}

type answer struct {
	CardID     int64  `json:"card_id"`
	UserAnswer string `json:"user_answer"`
}

type testResult struct {
	TotalQuestions  int     `json:"total_questions"`
	CorrectAnswers  int     `json:"correct_answers"`
	ScorePercentage float64 `json:"score_percentage"`
}

type loginPacket struct {
	token string
}

type cardsLoaded struct {
	cards []card
}

type resultPacket struct {
	result testResult
}

type errorMsg string

type client struct {
	serverURI string
	token     string
	http      *http.Client
}

func (c *client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		bts, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bts)
	}
	req, err := http.NewRequest(method, c.serverURI+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		bts, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(bts)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type phase int

const (
	phaseLogin phase = iota
	phaseQuizzing
	phaseDone
)

type model struct {
	textInput textinput.Model
	client    *client
	phase     phase
	username  string

	cards   []card
	current int
	answers []answer
	result  testResult
	errText string
}

func initialModel(serverURI string) model {
	ti := textinput.New()
	ti.Placeholder = "username password"
	ti.Focus()
	ti.Width = 40

	return model{
		textInput: ti,
		client:    &client{serverURI: serverURI, http: &http.Client{Timeout: 10 * time.Second}},
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.Type {

		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()

			switch m.phase {
			case phaseLogin:
				fields := strings.Fields(input)
				if len(fields) != 2 {
					m.errText = "enter your username and password separated by a space"
					return m, nil
				}
				m.username = fields[0]
				return m, loginCmd(m.client, fields[0], fields[1])

			case phaseQuizzing:
				m.answers = append(m.answers, answer{
					CardID:     m.cards[m.current].ID,
					UserAnswer: input,
				})
				m.current++
				if m.current >= len(m.cards) {
					return m, submitCmd(m.client, m.answers)
				}
				return m, nil

			case phaseDone:
				return m, tea.Quit
			}
		}

	case loginPacket:
		m.client.token = msg.token
		m.errText = ""
		m.textInput.Placeholder = "translation"
		return m, loadCardsCmd(m.client)

	case cardsLoaded:
		m.phase = phaseQuizzing
		m.cards = msg.cards
		m.current = 0
		m.answers = nil

	case resultPacket:
		m.phase = phaseDone
		m.result = msg.result

	case errorMsg:
		m.errText = string(msg)
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var body string
	switch m.phase {
	case phaseLogin:
		body = "Welcome to lexicards. Log in to start a test."
	case phaseQuizzing:
		body = fmt.Sprintf("Question %d of %d\n\n  %s\n\nType the translation and hit enter.",
			m.current+1, len(m.cards), m.cards[m.current].ForeignWord)
	case phaseDone:
		body = fmt.Sprintf("Done! You scored %.2f%% (%d of %d).\n\nHit enter to quit.",
			m.result.ScorePercentage, m.result.CorrectAnswers, m.result.TotalQuestions)
	}

	footer := ""
	if m.errText != "" {
		footer = "\n" + m.errText
	}
	return body + "\n\n" + m.textInput.View() + footer + "\n"
}

func loginCmd(c *client, username, password string) tea.Cmd {
	return func() tea.Msg {
		var token struct {
			AccessToken string `json:"access_token"`
		}
		err := c.do(http.MethodPost, "/api/auth/login",
			map[string]string{"username": username, "password": password}, &token)
		if err != nil {
			return errorMsg("login failed: " + err.Error())
		}
		return loginPacket{token: token.AccessToken}
	}
}

func loadCardsCmd(c *client) tea.Cmd {
	return func() tea.Msg {
		var cards []card
		if err := c.do(http.MethodGet, "/api/progress/test", nil, &cards); err != nil {
			return errorMsg("could not load test cards: " + err.Error())
		}
		return cardsLoaded{cards: cards}
	}
}

func submitCmd(c *client, answers []answer) tea.Cmd {
	return func() tea.Msg {
		var result testResult
		err := c.do(http.MethodPost, "/api/progress/test",
			map[string]any{"answers": answers}, &result)
		if err != nil {
			return errorMsg("could not submit answers: " + err.Error())
		}
		return resultPacket{result: result}
	}
}

func main() {
	serverURI := os.Getenv("LEXICARDS_URI")
	if serverURI == "" {
		serverURI = "http://localhost:8190"
	}
	p := tea.NewProgram(initialModel(serverURI))

	if _, err := p.Run(); err != nil {
		log.Fatalf("Alas, there's been an error: %v", err)
	}
}
