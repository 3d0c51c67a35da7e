package storage

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/AlexeyPetrochenko/kts-tg-bot-game/internal/models"
)

// MockStore is an in-memory fake of Store, used by FSM and handler tests so
// they never touch PostgreSQL.
type MockStore struct {
	mu sync.RWMutex

	games        map[int64]*models.Game
	participants map[int64]*models.Participant
	users        map[int64]*models.User
	usersByTgID  map[int64]*models.User
	questions    map[int64]*models.Question
	questionIDs  []int64

	nextGameID        int64
	nextParticipantID int64
	nextUserID        int64
	nextQuestionID    int64

	pingError error
}

var _ Store = (*MockStore)(nil)

// NewMockStore builds an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		games:        make(map[int64]*models.Game),
		participants: make(map[int64]*models.Participant),
		users:        make(map[int64]*models.User),
		usersByTgID:  make(map[int64]*models.User),
		questions:    make(map[int64]*models.Question),
	}
}

// SetPingError configures the next Ping call to fail with err (nil clears it).
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) CreateGame(ctx context.Context, chatID int64, state models.GameState, questionID int64) (*models.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextGameID++
	g := &models.Game{
		GameID:     m.nextGameID,
		ChatID:     chatID,
		State:      state,
		QuestionID: questionID,
	}
	m.games[g.GameID] = g
	return copyGame(g), nil
}

func (m *MockStore) UpdateGameState(ctx context.Context, gameID int64, state models.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.State = state
	return nil
}

func (m *MockStore) UpdateGameBonusPoints(ctx context.Context, gameID int64, bonus int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	g.BonusPoints = bonus
	return nil
}

// AddRevealedLetter is idempotent: adding a letter already present is a
// no-op, set semantics rather than append semantics.
func (m *MockStore) AddRevealedLetter(ctx context.Context, gameID int64, letter rune) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	letter = unicode.ToUpper(letter)
	if strings.ContainsRune(g.RevealedLetters, letter) {
		return nil
	}
	g.RevealedLetters += string(letter)
	return nil
}

func (m *MockStore) SetCurrentPlayer(ctx context.Context, gameID int64, participantID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameID]
	if !ok {
		return ErrNotFound
	}
	id := participantID
	g.CurrentPlayerID = &id
	return nil
}

func (m *MockStore) GetRunningGame(ctx context.Context, chatID int64) (*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.games {
		if g.ChatID == chatID && g.State != models.GameStateFinished {
			return m.hydrateGame(g), nil
		}
	}
	return nil, nil
}

func (m *MockStore) GetGameByID(ctx context.Context, gameID int64) (*models.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return m.hydrateGame(g), nil
}

// hydrateGame must be called with m.mu held.
func (m *MockStore) hydrateGame(g *models.Game) *models.Game {
	out := copyGame(g)
	if q, ok := m.questions[g.QuestionID]; ok {
		qc := *q
		out.Question = &qc
	}
	if g.CurrentPlayerID != nil {
		if p, ok := m.participants[*g.CurrentPlayerID]; ok {
			out.CurrentPlayer = m.hydrateParticipant(p)
		}
	}
	return out
}

func (m *MockStore) CreateQuestion(ctx context.Context, question, answer string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextQuestionID++
	q := &models.Question{QuestionID: m.nextQuestionID, Question: question, Answer: answer}
	m.questions[q.QuestionID] = q
	m.questionIDs = append(m.questionIDs, q.QuestionID)
	qc := *q
	return &qc, nil
}

func (m *MockStore) GetRandomQuestion(ctx context.Context) (*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.questionIDs) == 0 {
		return nil, ErrNoQuestions
	}
	id := m.questionIDs[rand.Intn(len(m.questionIDs))]
	qc := *m.questions[id]
	return &qc, nil
}

func (m *MockStore) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Question, 0, len(m.questionIDs))
	for _, id := range m.questionIDs {
		qc := *m.questions[id]
		out = append(out, &qc)
	}
	return out, nil
}

func (m *MockStore) DeleteQuestion(ctx context.Context, questionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[questionID]; !ok {
		return ErrNotFound
	}
	delete(m.questions, questionID)
	for i, id := range m.questionIDs {
		if id == questionID {
			m.questionIDs = append(m.questionIDs[:i], m.questionIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MockStore) GetUserByTgID(ctx context.Context, tgUserID int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.usersByTgID[tgUserID]
	if !ok {
		return nil, nil
	}
	uc := *u
	return &uc, nil
}

func (m *MockStore) CreateUser(ctx context.Context, tgUserID int64, username string, firstName, lastName *string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextUserID++
	u := &models.User{
		UserID:    m.nextUserID,
		TgUserID:  tgUserID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	m.users[u.UserID] = u
	m.usersByTgID[tgUserID] = u
	uc := *u
	return &uc, nil
}

func (m *MockStore) CreateGameParticipant(ctx context.Context, gameID, userID int64, turnOrder int) (*models.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.participants {
		if p.GameID == gameID && p.UserID == userID {
			return nil, ErrParticipantAlreadyRegistered
		}
	}

	m.nextParticipantID++
	p := &models.Participant{
		ParticipantID: m.nextParticipantID,
		GameID:        gameID,
		UserID:        userID,
		State:         models.ParticipantStateWaiting,
		TurnOrder:     turnOrder,
	}
	m.participants[p.ParticipantID] = p
	return m.hydrateParticipant(p), nil
}

func (m *MockStore) GetParticipantCount(ctx context.Context, gameID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, p := range m.participants {
		if p.GameID == gameID {
			count++
		}
	}
	return count, nil
}

func (m *MockStore) GetPlayersByGameID(ctx context.Context, gameID int64) ([]*models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Participant
	for _, p := range m.participants {
		if p.GameID == gameID {
			out = append(out, m.hydrateParticipant(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TurnOrder < out[j].TurnOrder })
	return out, nil
}

func (m *MockStore) GetActivePlayer(ctx context.Context, gameID int64) (*models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.participants {
		if p.GameID == gameID && p.State == models.ParticipantStateActiveTurn {
			return m.hydrateParticipant(p), nil
		}
	}
	return nil, nil
}

// hydrateParticipant must be called with m.mu held.
func (m *MockStore) hydrateParticipant(p *models.Participant) *models.Participant {
	pc := *p
	if u, ok := m.users[p.UserID]; ok {
		uc := *u
		pc.User = &uc
	}
	return &pc
}

func (m *MockStore) UpdateParticipantStatus(ctx context.Context, participantID int64, status models.ParticipantState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return ErrNotFound
	}
	p.State = status
	return nil
}

func (m *MockStore) UpdateParticipantStatusMany(ctx context.Context, participantIDs []int64, status models.ParticipantState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range participantIDs {
		p, ok := m.participants[id]
		if !ok {
			return ErrNotFound
		}
		p.State = status
	}
	return nil
}

func (m *MockStore) AddParticipantPoints(ctx context.Context, participantID int64, points int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[participantID]
	if !ok {
		return ErrNotFound
	}
	p.Points += points
	return nil
}

func copyGame(g *models.Game) *models.Game {
	gc := *g
	gc.Question = nil
	gc.CurrentPlayer = nil
	return &gc
}
