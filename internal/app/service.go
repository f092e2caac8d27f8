package app

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"exam-drill-service/internal/bank"
	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/engine"
	"exam-drill-service/internal/grading"
)

// SessionRepository abstracts where live sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Add(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// DatasetRepository loads question banks (from cache/backing store).
type DatasetRepository interface {
	GetDataset(ctx context.Context, datasetID string) (domain.Dataset, error)
}

// DatasetLister enumerates the datasets available for setup.
type DatasetLister interface {
	ListDatasets(ctx context.Context) ([]domain.DatasetSummary, error)
}

// HistoryRepository persists finished attempts per user, newest first.
type HistoryRepository interface {
	Save(ctx context.Context, record domain.HistoryRecord, limit int) error
	List(ctx context.Context, userID string, limit int) ([]domain.HistoryRecord, error)
	Delete(ctx context.Context, userID, recordID string) error
	Clear(ctx context.Context, userID string) error
}

// WrongAnswerRepository counts wrong answers per user and question.
type WrongAnswerRepository interface {
	Increment(ctx context.Context, userID string, questionIDs []string) error
	Counts(ctx context.Context, userID string) (map[string]int, error)
}

// Settings are the quiz defaults applied to every setup request.
type Settings struct {
	PassMark                int
	HistoryLimit            int
	DefaultTimeLimitMinutes int
	DefaultQuestionCount    int
	SkipIntro               bool
	// TickInterval is the countdown period; one second unless overridden in tests.
	TickInterval time.Duration
	// ResultRetention keeps finished sessions readable before they are evicted.
	ResultRetention time.Duration
}

// DefaultSettings mirrors the config defaults.
func DefaultSettings() Settings {
	return Settings{
		PassMark:                grading.DefaultPassMark,
		HistoryLimit:            50,
		DefaultTimeLimitMinutes: 120,
		DefaultQuestionCount:    65,
		TickInterval:            time.Second,
		ResultRetention:         10 * time.Minute,
	}
}

// SetupRequest describes a new attempt.
type SetupRequest struct {
	UserID     string   `json:"userId"`
	DatasetIDs []string `json:"datasetIds"`
	// OriginalDatasetIDs maps a dataset id to its original-language companion.
	OriginalDatasetIDs map[string]string `json:"originalDatasetIds,omitempty"`
	QuestionCount      int               `json:"questionCount"`
	TimeLimitMinutes   int               `json:"timeLimitMinutes"`
	WrongOnly          bool              `json:"wrongOnly"`
	// Seed makes the shuffle reproducible when non-zero.
	Seed int64 `json:"seed,omitempty"`
}

// Deps groups the service's collaborators. History and WrongAnswers are optional.
type Deps struct {
	Sessions     SessionRepository
	Datasets     DatasetRepository
	Listing      DatasetLister
	History      HistoryRepository
	WrongAnswers WrongAnswerRepository
	Catalog      []domain.ExamInfo
}

// SessionService contains the quiz session use cases.
type SessionService struct {
	sessions SessionRepository
	datasets DatasetRepository
	listing  DatasetLister
	history  HistoryRepository
	wrong    WrongAnswerRepository
	catalog  []domain.ExamInfo
	settings Settings
	now      func() time.Time

	// runCtx parents every session's tick scheduler.
	runCtx context.Context

	mu      sync.Mutex
	evictAt map[string]*time.Timer
}

func NewSessionService(deps Deps, settings Settings) *SessionService {
	return NewSessionServiceWithClock(deps, settings, time.Now)
}

// NewSessionServiceWithClock is test-only for deterministic timestamps.
func NewSessionServiceWithClock(deps Deps, settings Settings, now func() time.Time) *SessionService {
	catalog := deps.Catalog
	if len(catalog) == 0 {
		catalog = bank.DefaultCatalog()
	}
	return &SessionService{
		sessions: deps.Sessions,
		datasets: deps.Datasets,
		listing:  deps.Listing,
		history:  deps.History,
		wrong:    deps.WrongAnswers,
		catalog:  catalog,
		settings: settings,
		now:      now,
		runCtx:   context.Background(),
		evictAt:  make(map[string]*time.Timer),
	}
}

// Exams returns the exam catalog.
func (s *SessionService) Exams() []domain.ExamInfo {
	out := make([]domain.ExamInfo, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// Datasets lists the question banks available for setup.
func (s *SessionService) Datasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	if s.listing == nil {
		return []domain.DatasetSummary{}, nil
	}
	return s.listing.ListDatasets(ctx)
}

// Start builds a question pool, registers a new session and starts its clock.
func (s *SessionService) Start(ctx context.Context, req SetupRequest) (SessionView, error) {
	if len(req.DatasetIDs) == 0 {
		return SessionView{}, domain.ErrEmptyPool
	}

	datasets, err := s.loadDatasets(ctx, req)
	if err != nil {
		return SessionView{}, err
	}

	wrong := map[string]int{}
	if s.wrong != nil && req.UserID != "" {
		if wrong, err = s.wrong.Counts(ctx, req.UserID); err != nil {
			return SessionView{}, errors.Wrapf(err, "failed to load wrong answers for %s", req.UserID)
		}
	}

	var pool []domain.Question
	names := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		pool = append(pool, bank.Normalize(ds.dataset, ds.original)...)
		names = append(names, displayName(ds.dataset))
	}

	count := req.QuestionCount
	if count <= 0 {
		count = s.settings.DefaultQuestionCount
	}
	criteria := bank.Criteria{Count: count, WrongOnly: req.WrongOnly, Wrong: wrong}
	if req.Seed != 0 {
		criteria.Rand = rand.New(rand.NewSource(req.Seed))
	}
	questions, err := bank.Select(pool, criteria)
	if err != nil {
		return SessionView{}, err
	}

	minutes := req.TimeLimitMinutes
	if minutes <= 0 {
		exam, _ := bank.FindExam(s.catalog, datasets[0].dataset.ExamCode)
		minutes = bank.TimeLimitFor(exam, len(questions), s.settings.DefaultTimeLimitMinutes)
	}

	return s.launch(req.UserID, names, wrong, questions, minutes)
}

// RetryWrong starts a new session over the questions a finished session got
// wrong, keeping the original time per question.
func (s *SessionService) RetryWrong(ctx context.Context, sessionID string) (SessionView, error) {
	prev, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	res, ok := prev.Result()
	if !ok {
		return SessionView{}, domain.ErrSessionInProgress
	}
	wrongIDs := make(map[string]bool, len(res.WrongIDs))
	for _, id := range res.WrongIDs {
		wrongIDs[id] = true
	}
	all := prev.engine.Questions()
	var questions []domain.Question
	for _, q := range all {
		if wrongIDs[q.ID] {
			questions = append(questions, q)
		}
	}
	if len(questions) == 0 {
		return SessionView{}, domain.ErrEmptyPool
	}

	perQuestion := float64(prev.View().TimeLimitSeconds) / float64(len(all))
	minutes := int(math.Ceil(perQuestion * float64(len(questions)) / 60))
	if minutes < 1 {
		minutes = 1
	}
	wrong := prev.wrong
	if s.wrong != nil && prev.userID != "" {
		if counts, err := s.wrong.Counts(ctx, prev.userID); err == nil {
			wrong = counts
		}
	}
	return s.launch(prev.userID, prev.examNames, wrong, questions, minutes)
}

func (s *SessionService) launch(userID string, examNames []string, wrong map[string]int, questions []domain.Question, minutes int) (SessionView, error) {
	session := newSession(uuid.NewString(), userID, examNames, wrong)
	eng, err := engine.New(questions, engine.Options{
		TimeLimitSeconds: minutes * 60,
		SkipIntro:        s.settings.SkipIntro,
		TickInterval:     s.settings.TickInterval,
		OnComplete:       func(o domain.Outcome) { s.complete(session, o) },
		OnChange:         session.publish,
	})
	if err != nil {
		return SessionView{}, err
	}
	session.engine = eng

	s.sessions.Add(session)
	session.start(s.runCtx)
	return session.Snapshot(), nil
}

type loadedDataset struct {
	dataset  domain.Dataset
	original *domain.Dataset
}

func (s *SessionService) loadDatasets(ctx context.Context, req SetupRequest) ([]loadedDataset, error) {
	out := make([]loadedDataset, len(req.DatasetIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range req.DatasetIDs {
		i, id := i, id
		g.Go(func() error {
			ds, err := s.datasets.GetDataset(gctx, id)
			if err != nil {
				return err
			}
			out[i].dataset = ds
			origID := req.OriginalDatasetIDs[id]
			if origID == "" {
				return nil
			}
			orig, err := s.datasets.GetDataset(gctx, origID)
			if err != nil {
				return err
			}
			out[i].original = &orig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dispatch applies one command to a session and returns the resulting view.
// The view is returned alongside engine rejections so callers can re-render.
func (s *SessionService) Dispatch(_ context.Context, sessionID string, cmd engine.Command) (SessionView, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return SessionView{}, domain.ErrSessionNotFound
	}
	err := session.Dispatch(cmd)
	return session.Snapshot(), err
}

// Session returns a registered session.
func (s *SessionService) Session(sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// View returns the current read model of a session.
func (s *SessionService) View(sessionID string) (SessionView, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return SessionView{}, err
	}
	return session.Snapshot(), nil
}

// CopyText returns clipboard text for the current question of a session.
func (s *SessionService) CopyText(sessionID string) (string, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return "", err
	}
	return session.CopyText(), nil
}

// Result returns the grade of a finished session.
func (s *SessionService) Result(sessionID string) (domain.GradeResult, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return domain.GradeResult{}, err
	}
	res, ok := session.Result()
	if !ok {
		return domain.GradeResult{}, domain.ErrSessionInProgress
	}
	return res, nil
}

// Subscribe returns a channel that receives view updates for a session.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(_ context.Context, sessionID string) (<-chan SessionView, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Abandon stops a session's clock and drops it without grading.
func (s *SessionService) Abandon(_ context.Context, sessionID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.stop()
	s.evict(sessionID)
	return nil
}

// History lists a user's finished attempts, newest first.
func (s *SessionService) History(ctx context.Context, userID string) ([]domain.HistoryRecord, error) {
	if s.history == nil {
		return []domain.HistoryRecord{}, nil
	}
	return s.history.List(ctx, userID, s.settings.HistoryLimit)
}

// DeleteHistory removes one history record.
func (s *SessionService) DeleteHistory(ctx context.Context, userID, recordID string) error {
	if s.history == nil {
		return domain.ErrHistoryNotFound
	}
	return s.history.Delete(ctx, userID, recordID)
}

// ClearHistory removes every history record of a user.
func (s *SessionService) ClearHistory(ctx context.Context, userID string) error {
	if s.history == nil {
		return nil
	}
	return s.history.Clear(ctx, userID)
}

// Close stops every pending eviction timer.
func (s *SessionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.evictAt {
		t.Stop()
		delete(s.evictAt, id)
	}
}

const persistTimeout = 5 * time.Second

// complete grades a finished session and persists its history. Persistence is
// best effort: the result stays available on the session even when it fails.
func (s *SessionService) complete(session *Session, outcome domain.Outcome) {
	result := grading.Grade(session.engine.Questions(), outcome, s.settings.PassMark)
	now := s.now()
	session.setResult(result, now)
	session.stop()

	if session.userID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if s.history != nil {
			record := domain.HistoryRecord{
				ID:               uuid.NewString(),
				UserID:           session.userID,
				Timestamp:        now,
				TotalQuestions:   result.GradedQuestions,
				CorrectCount:     result.CorrectCount,
				Score:            result.Score,
				TimeTakenSeconds: result.TimeTakenSeconds,
				IsPass:           result.IsPass,
				ExamNames:        session.examNames,
			}
			if err := s.history.Save(ctx, record, s.settings.HistoryLimit); err != nil {
				log.Printf("failed to save history for session %s: %v", session.id, err)
			}
		}
		if s.wrong != nil && len(result.WrongIDs) > 0 {
			if err := s.wrong.Increment(ctx, session.userID, result.WrongIDs); err != nil {
				log.Printf("failed to record wrong answers for session %s: %v", session.id, err)
			}
		}
	}

	s.scheduleEviction(session.id)
}

func (s *SessionService) scheduleEviction(sessionID string) {
	if s.settings.ResultRetention <= 0 {
		s.sessions.Delete(sessionID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.evictAt[sessionID]; ok {
		t.Stop()
	}
	s.evictAt[sessionID] = time.AfterFunc(s.settings.ResultRetention, func() { s.evict(sessionID) })
}

func (s *SessionService) evict(sessionID string) {
	s.mu.Lock()
	if t, ok := s.evictAt[sessionID]; ok {
		t.Stop()
		delete(s.evictAt, sessionID)
	}
	s.mu.Unlock()
	s.sessions.Delete(sessionID)
}

func displayName(ds domain.Dataset) string {
	if ds.Name != "" {
		return ds.Name
	}
	return ds.ID
}
