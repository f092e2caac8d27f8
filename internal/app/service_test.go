package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/engine"
	"exam-drill-service/internal/infra/memory"
)

type fixture struct {
	svc      *app.SessionService
	sessions *memory.SessionStore
	history  *memory.HistoryStore
	wrong    *memory.WrongAnswerStore
}

func newFixture(t *testing.T, retention time.Duration) fixture {
	t.Helper()
	sessions := memory.NewSessionStore()
	history := memory.NewHistoryStore()
	wrong := memory.NewWrongAnswerStore()
	loader := memory.NewStaticDatasetLoader(map[string]domain.Dataset{
		"saa-v1":    dataset("saa-v1", "SAA-C03", 10),
		"saa-v1-en": dataset("saa-v1-en", "", 10),
		"clf-v1":    dataset("clf-v1", "CLF-C02", 3),
	})
	datasets := memory.NewDatasetRepository(loader, time.Minute)

	settings := app.DefaultSettings()
	settings.SkipIntro = true
	settings.TickInterval = time.Hour
	settings.ResultRetention = retention
	svc := app.NewSessionService(app.Deps{
		Sessions:     sessions,
		Datasets:     datasets,
		Listing:      loader,
		History:      history,
		WrongAnswers: wrong,
	}, settings)
	t.Cleanup(svc.Close)
	return fixture{svc: svc, sessions: sessions, history: history, wrong: wrong}
}

func dataset(id, exam string, n int) domain.Dataset {
	ds := domain.Dataset{ID: id, Name: id + " bank", ExamCode: exam}
	for i := 0; i < n; i++ {
		ds.Questions = append(ds.Questions, domain.RawQuestion{
			Question: id + " question",
			Options:  []string{"A. first", "B. second", "C. third"},
			Answer:   "B",
		})
	}
	return ds
}

// answerAll answers every question, correctly unless its id is in wrongIDs.
func answerAll(t *testing.T, svc *app.SessionService, v app.SessionView, wrongIDs map[string]bool) app.SessionView {
	t.Helper()
	ctx := context.Background()
	var err error
	for v.InProgress {
		label := v.Question.CorrectAnswer
		if wrongIDs[v.Question.ID] {
			label = "A"
		}
		v, err = svc.Dispatch(ctx, v.SessionID, engine.Command{Kind: engine.CmdSelect, Label: label})
		require.NoError(t, err)
		v, err = svc.Dispatch(ctx, v.SessionID, engine.Command{Kind: engine.CmdNext})
		require.NoError(t, err)
	}
	return v
}

func TestStartAndCompleteRecordsHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)

	v, err := f.svc.Start(ctx, app.SetupRequest{UserID: "u1", DatasetIDs: []string{"clf-v1"}, Seed: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, v.SessionID)
	assert.Equal(t, 3, v.Total)
	assert.True(t, v.InProgress)

	done := answerAll(t, f.svc, v, map[string]bool{})
	require.NotNil(t, done.Result)
	assert.Equal(t, 100, done.Result.Score)
	assert.True(t, done.Result.IsPass)

	res, err := f.svc.Result(v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.CorrectCount)

	records, err := f.svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 100, records[0].Score)
	assert.Equal(t, []string{"clf-v1 bank"}, records[0].ExamNames)
	assert.NotEmpty(t, records[0].ID)

	_, err = f.svc.Dispatch(ctx, v.SessionID, engine.Command{Kind: engine.CmdSelect, Label: "A"})
	assert.ErrorIs(t, err, domain.ErrSessionFinished)
}

func TestDatasetsAndExams(t *testing.T) {
	f := newFixture(t, time.Minute)
	list, err := f.svc.Datasets(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, domain.DatasetSummary{ID: "clf-v1", Name: "clf-v1 bank", ExamCode: "CLF-C02", QuestionCount: 3}, list[0])
	assert.NotEmpty(t, f.svc.Exams())
}

func TestTimeLimitScalesWithExam(t *testing.T) {
	f := newFixture(t, time.Minute)
	v, err := f.svc.Start(context.Background(), app.SetupRequest{DatasetIDs: []string{"saa-v1"}, QuestionCount: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, v.Total)
	assert.Equal(t, 10*60, v.TimeLimitSeconds)

	v, err = f.svc.Start(context.Background(), app.SetupRequest{DatasetIDs: []string{"saa-v1"}, QuestionCount: 5, TimeLimitMinutes: 3})
	require.NoError(t, err)
	assert.Equal(t, 180, v.SecondsRemaining)
}

func TestStartLinksOriginalDataset(t *testing.T) {
	f := newFixture(t, time.Minute)
	v, err := f.svc.Start(context.Background(), app.SetupRequest{
		DatasetIDs:         []string{"saa-v1"},
		OriginalDatasetIDs: map[string]string{"saa-v1": "saa-v1-en"},
	})
	require.NoError(t, err)
	assert.Equal(t, "saa-v1-en question", v.Question.OriginalPrompt)

	v, err = f.svc.Dispatch(context.Background(), v.SessionID, engine.Command{Kind: engine.CmdToggleOriginal})
	require.NoError(t, err)
	assert.Equal(t, "saa-v1-en question", v.Prompt)
}

func TestStartErrors(t *testing.T) {
	f := newFixture(t, time.Minute)
	_, err := f.svc.Start(context.Background(), app.SetupRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyPool)

	_, err = f.svc.Start(context.Background(), app.SetupRequest{DatasetIDs: []string{"clf-v1", "missing"}})
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)

	_, err = f.svc.Start(context.Background(), app.SetupRequest{UserID: "u1", DatasetIDs: []string{"clf-v1"}, WrongOnly: true})
	assert.ErrorIs(t, err, domain.ErrEmptyPool)
}

func TestWrongAnswersFeedWrongOnlyMode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)

	v, err := f.svc.Start(ctx, app.SetupRequest{UserID: "u1", DatasetIDs: []string{"clf-v1"}})
	require.NoError(t, err)
	done := answerAll(t, f.svc, v, map[string]bool{"clf-v1-1": true})
	assert.Equal(t, []string{"clf-v1-1"}, done.Result.WrongIDs)

	counts, err := f.wrong.Counts(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"clf-v1-1": 1}, counts)

	retry, err := f.svc.Start(ctx, app.SetupRequest{UserID: "u1", DatasetIDs: []string{"clf-v1"}, WrongOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Total)
	assert.Equal(t, "clf-v1-1", retry.Question.ID)
	assert.Equal(t, 1, retry.WrongCount)
}

func TestRetryWrongKeepsTimePerQuestion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)

	v, err := f.svc.Start(ctx, app.SetupRequest{UserID: "u1", DatasetIDs: []string{"clf-v1"}, TimeLimitMinutes: 3})
	require.NoError(t, err)
	_, err = f.svc.RetryWrong(ctx, v.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionInProgress)

	answerAll(t, f.svc, v, map[string]bool{"clf-v1-0": true, "clf-v1-2": true})
	retry, err := f.svc.RetryWrong(ctx, v.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 2, retry.Total)
	assert.Equal(t, 120, retry.TimeLimitSeconds)
	assert.NotEqual(t, v.SessionID, retry.SessionID)
}

func TestSubscribeReceivesUpdatesAndResult(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)

	v, err := f.svc.Start(ctx, app.SetupRequest{DatasetIDs: []string{"clf-v1"}})
	require.NoError(t, err)
	ch, cancel, err := f.svc.Subscribe(ctx, v.SessionID)
	require.NoError(t, err)
	defer cancel()

	initial := <-ch
	assert.Equal(t, 0, initial.Index)

	_, err = f.svc.Dispatch(ctx, v.SessionID, engine.Command{Kind: engine.CmdSelect, Label: "B"})
	require.NoError(t, err)
	update := <-ch
	assert.Equal(t, "B", update.Answer)

	answerAll(t, f.svc, update, nil)
	var last app.SessionView
	for len(ch) > 0 {
		last = <-ch
	}
	require.NotNil(t, last.Result)
	assert.False(t, last.InProgress)
}

func TestAbandonDropsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)

	v, err := f.svc.Start(ctx, app.SetupRequest{UserID: "u1", DatasetIDs: []string{"clf-v1"}})
	require.NoError(t, err)
	require.NoError(t, f.svc.Abandon(ctx, v.SessionID))

	_, err = f.svc.Dispatch(ctx, v.SessionID, engine.Command{Kind: engine.CmdNext})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, f.svc.Abandon(ctx, v.SessionID), domain.ErrSessionNotFound)

	records, _ := f.svc.History(ctx, "u1")
	assert.Empty(t, records)
}

func TestFinishedSessionsAreEvicted(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)

	v, err := f.svc.Start(context.Background(), app.SetupRequest{DatasetIDs: []string{"clf-v1"}})
	require.NoError(t, err)
	answerAll(t, f.svc, v, nil)

	_, err = f.svc.View(v.SessionID)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		_, ok := f.sessions.Get(v.SessionID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestHistoryOperations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	for i := 0; i < 2; i++ {
		v, err := f.svc.Start(ctx, app.SetupRequest{UserID: "u1", DatasetIDs: []string{"clf-v1"}})
		require.NoError(t, err)
		answerAll(t, f.svc, v, nil)
	}
	records, err := f.svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.NoError(t, f.svc.DeleteHistory(ctx, "u1", records[0].ID))
	assert.ErrorIs(t, f.svc.DeleteHistory(ctx, "u1", records[0].ID), domain.ErrHistoryNotFound)
	require.NoError(t, f.svc.ClearHistory(ctx, "u1"))
	records, _ = f.svc.History(ctx, "u1")
	assert.Empty(t, records)
}

func TestSubscriberEndsOnLatestState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	v, err := f.svc.Start(ctx, app.SetupRequest{DatasetIDs: []string{"saa-v1"}, QuestionCount: 3})
	require.NoError(t, err)
	session, err := f.svc.Session(v.SessionID)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		done := make(chan struct{})
		go func() {
			defer close(done)
			for j := 0; j < 5; j++ {
				_, _ = f.svc.Dispatch(ctx, v.SessionID, engine.Command{Kind: engine.CmdToggleExplanation})
			}
		}()
		updates, unsubscribe, err := f.svc.Subscribe(ctx, v.SessionID)
		require.NoError(t, err)
		<-done

		var last app.SessionView
	drain:
		for {
			select {
			case u := <-updates:
				last = u
			default:
				break drain
			}
		}
		unsubscribe()
		require.Equal(t, session.Snapshot().Display, last.Display, "iteration %d", i)
	}
}
