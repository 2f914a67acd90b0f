package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/thenoname-gurl/Brain/store"
	"github.com/thenoname-gurl/Brain/store/db/memory"
)

type mockDriver struct {
	mock.Mock
}

func (m *mockDriver) LoadSections(ctx context.Context) (map[store.Tag][]byte, error) {
	args := m.Called(ctx)
	sections, _ := args.Get(0).(map[store.Tag][]byte)
	return sections, args.Error(1)
}

func (m *mockDriver) SaveSection(ctx context.Context, tag store.Tag, data []byte) error {
	return m.Called(ctx, tag, data).Error(0)
}

func (m *mockDriver) Close() error {
	return m.Called().Error(0)
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestAppendInteractionTrimsAndMovesCursor(t *testing.T) {
	tests := []struct {
		name          string
		maxMemory     int
		existing      int
		cursor        int
		wantTrimmed   int
		wantLen       int
		wantCursor    int
		wantFirstUser string
	}{
		{name: "under the cap", maxMemory: 5, existing: 2, cursor: 2, wantTrimmed: 0, wantLen: 3, wantCursor: 2, wantFirstUser: "m0"},
		{name: "one over", maxMemory: 3, existing: 3, cursor: 3, wantTrimmed: 1, wantLen: 3, wantCursor: 2, wantFirstUser: "m1"},
		{name: "cursor clamps at zero", maxMemory: 3, existing: 3, cursor: 0, wantTrimmed: 1, wantLen: 3, wantCursor: 0, wantFirstUser: "m1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewState()
			for i := 0; i < tt.existing; i++ {
				s.Interactions = append(s.Interactions, store.Interaction{User: "m" + string(rune('0'+i))})
			}
			s.Trainer.ProcessedUntil = tt.cursor

			trimmed := s.AppendInteraction(store.Interaction{User: "new"}, tt.maxMemory)
			assert.Equal(t, tt.wantTrimmed, trimmed)
			assert.Len(t, s.Interactions, tt.wantLen)
			assert.Equal(t, tt.wantCursor, s.Trainer.ProcessedUntil)
			assert.Equal(t, tt.wantFirstUser, s.Interactions[0].User)
			assert.Equal(t, "new", s.Interactions[len(s.Interactions)-1].User)
		})
	}
}

func TestLogNeverExceedsMaxMemory(t *testing.T) {
	s := store.NewState()
	for i := 0; i < 50; i++ {
		s.AppendInteraction(store.Interaction{User: "x"}, 10)
		s.Trainer.ProcessedUntil = len(s.Interactions)
		assert.LessOrEqual(t, len(s.Interactions), 10)
		assert.LessOrEqual(t, s.Trainer.ProcessedUntil, len(s.Interactions))
	}
}

func TestRemoveInteraction(t *testing.T) {
	s := store.NewState()
	for _, u := range []string{"a", "b", "c", "d"} {
		s.AppendInteraction(store.Interaction{User: u}, 10)
	}
	s.Trainer.ProcessedUntil = 3

	s.RemoveInteraction(1)
	assert.Equal(t, 2, s.Trainer.ProcessedUntil)
	assert.Equal(t, "c", s.Interactions[1].User)

	s.RemoveInteraction(2)
	assert.Equal(t, 2, s.Trainer.ProcessedUntil)

	s.RemoveInteraction(99)
	assert.Len(t, s.Interactions, 2)
}

func TestTeachBank(t *testing.T) {
	s := store.NewState()
	s.TeachBank("hello", "hi", epoch)
	s.TeachBank("hello", "hi", epoch.Add(time.Minute))
	require.Len(t, s.Bank["hello"], 1)
	assert.Equal(t, 2, s.Bank["hello"][0].Count)

	for i := 0; i < 12; i++ {
		s.TeachBank("hello", "reply "+string(rune('a'+i)), epoch.Add(time.Duration(i)*time.Second))
	}
	s.TeachBank("hello", "reply c", epoch.Add(time.Hour))

	entries := s.Bank["hello"]
	assert.Len(t, entries, store.MaxBankEntries)
	assert.Equal(t, "hi", entries[0].Reply)
	assert.Equal(t, "reply c", entries[1].Reply)
	for i := 1; i < len(entries); i++ {
		assert.GreaterOrEqual(t, entries[i-1].Count, entries[i].Count)
	}
}

func TestForgetBankReply(t *testing.T) {
	s := store.NewState()
	s.TeachBank("a", "bad", epoch)
	s.TeachBank("b", "bad", epoch)
	s.TeachBank("b", "good", epoch)

	assert.Equal(t, 2, s.ForgetBankReply("bad"))
	assert.NotContains(t, s.Bank, "a")
	require.Len(t, s.Bank["b"], 1)
	assert.Equal(t, "good", s.Bank["b"][0].Reply)
}

func TestRepair(t *testing.T) {
	s := &store.State{
		Interactions: []store.Interaction{{User: "a"}},
		Sessions:     map[string]*store.Session{"gone": nil},
		Neural: store.NeuralState{Prototypes: []store.Prototype{
			{Reply: "ok", Vector: make([]float64, store.DefaultNeuralDim)},
			{Reply: "short", Vector: make([]float64, 3)},
		}},
		Trainer: store.TrainerCursor{ProcessedUntil: 7},
	}
	s.Repair()

	assert.NotNil(t, s.Bank)
	assert.NotNil(t, s.Tokens)
	assert.NotNil(t, s.Associations)
	assert.Empty(t, s.Sessions)
	assert.Equal(t, store.DefaultNeuralDim, s.Neural.Dim)
	require.Len(t, s.Neural.Prototypes, 1)
	assert.Equal(t, "ok", s.Neural.Prototypes[0].Reply)
	assert.Equal(t, 1, s.Trainer.ProcessedUntil)
}

func TestRepairEvictsLowestCountPrototypes(t *testing.T) {
	s := &store.State{Neural: store.NeuralState{Dim: store.DefaultNeuralDim}}
	for i := 0; i < store.MaxPrototypes+2; i++ {
		count := 3
		switch i {
		case 0:
			count = 1
		case store.MaxPrototypes:
			count = 2
		}
		s.Neural.Prototypes = append(s.Neural.Prototypes, store.Prototype{
			Reply:     fmt.Sprintf("reply %d", i),
			Vector:    make([]float64, store.DefaultNeuralDim),
			Count:     count,
			UpdatedAt: epoch,
		})
	}
	s.Repair()

	require.Len(t, s.Neural.Prototypes, store.MaxPrototypes)
	replies := make(map[string]bool, len(s.Neural.Prototypes))
	for _, p := range s.Neural.Prototypes {
		replies[p.Reply] = true
	}
	assert.False(t, replies["reply 0"])
	assert.False(t, replies[fmt.Sprintf("reply %d", store.MaxPrototypes)])
	assert.True(t, replies[fmt.Sprintf("reply %d", store.MaxPrototypes+1)])
	assert.Equal(t, "reply 1", s.Neural.Prototypes[0].Reply)
}

func TestEvictPrefersOldestAmongEqualCounts(t *testing.T) {
	ns := store.NeuralState{Prototypes: []store.Prototype{
		{Reply: "new", Count: 1, UpdatedAt: epoch.Add(time.Hour)},
		{Reply: "old", Count: 1, UpdatedAt: epoch},
		{Reply: "busy", Count: 5, UpdatedAt: epoch},
	}}
	assert.Equal(t, 1, ns.Evict(2))
	require.Len(t, ns.Prototypes, 2)
	assert.Equal(t, "new", ns.Prototypes[0].Reply)
	assert.Equal(t, "busy", ns.Prototypes[1].Reply)
	assert.Zero(t, ns.Evict(2))
}

func TestSessionIsCreatedOnce(t *testing.T) {
	s := store.NewState()
	first := s.Session("abc", epoch)
	second := s.Session("abc", epoch.Add(time.Hour))
	assert.Same(t, first, second)
	assert.Equal(t, 1, s.Stats.Sessions)
	assert.Equal(t, epoch, first.FirstSeen)
}

func TestFlushAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	driver := memory.NewDB()

	st := store.New(driver)
	state := st.State()
	state.AppendInteraction(store.Interaction{SessionID: "s1", User: "hello", Bot: "hi", Source: "smalltalk", At: epoch}, 10)
	state.TeachBank("hello", "hi", epoch)
	state.Associations["sun"] = map[string]int{"light": 2}
	state.Associations["light"] = map[string]int{"sun": 2}
	st.ScheduleSave(store.TagInteractions, store.TagCore, store.TagLanguage, store.Tag("bogus"))

	assert.Equal(t, []store.Tag{store.TagCore, store.TagInteractions, store.TagLanguage}, st.Pending())

	saved, err := st.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, saved)
	assert.Empty(t, st.Pending())

	reloaded := store.New(driver)
	require.NoError(t, reloaded.Load(ctx))
	got := reloaded.State()
	require.Len(t, got.Interactions, 1)
	assert.Equal(t, "hello", got.Interactions[0].User)
	assert.Equal(t, "hi", got.Bank["hello"][0].Reply)
	assert.Equal(t, 2, got.Associations["light"]["sun"])
	assert.NotNil(t, got.Web)
}

func TestLoadSkipsUnreadableSection(t *testing.T) {
	driver := &mockDriver{}
	driver.On("LoadSections", mock.Anything).Return(map[store.Tag][]byte{
		store.TagCore:   []byte("{not json"),
		store.TagNeural: []byte(`{"dim":256,"trainedSamples":4}`),
	}, nil)

	st := store.New(driver)
	require.NoError(t, st.Load(context.Background()))
	assert.Equal(t, 4, st.State().Neural.TrainedSamples)
	assert.NotNil(t, st.State().Sessions)
}

func TestFlushKeepsFailedSectionsDirty(t *testing.T) {
	driver := &mockDriver{}
	driver.On("SaveSection", mock.Anything, store.TagCore, mock.Anything).Return(nil)
	driver.On("SaveSection", mock.Anything, store.TagNeural, mock.Anything).Return(errors.New("disk full"))

	st := store.New(driver)
	st.ScheduleSave(store.TagCore, store.TagNeural)

	saved, err := st.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, saved)
	assert.Equal(t, []store.Tag{store.TagNeural}, st.Pending())
	driver.AssertExpectations(t)
}
