package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thenoname-gurl/Brain/internal/profile"
	"github.com/thenoname-gurl/Brain/store"
)

func TestSectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "brain_test.db")}

	driver, err := NewDB(p)
	require.NoError(t, err)
	defer driver.Close()

	sections, err := driver.LoadSections(ctx)
	require.NoError(t, err)
	assert.Empty(t, sections)

	require.NoError(t, driver.SaveSection(ctx, store.TagCore, []byte(`{"stats":{"messages":1}}`)))
	require.NoError(t, driver.SaveSection(ctx, store.TagCore, []byte(`{"stats":{"messages":2}}`)))
	require.NoError(t, driver.SaveSection(ctx, store.TagNeural, []byte(`{"dim":256}`)))

	sections, err = driver.LoadSections(ctx)
	require.NoError(t, err)
	assert.Len(t, sections, 2)
	assert.JSONEq(t, `{"stats":{"messages":2}}`, string(sections[store.TagCore]))
	assert.JSONEq(t, `{"dim":256}`, string(sections[store.TagNeural]))
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "brain_test.db")}

	driver, err := NewDB(p)
	require.NoError(t, err)

	st := store.New(driver)
	st.State().Stats.Messages = 3
	st.State().Facts["water boils at 100 degrees"] = store.Fact{Count: 2}
	st.ScheduleSave(store.TagCore)
	require.NoError(t, st.Close(ctx))

	driver, err = NewDB(p)
	require.NoError(t, err)
	defer driver.Close()

	reloaded := store.New(driver)
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, 3, reloaded.State().Stats.Messages)
	assert.Equal(t, 2, reloaded.State().Facts["water boils at 100 degrees"].Count)
}

func TestNewDBRequiresDSN(t *testing.T) {
	_, err := NewDB(&profile.Profile{Driver: "sqlite"})
	assert.Error(t, err)

	_, err = NewDB(nil)
	assert.Error(t, err)
}
