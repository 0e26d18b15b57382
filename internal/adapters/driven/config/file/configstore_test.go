package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_WithNestedDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "deep", "config", "dir")

	store, err := NewConfigStore(nested)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.DirExists(t, nested)
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	err = store.Set("data_dir", "/var/lib/mailsift")
	require.NoError(t, err)

	val, ok := store.Get("data_dir")
	assert.True(t, ok)
	assert.Equal(t, "/var/lib/mailsift", val)
}

func TestConfigStore_GetString(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("exclude_file", "exclude.csv"))
	assert.Equal(t, "exclude.csv", store.GetString("exclude_file"))

	// Non-existent key
	assert.Equal(t, "", store.GetString("nonexistent"))

	// Wrong type
	require.NoError(t, store.Set("batch_size", 20))
	assert.Equal(t, "", store.GetString("batch_size"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("batch_size", 20))
	assert.Equal(t, 20, store.GetInt("batch_size"))

	// Non-existent key
	assert.Equal(t, 0, store.GetInt("nonexistent"))

	// Wrong type
	require.NoError(t, store.Set("exclude_file", "exclude.csv"))
	assert.Equal(t, 0, store.GetInt("exclude_file"))
}

func TestConfigStore_GetInt_Int64AfterReload(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("batch_size", 50))

	// TOML parses integers as int64 on reload.
	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 50, reloaded.GetInt("batch_size"))
}

func TestConfigStore_GetFloat64(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("similarity_threshold", 0.85))
	assert.Equal(t, 0.85, store.GetFloat64("similarity_threshold"))

	// Integers widen to float
	require.NoError(t, store.Set("whole", 1))
	assert.Equal(t, 1.0, store.GetFloat64("whole"))

	// Non-existent key
	assert.Equal(t, 0.0, store.GetFloat64("nonexistent"))

	// Wrong type
	require.NoError(t, store.Set("name", "mailsift"))
	assert.Equal(t, 0.0, store.GetFloat64("name"))
}

func TestConfigStore_GetFloat64_AfterReload(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("similarity_threshold", 0.9))
	require.NoError(t, store.Set("whole_threshold", 1))

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 0.9, reloaded.GetFloat64("similarity_threshold"))
	assert.Equal(t, 1.0, reloaded.GetFloat64("whole_threshold"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("verbose", true))
	assert.True(t, store.GetBool("verbose"))

	assert.False(t, store.GetBool("nonexistent"))

	require.NoError(t, store.Set("batch_size", 20))
	assert.False(t, store.GetBool("batch_size"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("extra_extensions", []string{".mbox", ".msg"}))

	assert.Equal(t, []string{".mbox", ".msg"}, store.GetStringSlice("extra_extensions"))

	// TOML parses arrays as []any on reload.
	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, []string{".mbox", ".msg"}, reloaded.GetStringSlice("extra_extensions"))

	assert.Nil(t, store.GetStringSlice("nonexistent"))
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("similarity_threshold", 0.95))
	require.NoError(t, store.Set("exclude_file", "do-not-contact.csv"))

	// A fresh store over the same directory sees the persisted values.
	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 0.95, reloaded.GetFloat64("similarity_threshold"))
	assert.Equal(t, "do-not-contact.csv", reloaded.GetString("exclude_file"))
}

func TestConfigStore_Load_NonExistent(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	// Loading with no file present starts empty without error.
	require.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestConfigStore_Load_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not = = valid toml ["), 0600))

	_, err := NewConfigStore(tmpDir)
	assert.Error(t, err)
}

func TestConfigStore_FlattensNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.toml")
	content := "[scan]\nsimilarity_threshold = 0.8\nbatch_size = 10\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 0.8, store.GetFloat64("scan.similarity_threshold"))
	assert.Equal(t, 10, store.GetInt("scan.batch_size"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	require.NoError(t, store.Set("data_dir", "/tmp"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_OverwriteValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("batch_size", 20))
	require.NoError(t, store.Set("batch_size", 100))

	assert.Equal(t, 100, store.GetInt("batch_size"))
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("batch_size", 20)
		}()
		go func() {
			defer wg.Done()
			_ = store.GetInt("batch_size")
		}()
	}
	wg.Wait()
}
