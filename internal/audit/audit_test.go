package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := "./test_audit"
	defer os.RemoveAll(tempDir)

	auditor := NewAuditor(tempDir)

	t.Run("SaveJSON creates audit directory and saves file", func(t *testing.T) {
		record := map[string]interface{}{
			"book_id": "book-1",
			"user_id": "user-1",
		}

		filename, err := auditor.SaveJSON(record)
		require.NoError(t, err)
		assert.NotEmpty(t, filename)
		assert.Contains(t, filename, ".json")

		_, err = os.Stat(tempDir)
		assert.NoError(t, err)

		fileContent, err := os.ReadFile(filepath.Join(tempDir, filename))
		require.NoError(t, err)

		var saved map[string]interface{}
		require.NoError(t, json.Unmarshal(fileContent, &saved))
		assert.Equal(t, "book-1", saved["book_id"])
		assert.Equal(t, "user-1", saved["user_id"])
	})

	t.Run("SaveJSON generates unique filenames", func(t *testing.T) {
		record := map[string]string{"key": "value"}

		filename1, err := auditor.SaveJSON(record)
		require.NoError(t, err)
		filename2, err := auditor.SaveJSON(record)
		require.NoError(t, err)

		assert.NotEqual(t, filename1, filename2)
	})

	t.Run("SaveJSON fails on unmarshalable data", func(t *testing.T) {
		_, err := auditor.SaveJSON(make(chan int))
		assert.Error(t, err)
	})
}
