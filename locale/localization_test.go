package locale

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adeneu/portfolio-web/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAllShippedLocales(t *testing.T) {
	localization, err := InitAll("./", []config.AvailableLanguageConfig{
		{Name: "fr", LocFile: "fr.yaml"},
		{Name: "en", LocFile: "en.yaml"},
	})
	require.NoError(t, err)
	require.Len(t, localization, 2)

	for lang, l := range localization {
		assert.NotEmpty(t, l.Feed.Title, lang)
		assert.Contains(t, l.Mail.Contact.Subject, "{}", lang)
	}
}

func TestInitConfigRejectsIncompleteLocale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xx.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Feed:\n  Title: Blog\n"), 0o600))

	_, err := InitConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Description")
}

func TestInitAllMissingFile(t *testing.T) {
	_, err := InitAll(t.TempDir()+"/", []config.AvailableLanguageConfig{{Name: "de", LocFile: "de.yaml"}})
	assert.ErrorContains(t, err, "fail to read locale file")
}
