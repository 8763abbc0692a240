package service

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

func dataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestDecodeImage(t *testing.T) {
	img, err := DecodeImage(dataURI("image/png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, pngBytes, img.Data)

	gif := append([]byte("GIF89a"), make([]byte, 16)...)
	img, err = DecodeImage(dataURI("image/gif", gif))
	require.NoError(t, err)
	assert.Equal(t, "gif", img.Ext)

	for name, uri := range map[string]string{
		"not a data uri":   "https://example.com/pic.png",
		"no base64 marker": "data:image/png,abc",
		"unsupported type": dataURI("image/bmp", pngBytes),
		"invalid base64":   "data:image/png;base64,!!!",
		"empty payload":    "data:image/png;base64,",
		"content mismatch": dataURI("image/jpeg", pngBytes),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeImage(uri)
			assert.Error(t, err)
		})
	}
}

func TestLocalImageStore(t *testing.T) {
	root := t.TempDir()
	store := NewLocalImageStore(root, "/media/")
	ctx := context.Background()

	url, err := store.Save(ctx, "abc.png", "image/png", pngBytes)
	require.NoError(t, err)
	assert.Equal(t, "/media/recipes/images/abc.png", url)

	path := filepath.Join(root, "recipes", "images", "abc.png")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	require.NoError(t, store.Delete(ctx, url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, url), "deleting twice is harmless")
	assert.NoError(t, store.Delete(ctx, "https://cdn.example.com/x.png"))
	assert.NoError(t, store.Delete(ctx, "/media/../../etc/passwd"))
}

func TestSplitNamespace(t *testing.T) {
	tests := []struct {
		ns, field, sub string
	}{
		{"RecipeInput.name", "name", ""},
		{"RecipeInput.ingredients", "ingredients", ""},
		{"RecipeInput.ingredients[1].amount", "ingredients", "ingredients[1].amount"},
		{"RecipeInput.tags[0]", "tags", "tags[0]"},
	}
	for _, tt := range tests {
		field, sub := splitNamespace(tt.ns)
		assert.Equal(t, tt.field, field, tt.ns)
		assert.Equal(t, tt.sub, sub, tt.ns)
	}
}
