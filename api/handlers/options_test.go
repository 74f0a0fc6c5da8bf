package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithForm(t *testing.T, form url.Values) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.Request = req
	return c
}

func TestParseOptionsDefaults(t *testing.T) {
	c := contextWithForm(t, url.Values{})
	opts, err := parseOptions(c)
	require.NoError(t, err)
	assert.True(t, opts.Document.PreserveMetadata)
	assert.Zero(t, opts.Image.Quality)
	assert.Empty(t, opts.Audio.Bitrate)
}

func TestParseImageOptions(t *testing.T) {
	c := contextWithForm(t, url.Values{"image_options": {`{
		"quality": 85,
		"resize": {"enabled": true, "type": "percentage", "percentage": 50},
		"rotate": {"enabled": true, "angle": 90},
		"flip": {"enabled": true, "direction": "horizontal"},
		"filter": {"enabled": true, "type": "grayscale"}
	}`}})

	opts, err := parseOptions(c)
	require.NoError(t, err)
	assert.Equal(t, 85, opts.Image.Quality)
	assert.Equal(t, 0.5, opts.Image.ResizePercent)
	assert.Equal(t, float64(90), opts.Image.Rotate)
	assert.Equal(t, "horizontal", opts.Image.Flip)
	assert.Equal(t, "grayscale", opts.Image.Filter)
}

func TestParseImageOptionsDisabledSubFeatures(t *testing.T) {
	c := contextWithForm(t, url.Values{"image_options": {`{
		"resize": {"enabled": false, "type": "percentage", "percentage": 50},
		"rotate": {"enabled": false, "angle": 90}
	}`}})

	opts, err := parseOptions(c)
	require.NoError(t, err)
	assert.Zero(t, opts.Image.ResizePercent)
	assert.Zero(t, opts.Image.Rotate)
}

func TestParseAudioOptions(t *testing.T) {
	c := contextWithForm(t, url.Values{"audio_options": {`{
		"bitrate": "320k",
		"sample_rate": 48000,
		"channels": 2,
		"normalize": true,
		"volume": {"enabled": true, "value": -3.5},
		"trim": {"enabled": true, "start": 1000, "end": 5000}
	}`}})

	opts, err := parseOptions(c)
	require.NoError(t, err)
	assert.Equal(t, "320k", opts.Audio.Bitrate)
	assert.Equal(t, 48000, opts.Audio.SampleRate)
	assert.Equal(t, 2, opts.Audio.Channels)
	assert.True(t, opts.Audio.Normalize)
	assert.Equal(t, -3.5, opts.Audio.VolumeDB)
	assert.Equal(t, 1000, opts.Audio.TrimStartMs)
	assert.Equal(t, 5000, opts.Audio.TrimEndMs)
}

func TestParseVideoOptions(t *testing.T) {
	c := contextWithForm(t, url.Values{"video_options": {`{
		"video_bitrate": "2500k",
		"resolution": "1280x720",
		"fps": 30,
		"rotate": {"enabled": true, "angle": 180},
		"extract_audio": true
	}`}})

	opts, err := parseOptions(c)
	require.NoError(t, err)
	assert.Equal(t, "2500k", opts.Video.VideoBitrate)
	assert.Equal(t, "1280x720", opts.Video.Resolution)
	assert.Equal(t, 30, opts.Video.FPS)
	assert.Equal(t, 180, opts.Video.Rotate)
	assert.True(t, opts.Video.ExtractAudio)
}

func TestParseDocumentOptions(t *testing.T) {
	c := contextWithForm(t, url.Values{"document_options": {`{
		"preserve_metadata": false,
		"paper_size": "a4",
		"margins": {"top": 20, "left": 15},
		"font_size": 12,
		"toc": true,
		"encrypted_pdf": {"enabled": true, "password": "secret"}
	}`}})

	opts, err := parseOptions(c)
	require.NoError(t, err)
	assert.False(t, opts.Document.PreserveMetadata)
	assert.Equal(t, "a4", opts.Document.PaperSize)
	assert.Equal(t, map[string]int{"top": 20, "left": 15}, opts.Document.Margins)
	assert.Equal(t, 12, opts.Document.FontSize)
	assert.True(t, opts.Document.TOC)
	assert.True(t, opts.Document.EncryptedPDF)
	assert.Equal(t, "secret", opts.Document.Password)
}

func TestParseOptionsRejectsMalformedJSON(t *testing.T) {
	c := contextWithForm(t, url.Values{"image_options": {`{broken`}})
	_, err := parseOptions(c)
	assert.Error(t, err)
}
