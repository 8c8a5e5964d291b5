package audio

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    float64
		wantErr bool
	}{
		{name: "seconds", text: "12.480000\n", want: 12.48},
		{name: "integer", text: "3", want: 3},
		{name: "not_available", text: "N/A", wantErr: true},
		{name: "empty", text: "", wantErr: true},
		{name: "garbage", text: "abc", wantErr: true},
		{name: "negative", text: "-1.0", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseProbe(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr string
	}{
		{
			name: "format_duration",
			output: `{"streams":[{"codec_type":"audio","codec_name":"aac","sample_rate":"44100","duration":"61.9"}],
				"format":{"format_name":"mov,mp4,m4a","duration":"62.000000"}}`,
			want: 62,
		},
		{
			name:   "stream_duration_fallback",
			output: `{"streams":[{"codec_type":"video"},{"codec_type":"audio","duration":"8.5"}],"format":{"duration":"N/A"}}`,
			want:   8.5,
		},
		{
			name:    "no_audio_stream",
			output:  `{"streams":[{"codec_type":"video","codec_name":"h264"}],"format":{"duration":"10"}}`,
			wantErr: "no audio stream",
		},
		{
			name:    "empty_output",
			output:  `{}`,
			wantErr: "no audio stream",
		},
		{
			name:    "not_json",
			output:  `12.3`,
			wantErr: "unexpected ffprobe output",
		},
		{
			name:    "no_duration",
			output:  `{"streams":[{"codec_type":"audio"}],"format":{}}`,
			wantErr: "no duration",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProbe([]byte(tt.output))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFFProbe_MissingBinary(t *testing.T) {
	p := &FFProbe{Binary: filepath.Join(t.TempDir(), "no-ffprobe")}
	_, err := p.Duration(context.Background(), "/tmp/whatever.wav")
	assert.Error(t, err)
}

func TestFFProbe_UnreadableFile(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}
	_, err := NewFFProbe().Duration(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	assert.Error(t, err)
}
