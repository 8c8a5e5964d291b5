package converter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"call-transcriber/internal/app/api"
	"call-transcriber/internal/app/api/provider"
	"call-transcriber/internal/app/audio"
	apperrors "call-transcriber/internal/app/errors"
	"call-transcriber/internal/app/model"
)

// Converter turns one audio file into one ledger record.
type Converter struct {
	transcriber api.Transcriber
	prober      audio.Prober
	logger      *zap.Logger
}

func NewConverter(transcriber api.Transcriber, prober audio.Prober, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		transcriber: transcriber,
		prober:      prober,
		logger:      logger,
	}
}

// Invoke transcribes item and always returns a record. Decode, network and
// service failures, and panics inside the provider, come back as failure
// records carrying the error sentinel.
func (c *Converter) Invoke(ctx context.Context, item model.WorkItem, languageCode string) (record model.TranscriptionRecord) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while transcribing", zap.String("file", item.Name), zap.Any("panic", r))
			record = model.NewFailureRecord(item, fmt.Errorf("panic: %v", r))
		}
	}()

	record, err := c.convertToText(ctx, item, languageCode)
	if err != nil {
		c.logger.Error("error transcribing", zap.String("file", item.FullPath), zap.Error(err))
		return model.NewFailureRecord(item, err)
	}
	return record
}

func (c *Converter) convertToText(ctx context.Context, item model.WorkItem, languageCode string) (model.TranscriptionRecord, error) {
	c.logger.Info("transcribing", zap.String("file", item.Name))
	start := time.Now()

	duration, err := c.prober.Duration(ctx, item.FullPath)
	if err != nil {
		return model.TranscriptionRecord{}, apperrors.Mark(err, apperrors.ErrAudioDecode)
	}

	resp, err := c.transcriber.TranscriptWithOptions(ctx, &provider.TranscriptionRequest{
		InputFilePath:  item.FullPath,
		Language:       languageCode,
		Diarize:        true,
		TagAudioEvents: true,
	})
	if err != nil {
		return model.TranscriptionRecord{}, apperrors.Mark(err, apperrors.ErrTranscription)
	}
	if resp == nil {
		return model.TranscriptionRecord{}, apperrors.ErrResponseInvalid
	}

	record := model.TranscriptionRecord{
		FileName:        item.Name,
		FileDate:        item.FileDate(),
		DurationSeconds: duration,
		Transcription:   resp.Text,
		SpeakerCount:    resp.SpeakerCount(),
	}
	c.logger.Info("successfully transcribed",
		zap.String("file", item.Name),
		zap.Float64("duration_sec", duration),
		zap.Int("speakers", record.SpeakerCount),
		zap.String("provider", c.transcriber.Name()),
		zap.Duration("took", time.Since(start)))
	return record, nil
}
