package storage

import (
	"errors"
	"testing"

	"rbfswarm/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	run := testRun("codec", "2026-03-04T00:00:00Z")
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode run: %v", err)
	}
	decoded, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode run: %v", err)
	}
	if decoded.RunID != run.RunID || decoded.StopReason != run.StopReason {
		t.Fatalf("unexpected decoded run: %+v", decoded)
	}
}

func TestDecodeRunRejectsFutureVersion(t *testing.T) {
	_, err := DecodeRun([]byte(`{"schema_version":2,"codec_version":1,"run_id":"x"}`))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch, got=%v", err)
	}
	if _, err := EncodeRun(model.RunRecord{}); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected version mismatch on encode, got=%v", err)
	}
}

func TestErrorHistoryCodec(t *testing.T) {
	data, err := EncodeErrorHistory([]float64{1, 0.5})
	if err != nil {
		t.Fatalf("encode history: %v", err)
	}
	history, err := DecodeErrorHistory(data)
	if err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 || history[1] != 0.5 {
		t.Fatalf("unexpected history: %v", history)
	}
}
