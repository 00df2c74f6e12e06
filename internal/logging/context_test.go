package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/Amund211/beacon/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Parallel()

	t.Run("returns fallback logger when none is set", func(t *testing.T) {
		t.Parallel()

		logger := logging.FromContext(t.Context())
		require.NotNil(t, logger)
	})

	t.Run("returns the logger added to the context", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		ctx := logging.AddToContext(t.Context(), logger)

		logging.FromContext(ctx).Info("hello")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "hello", record["msg"])
	})

	t.Run("meta attrs are attached to subsequent logs", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, nil))

		ctx := logging.AddToContext(t.Context(), logger)
		ctx = logging.AddMetaToContext(ctx, slog.String("upstream", "payments"))

		logging.FromContext(ctx).Info("fetched")

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		require.Equal(t, "fetched", record["msg"])
		require.Equal(t, "payments", record["upstream"])
	})
}
