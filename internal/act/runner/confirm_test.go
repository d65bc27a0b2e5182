package runner_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/prunact/internal/act"
	"github.com/xkilldash9x/prunact/internal/act/runner"
)

func TestConsoleConfirmer(t *testing.T) {
	ctx := context.Background()

	t.Run("enter continues, q stops", func(t *testing.T) {
		var out bytes.Buffer
		c := runner.NewConsoleConfirmer(strings.NewReader("\n  Q \n"), &out)
		require.NoError(t, c.Confirm(ctx, "Press ACT to create new draft"))
		assert.ErrorIs(t, c.Confirm(ctx, "Save conditions?"), act.ErrDeclined)
		assert.Contains(t, out.String(), "ACT: Press ACT to create new draft")
		assert.Contains(t, out.String(), "ACT: Save conditions?")
	})

	t.Run("end of input declines", func(t *testing.T) {
		c := runner.NewConsoleConfirmer(strings.NewReader(""), io.Discard)
		assert.ErrorIs(t, c.Confirm(ctx, "Save conditions?"), act.ErrDeclined)
	})

	t.Run("context cancellation", func(t *testing.T) {
		r, w := io.Pipe()
		defer w.Close()
		c := runner.NewConsoleConfirmer(r, io.Discard)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, c.Confirm(cctx, "Save conditions?"), context.DeadlineExceeded)
	})
}
